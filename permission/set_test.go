package permission

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSetJSONRoundTrip(t *testing.T) {
	s := SetOf(
		Module("tickets", ActionShow, ActionDelete),
		Module("Leads CRM.Create LEAD"),
	)

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"tickets":["show","delete"],"Leads CRM.Create LEAD":[]}`
	if string(raw) != want {
		t.Fatalf("expected %s, got %s", want, raw)
	}

	var back Set
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(s) {
		t.Fatalf("expected %s, got %s", s, &back)
	}
	if keys := back.Keys(); len(keys) != 2 || keys[1] != Compound("Leads CRM", "Create LEAD") {
		t.Fatalf("expected key order kept, got %v", keys)
	}
}

func TestSetJSONSuperAdmin(t *testing.T) {
	for _, doc := range []string{`{"SuperAdmin":true}`, `{"tickets":["show"],"SuperAdmin":"*"}`} {
		var s Set
		if err := json.Unmarshal([]byte(doc), &s); err != nil {
			t.Fatalf("%s: unmarshal: %v", doc, err)
		}
		if !s.IsSuperAdmin() || s.Len() != 0 {
			t.Fatalf("%s: expected SuperAdmin singleton, got %s", doc, &s)
		}
	}
}

func TestSetJSONRejectsMalformed(t *testing.T) {
	var s Set
	err := json.Unmarshal([]byte(`{"tickets":"show"}`), &s)
	if !errors.Is(err, ErrMalformedEntry) {
		t.Fatalf("expected ErrMalformedEntry, got %v", err)
	}
}

func TestNilSetReads(t *testing.T) {
	var s *Set
	if s.IsSuperAdmin() || s.Has(Simple("tickets")) || s.Len() != 0 || s.Grants(Simple("tickets"), ActionShow) {
		t.Fatal("expected nil set to read as empty")
	}
	if !s.Equal(NewSet()) {
		t.Fatal("expected nil set to equal the empty set")
	}
}

func TestParseModuleKey(t *testing.T) {
	k := ParseModuleKey("Leads CRM.Create LEAD")
	if !k.IsCompound() || k.Parent() != "Leads CRM" || k.Section() != "Create LEAD" {
		t.Fatalf("unexpected key %#v", k)
	}
	if k := ParseModuleKey("tickets"); k.IsCompound() || k != Simple("tickets") {
		t.Fatalf("unexpected key %#v", k)
	}
	if k := ParseModuleKey("a.b.c"); k.Section() != "b.c" {
		t.Fatalf("expected split on first dot, got %#v", k)
	}
}
