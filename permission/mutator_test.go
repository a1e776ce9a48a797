package permission

import (
	"errors"
	"reflect"
	"testing"
)

func newTestMutator() *Mutator {
	return NewMutator(DefaultCatalog())
}

func mustActions(t *testing.T, s *Set, key string) []Action {
	t.Helper()
	actions, ok := s.Actions(ParseModuleKey(key))
	if !ok {
		t.Fatalf("module %q missing from %s", key, s)
	}
	return actions
}

func TestToggleActionDeleteAutoGrantsShow(t *testing.T) {
	m := newTestMutator()

	got, change, err := m.ToggleActionDetailed(NewSet(), Simple("tickets"), ActionDelete, true)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if want := []Action{ActionShow, ActionDelete}; !reflect.DeepEqual(mustActions(t, got, "tickets"), want) {
		t.Fatalf("expected %v, got %v", want, mustActions(t, got, "tickets"))
	}
	if !change.Escalated {
		t.Fatal("expected escalation to be reported")
	}
}

func TestToggleActionDeleteNoEscalationWhenShowPresent(t *testing.T) {
	m := newTestMutator()
	start := SetOf(Module("tickets", ActionShow))

	_, change, err := m.ToggleActionDetailed(start, Simple("tickets"), ActionDelete, true)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if change.Escalated {
		t.Fatal("show was already granted")
	}
}

func TestToggleActionDeleteWithoutShowInVocabulary(t *testing.T) {
	catalog := NewCatalog()
	if err := catalog.Register(ModuleSpec{Key: Simple("archive"), Actions: []Action{ActionOwn, ActionDelete}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	catalog.Freeze()

	got, err := NewMutator(catalog).ToggleAction(NewSet(), Simple("archive"), ActionDelete, true)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if want := []Action{ActionDelete}; !reflect.DeepEqual(mustActions(t, got, "archive"), want) {
		t.Fatalf("expected %v, got %v", want, mustActions(t, got, "archive"))
	}
}

func TestToggleActionRevokeDelete(t *testing.T) {
	m := newTestMutator()
	start := SetOf(Module("tickets", ActionShow, ActionDelete))

	got, err := m.ToggleAction(start, Simple("tickets"), ActionDelete, false)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if want := []Action{ActionShow}; !reflect.DeepEqual(mustActions(t, got, "tickets"), want) {
		t.Fatalf("expected %v, got %v", want, mustActions(t, got, "tickets"))
	}
	if orig := mustActions(t, start, "tickets"); len(orig) != 2 {
		t.Fatalf("input was modified: %v", orig)
	}
}

func TestToggleActionRevokeLastKeepsModule(t *testing.T) {
	m := newTestMutator()
	start := SetOf(Module("tickets", ActionShow))

	got, err := m.ToggleAction(start, Simple("tickets"), ActionShow, false)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	actions := mustActions(t, got, "tickets")
	if actions == nil || len(actions) != 0 {
		t.Fatalf("expected explicit empty list, got %#v", actions)
	}

	entries := NewCodec(DefaultCatalog()).Encode(got)
	if len(entries) != 1 || entries[0].Page != "tickets" || !entries[0].Actions.IsList() || len(entries[0].Actions.Actions()) != 0 {
		t.Fatalf("expected tickets: [], got %+v", entries)
	}
}

func TestToggleActionRevokeOnAbsentModuleCreatesEmpty(t *testing.T) {
	got, err := newTestMutator().ToggleAction(NewSet(), Simple("leaves"), ActionShow, false)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !got.Has(Simple("leaves")) {
		t.Fatal("expected explicit revoke to create the module")
	}
}

func TestToggleActionSuperAdminAbsorbs(t *testing.T) {
	m := newTestMutator()
	starts := []*Set{
		NewSet(),
		SetOf(Module("tickets", ActionShow, ActionDelete), Module("Leads CRM.Create LEAD", ActionAdd)),
		SuperAdminSet(),
	}

	for _, start := range starts {
		got, err := m.ToggleAction(start, SuperAdminKey, ActionWildcard, true)
		if err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if !got.IsSuperAdmin() || got.Len() != 0 {
			t.Fatalf("expected SuperAdmin singleton, got %s", got)
		}
		entries := NewCodec(DefaultCatalog()).Encode(got)
		if len(entries) != 1 || !entries[0].IsSuperAdmin() {
			t.Fatalf("expected single wildcard entry, got %+v", entries)
		}
	}
}

func TestToggleActionClearsSuperAdmin(t *testing.T) {
	m := newTestMutator()

	admin, err := m.ToggleAction(NewSet(), SuperAdminKey, ActionWildcard, true)
	if err != nil {
		t.Fatalf("grant SuperAdmin: %v", err)
	}
	got, change, err := m.ToggleActionDetailed(admin, Simple("tickets"), ActionShow, true)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if got.IsSuperAdmin() {
		t.Fatal("expected SuperAdmin to be removed")
	}
	if !change.SuperAdminCleared {
		t.Fatal("expected SuperAdminCleared")
	}
	if !got.Equal(SetOf(Module("tickets", ActionShow))) {
		t.Fatalf("expected {tickets:[show]}, got %s", got)
	}
}

func TestToggleActionRevokeSuperAdmin(t *testing.T) {
	got, err := newTestMutator().ToggleAction(SuperAdminSet(), SuperAdminKey, ActionWildcard, false)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if got.IsSuperAdmin() || got.Len() != 0 {
		t.Fatalf("expected empty set, got %s", got)
	}
}

func TestToggleActionRejectsOutsideVocabulary(t *testing.T) {
	m := newTestMutator()
	start := SetOf(Module("dashboard", ActionShow))

	got, err := m.ToggleAction(start, Simple("dashboard"), ActionDelete, true)
	if !errors.Is(err, ErrActionNotInCatalog) {
		t.Fatalf("expected ErrActionNotInCatalog, got %v", err)
	}
	if got != nil {
		t.Fatal("expected no result on failure")
	}

	var mErr *MutationError
	if !errors.As(err, &mErr) || mErr.Module != Simple("dashboard") || mErr.Action != ActionDelete {
		t.Fatalf("expected MutationError with context, got %#v", err)
	}
}

func TestToggleActionUnknownModule(t *testing.T) {
	_, err := newTestMutator().ToggleAction(NewSet(), Simple("spaceships"), ActionShow, true)
	if !errors.Is(err, ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
}

func TestToggleActionWildcardAccepted(t *testing.T) {
	got, err := newTestMutator().ToggleAction(NewSet(), Simple("tickets"), ActionWildcard, true)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !got.Grants(Simple("tickets"), ActionDelete) {
		t.Fatal("expected wildcard to grant delete")
	}
}

func TestToggleModule(t *testing.T) {
	m := newTestMutator()
	catalog := DefaultCatalog()
	key := Compound("Leads CRM", "Create LEAD")

	all, err := m.ToggleModule(NewSet(), key, true)
	if err != nil {
		t.Fatalf("grant module: %v", err)
	}
	vocabulary, _ := catalog.ActionsFor(key)
	if want := NormalizeActions(vocabulary); !reflect.DeepEqual(mustActions(t, all, key.String()), want) {
		t.Fatalf("expected %v, got %v", want, mustActions(t, all, key.String()))
	}

	none, err := m.ToggleModule(all, key, false)
	if err != nil {
		t.Fatalf("revoke module: %v", err)
	}
	if actions := mustActions(t, none, key.String()); len(actions) != 0 {
		t.Fatalf("expected empty list, got %v", actions)
	}
}

func TestToggleModuleUnknown(t *testing.T) {
	_, err := newTestMutator().ToggleModule(NewSet(), Compound("Leads CRM", "Nope"), true)
	if !errors.Is(err, ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
}
