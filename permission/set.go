package permission

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Set is the editable permission state of a role: module keys mapped to ordered
// action lists, plus the SuperAdmin override. Insertion order of keys is kept so
// encoding is deterministic.
//
// A nil *Set reads as the empty set. Sets are values in spirit: every package
// operation returns a new Set and leaves its input untouched.
type Set struct {
	superAdmin bool
	order      []ModuleKey
	modules    map[ModuleKey][]Action
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{modules: make(map[ModuleKey][]Action)}
}

// SuperAdminSet returns the singleton SuperAdmin set.
func SuperAdminSet() *Set {
	s := NewSet()
	s.superAdmin = true
	return s
}

// ModuleActions pairs a module with its actions for building sets literally.
type ModuleActions struct {
	Key     ModuleKey
	Actions []Action
}

// Module returns a ModuleActions for the human-facing key ("tickets",
// "Leads CRM.Create LEAD").
func Module(key string, actions ...Action) ModuleActions {
	if actions == nil {
		actions = []Action{}
	}
	return ModuleActions{Key: ParseModuleKey(key), Actions: actions}
}

// SetOf builds a set from items in order. It does not normalize; a repeated
// key keeps its first position and its last action list.
func SetOf(items ...ModuleActions) *Set {
	s := NewSet()
	for _, item := range items {
		if item.Key == SuperAdminKey {
			return SuperAdminSet()
		}
		s.put(item.Key, item.Actions)
	}
	return s
}

// IsSuperAdmin reports whether the SuperAdmin override is present.
func (s *Set) IsSuperAdmin() bool {
	return s != nil && s.superAdmin
}

// Has reports whether key is configured, including with an empty list.
func (s *Set) Has(key ModuleKey) bool {
	if s == nil {
		return false
	}
	_, ok := s.modules[key]
	return ok
}

// Actions returns a copy of the actions granted on key. The boolean is false
// when the module was never configured.
func (s *Set) Actions(key ModuleKey) ([]Action, bool) {
	if s == nil {
		return nil, false
	}
	actions, ok := s.modules[key]
	if !ok {
		return nil, false
	}
	return append([]Action{}, actions...), true
}

// Keys returns configured module keys in insertion order.
func (s *Set) Keys() []ModuleKey {
	if s == nil {
		return nil
	}
	return append([]ModuleKey(nil), s.order...)
}

// Len returns the number of configured modules. SuperAdmin is not counted.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Grants reports whether action is effectively allowed on key, honoring the
// SuperAdmin override and module wildcards.
func (s *Set) Grants(key ModuleKey, action Action) bool {
	if s == nil {
		return false
	}
	if s.superAdmin {
		return true
	}
	actions := s.modules[key]
	return containsAction(actions, action) || containsAction(actions, ActionWildcard)
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	out := NewSet()
	if s == nil {
		return out
	}
	out.superAdmin = s.superAdmin
	for _, k := range s.order {
		out.put(k, s.modules[k])
	}
	return out
}

// Equal compares module presence and action order. Key order is ignored.
func (s *Set) Equal(other *Set) bool {
	if s.IsSuperAdmin() != other.IsSuperAdmin() || s.Len() != other.Len() {
		return false
	}
	if s == nil || other == nil {
		return true
	}
	for _, k := range s.order {
		b, ok := other.modules[k]
		if !ok {
			return false
		}
		a := s.modules[k]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

func (s *Set) String() string {
	b, err := s.MarshalJSON()
	if err != nil {
		return "<invalid set>"
	}
	return string(b)
}

// put stores a copy of actions under key, keeping an empty (non-nil) list.
func (s *Set) put(key ModuleKey, actions []Action) {
	if s.modules == nil {
		s.modules = make(map[ModuleKey][]Action)
	}
	if _, ok := s.modules[key]; !ok {
		s.order = append(s.order, key)
	}
	s.modules[key] = append(make([]Action, 0, len(actions)), actions...)
}

// MarshalJSON writes the editable shape, e.g. {"tickets":["show"]} or {"SuperAdmin":true}.
func (s *Set) MarshalJSON() ([]byte, error) {
	if s.IsSuperAdmin() {
		return []byte(`{"` + SuperAdminKey.String() + `":true}`), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k.String())
		if err != nil {
			return nil, err
		}
		list, err := json.Marshal(s.modules[k])
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(list)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the editable shape. Unlike [Validator.ValidateDocument]
// it fails on the first malformed value.
func (s *Set) UnmarshalJSON(data []byte) error {
	fields, err := parseDocument(data)
	if err != nil {
		return err
	}

	out := NewSet()
	for _, f := range fields {
		key := ParseModuleKey(f.Key)
		if key == SuperAdminKey {
			on, ok := superAdminValue(f.Raw)
			if !ok {
				return fmt.Errorf("%w: SuperAdmin value %s", ErrMalformedEntry, string(f.Raw))
			}
			if on {
				*s = *SuperAdminSet()
				return nil
			}
			continue
		}
		actions, ok := actionList(f.Raw)
		if !ok {
			return fmt.Errorf("%w: module %q actions %s", ErrMalformedEntry, f.Key, string(f.Raw))
		}
		out.put(key, actions)
	}
	*s = *out
	return nil
}

type docField struct {
	Key string
	Raw json.RawMessage
}

// parseDocument reads a JSON object keeping member order.
func parseDocument(data []byte) ([]docField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: document is not an object", ErrMalformedEntry)
	}

	var fields []docField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		fields = append(fields, docField{Key: key, Raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func superAdminValue(raw json.RawMessage) (on bool, ok bool) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil && Action(str) == ActionWildcard {
		return true, true
	}
	return false, false
}

// actionList accepts only a JSON array of strings. null is not a sequence.
func actionList(raw json.RawMessage) ([]Action, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var list []Action
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, false
	}
	if list == nil {
		list = []Action{}
	}
	return list, true
}
