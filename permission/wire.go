package permission

import (
	"bytes"
	"encoding/json"
)

type grantKind uint8

const (
	grantUnset grantKind = iota
	grantWildcard
	grantList
	grantMalformed
)

// Grant is the actions value of a wire entry: either the wildcard "*" or a list
// of actions. Decoding JSON never fails; values of any other shape are kept as
// malformed so validation can report them with context.
type Grant struct {
	kind    grantKind
	actions []Action
	raw     json.RawMessage
}

// Wildcard returns the "*" grant.
func Wildcard() Grant {
	return Grant{kind: grantWildcard}
}

// List returns a list grant. A nil or empty list is an explicit empty grant.
func List(actions ...Action) Grant {
	return Grant{kind: grantList, actions: append(make([]Action, 0, len(actions)), actions...)}
}

// IsWildcard reports whether g is "*".
func (g Grant) IsWildcard() bool { return g.kind == grantWildcard }

// IsList reports whether g is a list of actions.
func (g Grant) IsList() bool { return g.kind == grantList }

// IsSet reports whether the actions field was present and non-null.
func (g Grant) IsSet() bool { return g.kind != grantUnset }

// IsMalformed reports whether the decoded value was neither "*" nor a string list.
func (g Grant) IsMalformed() bool { return g.kind == grantMalformed }

// Actions returns a copy of the listed actions; nil for non-list grants.
func (g Grant) Actions() []Action {
	if g.kind != grantList {
		return nil
	}
	return append([]Action{}, g.actions...)
}

// Raw returns the original JSON of a malformed grant.
func (g Grant) Raw() string { return string(g.raw) }

func (g Grant) MarshalJSON() ([]byte, error) {
	switch g.kind {
	case grantWildcard:
		return []byte(`"*"`), nil
	case grantList:
		if len(g.actions) == 0 {
			return []byte(`[]`), nil
		}
		return json.Marshal(g.actions)
	case grantMalformed:
		return append([]byte(nil), g.raw...), nil
	default:
		return []byte(`null`), nil
	}
}

func (g *Grant) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*g = Grant{}
		return nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil && Action(s) == ActionWildcard {
			*g = Wildcard()
			return nil
		}
	case trimmed[0] == '[':
		if actions, ok := actionList(trimmed); ok {
			*g = List(actions...)
			return nil
		}
	}
	*g = Grant{kind: grantMalformed, raw: append(json.RawMessage(nil), trimmed...)}
	return nil
}

// Entry is the wire and storage shape of one module grant: {"page": ..., "actions": ...}.
type Entry struct {
	Page    string `json:"page"`
	Actions Grant  `json:"actions"`
}

// SuperAdminEntry is the single entry a SuperAdmin set encodes to.
func SuperAdminEntry() Entry {
	return Entry{Page: string(ActionWildcard), Actions: Wildcard()}
}

// IsSuperAdmin reports whether e is the wildcard page with wildcard actions.
func (e Entry) IsSuperAdmin() bool {
	return e.Page == string(ActionWildcard) && e.Actions.IsWildcard()
}
