package permission

import (
	"strings"
)

// Codec translates between the editable [Set] and the flat wire format.
//
// Encode never drops a module: empty lists are written as [], and compound
// parents without a registered alias fall back to their lowercased name.
// Decode drops the legacy "leads" aggregate, so decode(encode(x)) equals x
// after normalization but not entry-for-entry.
type Codec struct {
	catalog *Catalog
}

// NewCodec returns a codec resolving page names through catalog.
func NewCodec(catalog *Catalog) *Codec {
	return &Codec{catalog: catalog}
}

// PageName returns the wire page for key.
func (c *Codec) PageName(key ModuleKey) string {
	return c.catalog.PageFor(key)
}

// Encode returns the wire entries for s. A SuperAdmin set encodes to the
// single {"page":"*","actions":"*"} entry.
func (c *Codec) Encode(s *Set) []Entry {
	if s.IsSuperAdmin() {
		return []Entry{SuperAdminEntry()}
	}

	s = Normalize(s)
	entries := make([]Entry, 0, s.Len()+1)
	var legacy []Action

	for _, key := range s.Keys() {
		actions := s.modules[key]
		entries = append(entries, Entry{Page: c.PageName(key), Actions: encodeGrant(actions)})

		if key.IsCompound() && c.aliasFor(key.Parent()) == LegacyLeadsPage {
			legacy = append(legacy, actions...)
		}
	}

	// Written only when non-empty: older consumers never expected an empty aggregate.
	if union := NormalizeActions(legacy); len(union) > 0 {
		entries = append(entries, Entry{Page: LegacyLeadsPage, Actions: List(union...)})
	}
	return entries
}

// Decode rebuilds a set from wire entries. It fails on the first entry without
// a page or with actions that are not a list, and on a "*" page that does not
// carry "*" actions. Repeated pages are merged.
func (c *Codec) Decode(entries []Entry) (*Set, error) {
	out := NewSet()
	superAdmin := false

	for i, e := range entries {
		if e.Page == "" {
			return nil, &EntryError{Index: i, Page: e.Page, Reason: "missing page", Err: ErrMalformedEntry}
		}
		if e.Page == string(ActionWildcard) {
			if !e.Actions.IsWildcard() {
				return nil, &EntryError{Index: i, Page: e.Page, Reason: "wildcard page requires wildcard actions", Err: ErrMalformedEntry}
			}
			superAdmin = true
			continue
		}
		if dot := strings.IndexByte(e.Page, '.'); dot == 0 || dot == len(e.Page)-1 {
			return nil, &EntryError{Index: i, Page: e.Page, Reason: "empty page segment", Err: ErrMalformedEntry}
		}
		if e.Page == LegacyLeadsPage {
			if !e.Actions.IsList() && !e.Actions.IsWildcard() {
				return nil, &EntryError{Index: i, Page: e.Page, Reason: "actions is not a list", Err: ErrMalformedEntry}
			}
			continue
		}

		var actions []Action
		switch {
		case e.Actions.IsWildcard():
			actions = []Action{ActionWildcard}
		case e.Actions.IsList():
			actions = e.Actions.Actions()
		case !e.Actions.IsSet():
			return nil, &EntryError{Index: i, Page: e.Page, Reason: "missing actions", Err: ErrMalformedEntry}
		default:
			return nil, &EntryError{Index: i, Page: e.Page, Reason: "actions is not a list: " + e.Actions.Raw(), Err: ErrMalformedEntry}
		}

		key := c.KeyForPage(e.Page)
		if prev, ok := out.modules[key]; ok {
			actions = append(prev, actions...)
		}
		out.put(key, actions)
	}

	if superAdmin {
		return SuperAdminSet(), nil
	}
	return Normalize(out), nil
}

// KeyForPage resolves a page through the catalog, falling back to a verbatim
// key for pages the catalog does not know.
func (c *Codec) KeyForPage(page string) ModuleKey {
	if key, ok := c.catalog.KeyForPage(page); ok {
		return key
	}
	i := strings.IndexByte(page, '.')
	if i < 0 {
		return Simple(page)
	}
	parent, section := page[:i], page[i+1:]
	if p, ok := c.catalog.parentForAlias(parent); ok {
		parent = p
	}
	return Compound(parent, section)
}

func (c *Codec) aliasFor(parent string) string {
	if alias, ok := c.catalog.AliasOf(parent); ok {
		return alias
	}
	return strings.ToLower(parent)
}

func encodeGrant(actions []Action) Grant {
	if len(actions) == 1 && actions[0] == ActionWildcard {
		return Wildcard()
	}
	return List(actions...)
}

// pageName applies the wire naming rule: simple keys are written verbatim;
// compound keys become alias + "." + the lowercased section with " & " and
// spaces replaced by underscores.
func pageName(key ModuleKey, parentAlias string) string {
	if !key.IsCompound() {
		return key.Parent()
	}
	section := strings.ToLower(key.Section())
	section = strings.ReplaceAll(section, " & ", "_")
	section = strings.ReplaceAll(section, " ", "_")
	return strings.ToLower(parentAlias) + "." + section
}
