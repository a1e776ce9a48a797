package permission

import "strings"

// ModuleKey names a module. A simple key ("tickets") has no section; a compound
// key ("Leads CRM.Create LEAD") namespaces a section under a parent module.
// Keys are comparable and used directly as map keys.
type ModuleKey struct {
	parent  string
	section string
}

// SuperAdminKey is the sentinel module whose grant overrides every other entry.
var SuperAdminKey = Simple("SuperAdmin")

// Simple returns a key without a section.
func Simple(name string) ModuleKey {
	return ModuleKey{parent: name}
}

// Compound returns a Parent.Section key.
func Compound(parent, section string) ModuleKey {
	return ModuleKey{parent: parent, section: section}
}

// ParseModuleKey splits s on its first '.' into a compound key, or returns a
// simple key when s has no '.'.
func ParseModuleKey(s string) ModuleKey {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return Compound(s[:i], s[i+1:])
	}
	return Simple(s)
}

// IsCompound reports whether k carries a section.
func (k ModuleKey) IsCompound() bool { return k.section != "" }

// IsZero reports whether k is the empty key.
func (k ModuleKey) IsZero() bool { return k.parent == "" && k.section == "" }

// Parent returns the parent segment of a compound key, or the name of a simple key.
func (k ModuleKey) Parent() string { return k.parent }

// Section returns the section of a compound key and "" for simple keys.
func (k ModuleKey) Section() string { return k.section }

func (k ModuleKey) String() string {
	if k.section == "" {
		return k.parent
	}
	return k.parent + "." + k.section
}

// MarshalText writes the human-facing form so keys can be used as JSON object keys.
func (k ModuleKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ModuleKey) UnmarshalText(b []byte) error {
	*k = ParseModuleKey(string(b))
	return nil
}
