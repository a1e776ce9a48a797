package permission

import (
	"fmt"
	"strings"
	"sync"
)

// LegacyLeadsPage is the page of the synthetic aggregate entry written for
// clients that predate compound keys. It is also the alias whose compound
// modules feed that aggregate.
const LegacyLeadsPage = "leads"

// ModuleSpec describes one registered module.
type ModuleSpec struct {
	Key     ModuleKey
	Label   string
	Actions []Action
	// Critical modules raise an elevated warning whenever delete is granted.
	Critical bool
	// ReadOnly modules should never grant delete; the audit report flags it as an error.
	ReadOnly bool
}

// Catalog maps module keys to the action vocabulary each accepts. It is built
// once at startup, frozen, and read concurrently afterwards.
type Catalog struct {
	mu      sync.RWMutex
	version string
	order   []ModuleKey
	modules map[ModuleKey]ModuleSpec
	aliases map[string]string
	pages   map[string]ModuleKey
	frozen  bool
}

// NewCatalog returns an empty, unfrozen catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		modules: make(map[ModuleKey]ModuleSpec),
		aliases: make(map[string]string),
		pages:   make(map[string]ModuleKey),
	}
}

// Register adds a module. Must be called before [Catalog.Freeze].
func (c *Catalog) Register(spec ModuleSpec) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return ErrCatalogFrozen
	}
	if err := checkSpec(spec); err != nil {
		return err
	}
	if _, exists := c.modules[spec.Key]; exists {
		return fmt.Errorf("%w: %q already registered", ErrInvalidModuleSpec, spec.Key.String())
	}

	page := pageName(spec.Key, c.aliasLocked(spec.Key.Parent()))
	if page == LegacyLeadsPage {
		return fmt.Errorf("%w: %q collides with the legacy aggregate page", ErrInvalidModuleSpec, spec.Key.String())
	}
	if other, taken := c.pages[page]; taken {
		return fmt.Errorf("%w: %q and %q share page %q", ErrInvalidModuleSpec, other.String(), spec.Key.String(), page)
	}

	spec.Actions = append([]Action(nil), spec.Actions...)
	c.modules[spec.Key] = spec
	c.order = append(c.order, spec.Key)
	c.pages[page] = spec.Key
	return nil
}

// RegisterAlias sets the wire alias used for compound modules under parent,
// e.g. "Leads CRM" → "leads". Must be called before [Catalog.Freeze].
func (c *Catalog) RegisterAlias(parent, alias string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return ErrCatalogFrozen
	}
	parent = strings.TrimSpace(parent)
	alias = strings.ToLower(strings.TrimSpace(alias))
	if parent == "" || alias == "" || strings.ContainsAny(alias, ". ") {
		return fmt.Errorf("%w: alias %q → %q", ErrInvalidModuleSpec, parent, alias)
	}

	prev, had := c.aliases[parent]
	c.aliases[parent] = alias
	if err := c.reindexLocked(); err != nil {
		if had {
			c.aliases[parent] = prev
		} else {
			delete(c.aliases, parent)
		}
		return err
	}
	return nil
}

// Freeze prevents further registrations.
func (c *Catalog) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// Frozen reports whether [Catalog.Freeze] was called.
func (c *Catalog) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// Version returns the configuration version the catalog was loaded from.
func (c *Catalog) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// ActionsFor returns the action vocabulary of key in catalog order.
func (c *Catalog) ActionsFor(key ModuleKey) ([]Action, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	spec, ok := c.modules[key]
	if !ok {
		return nil, &ModuleError{Module: key, Err: ErrUnknownModule}
	}
	return append([]Action(nil), spec.Actions...), nil
}

// Spec returns the registration of key.
func (c *Catalog) Spec(key ModuleKey) (ModuleSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	spec, ok := c.modules[key]
	if !ok {
		return ModuleSpec{}, false
	}
	spec.Actions = append([]Action(nil), spec.Actions...)
	return spec, true
}

// Known reports whether key is registered.
func (c *Catalog) Known(key ModuleKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.modules[key]
	return ok
}

// Supports reports whether key accepts action. The wildcard is accepted by
// every registered module.
func (c *Catalog) Supports(key ModuleKey, action Action) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	spec, ok := c.modules[key]
	if !ok {
		return false
	}
	return action == ActionWildcard || containsAction(spec.Actions, action)
}

// IsSuperAdminCapable reports whether the SuperAdmin override may be granted.
// It always is.
func (c *Catalog) IsSuperAdminCapable() bool { return true }

// CriticalModules returns the modules singled out for elevated delete warnings.
func (c *Catalog) CriticalModules() []ModuleKey {
	return c.filter(func(s ModuleSpec) bool { return s.Critical })
}

// DeleteCapableModules returns every module whose vocabulary includes delete.
func (c *Catalog) DeleteCapableModules() []ModuleKey {
	return c.filter(func(s ModuleSpec) bool { return containsAction(s.Actions, ActionDelete) })
}

func (c *Catalog) IsCritical(key ModuleKey) bool {
	spec, ok := c.Spec(key)
	return ok && spec.Critical
}

func (c *Catalog) IsReadOnly(key ModuleKey) bool {
	spec, ok := c.Spec(key)
	return ok && spec.ReadOnly
}

// Modules returns all registrations in registration order.
func (c *Catalog) Modules() []ModuleSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ModuleSpec, 0, len(c.order))
	for _, k := range c.order {
		spec := c.modules[k]
		spec.Actions = append([]Action(nil), spec.Actions...)
		out = append(out, spec)
	}
	return out
}

// AliasOf returns the wire alias registered for a compound parent.
func (c *Catalog) AliasOf(parent string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	alias, ok := c.aliases[parent]
	return alias, ok
}

// PageFor returns the wire page name of key. Unregistered parents fall back to
// their lowercased name.
func (c *Catalog) PageFor(key ModuleKey) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return pageName(key, c.aliasLocked(key.Parent()))
}

// KeyForPage resolves a wire page back to its registered module key.
func (c *Catalog) KeyForPage(page string) (ModuleKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.pages[page]
	return key, ok
}

// parentForAlias returns the registered parent for a wire alias.
func (c *Catalog) parentForAlias(alias string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for parent, a := range c.aliases {
		if a == alias {
			return parent, true
		}
	}
	return "", false
}

func (c *Catalog) filter(keep func(ModuleSpec) bool) []ModuleKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []ModuleKey
	for _, k := range c.order {
		if keep(c.modules[k]) {
			out = append(out, k)
		}
	}
	return out
}

func (c *Catalog) aliasLocked(parent string) string {
	if alias, ok := c.aliases[parent]; ok {
		return alias
	}
	return strings.ToLower(parent)
}

func (c *Catalog) reindexLocked() error {
	pages := make(map[string]ModuleKey, len(c.order))
	for _, k := range c.order {
		page := pageName(k, c.aliasLocked(k.Parent()))
		if other, taken := pages[page]; taken {
			return fmt.Errorf("%w: %q and %q share page %q", ErrInvalidModuleSpec, other.String(), k.String(), page)
		}
		pages[page] = k
	}
	c.pages = pages
	return nil
}

func checkSpec(spec ModuleSpec) error {
	key := spec.Key
	switch {
	case key.IsZero():
		return fmt.Errorf("%w: empty module key", ErrInvalidModuleSpec)
	case key == SuperAdminKey:
		return fmt.Errorf("%w: SuperAdmin is not a catalog module", ErrInvalidModuleSpec)
	case strings.Contains(key.Parent(), "."):
		return fmt.Errorf("%w: %q: parent must not contain '.'", ErrInvalidModuleSpec, key.String())
	case key.Parent() == "" || (key.IsCompound() && strings.TrimSpace(key.Section()) == ""):
		return fmt.Errorf("%w: %q: empty segment", ErrInvalidModuleSpec, key.String())
	case len(spec.Actions) == 0:
		return fmt.Errorf("%w: %q has no actions", ErrInvalidModuleSpec, key.String())
	}

	seen := make(map[Action]struct{}, len(spec.Actions))
	for _, a := range spec.Actions {
		if a == "" || a == ActionWildcard {
			return fmt.Errorf("%w: %q: invalid action %q", ErrInvalidModuleSpec, key.String(), a)
		}
		if _, dup := seen[a]; dup {
			return fmt.Errorf("%w: %q: duplicate action %q", ErrInvalidModuleSpec, key.String(), a)
		}
		seen[a] = struct{}{}
	}
	return nil
}
