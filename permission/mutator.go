package permission

const (
	opToggleAction = "toggle_action"
	opToggleModule = "toggle_module"
)

// Change describes the effect of one toggle beyond the requested action.
type Change struct {
	Module  ModuleKey
	Action  Action
	Granted bool
	// Escalated is set when granting delete also granted show.
	Escalated bool
	// SuperAdminCleared is set when a toggle on a regular module removed SuperAdmin.
	SuperAdminCleared bool
}

// Mutator applies single toggles to a [Set] against a catalog. Its methods never
// modify their input: on success they return a new set, on failure nil.
type Mutator struct {
	catalog *Catalog
}

// NewMutator returns a mutator checking toggles against catalog.
func NewMutator(catalog *Catalog) *Mutator {
	return &Mutator{catalog: catalog}
}

// ToggleAction grants or revokes one action on key.
//
// Granting anything on [SuperAdminKey] yields the SuperAdmin singleton; revoking
// it yields the empty set. Toggling any other module first drops SuperAdmin.
// Granting delete on a module whose vocabulary includes show grants show too.
// Revoking never removes the module key.
func (m *Mutator) ToggleAction(s *Set, key ModuleKey, action Action, granted bool) (*Set, error) {
	out, _, err := m.ToggleActionDetailed(s, key, action, granted)
	return out, err
}

// ToggleActionDetailed is [Mutator.ToggleAction] also reporting what changed.
func (m *Mutator) ToggleActionDetailed(s *Set, key ModuleKey, action Action, granted bool) (*Set, Change, error) {
	change := Change{Module: key, Action: action, Granted: granted}
	if key == SuperAdminKey {
		return toggleSuperAdmin(s, granted), change, nil
	}

	vocabulary, err := m.catalog.ActionsFor(key)
	if err != nil {
		return nil, change, &MutationError{Op: opToggleAction, Module: key, Action: action, Err: ErrUnknownModule}
	}
	if action != ActionWildcard && !containsAction(vocabulary, action) {
		return nil, change, &MutationError{Op: opToggleAction, Module: key, Action: action, Err: ErrActionNotInCatalog}
	}

	out, cleared := m.editable(s)
	change.SuperAdminCleared = cleared

	current := out.modules[key]
	next := make([]Action, 0, len(current)+2)
	if granted {
		next = append(next, current...)
		next = append(next, action)
		if action == ActionDelete && containsAction(vocabulary, ActionShow) && !containsAction(current, ActionShow) {
			next = append(next, ActionShow)
			change.Escalated = true
		}
	} else {
		for _, a := range current {
			if a != action {
				next = append(next, a)
			}
		}
	}

	out.put(key, NormalizeActions(next))
	return out, change, nil
}

// ToggleModule grants the full catalog vocabulary of key, or sets it to an
// explicit empty list.
func (m *Mutator) ToggleModule(s *Set, key ModuleKey, granted bool) (*Set, error) {
	if key == SuperAdminKey {
		return toggleSuperAdmin(s, granted), nil
	}

	vocabulary, err := m.catalog.ActionsFor(key)
	if err != nil {
		return nil, &MutationError{Op: opToggleModule, Module: key, Err: ErrUnknownModule}
	}

	out, _ := m.editable(s)
	if granted {
		out.put(key, NormalizeActions(vocabulary))
	} else {
		out.put(key, []Action{})
	}
	return out, nil
}

// editable returns a copy of s that can take regular module grants.
func (m *Mutator) editable(s *Set) (*Set, bool) {
	if s.IsSuperAdmin() {
		return NewSet(), true
	}
	return s.Clone(), false
}

func toggleSuperAdmin(s *Set, granted bool) *Set {
	if granted {
		return SuperAdminSet()
	}
	if s.IsSuperAdmin() {
		return NewSet()
	}
	return s.Clone()
}
