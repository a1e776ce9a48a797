package permission

// Action is a permitted operation within a module.
type Action string

const (
	ActionShow     Action = "show"
	ActionOwn      Action = "own"
	ActionJunior   Action = "junior"
	ActionAll      Action = "all"
	ActionSettings Action = "settings"
	ActionDelete   Action = "delete"

	ActionAdd      Action = "add"
	ActionEdit     Action = "edit"
	ActionSend     Action = "send"
	ActionExport   Action = "export"
	ActionPassword Action = "password"
	ActionRole     Action = "role"

	// ActionWildcard grants every action of a module. It is accepted by every module.
	ActionWildcard Action = "*"
)

// CanonicalOrder is the priority order actions are sorted into. Actions outside
// this list sort after it, keeping their relative input order.
var CanonicalOrder = []Action{
	ActionShow,
	ActionOwn,
	ActionJunior,
	ActionAll,
	ActionSettings,
	ActionDelete,
}

var canonicalRank = func() map[Action]int {
	m := make(map[Action]int, len(CanonicalOrder))
	for i, a := range CanonicalOrder {
		m[a] = i
	}
	return m
}()

// viewActions qualify a delete grant; a delete without one of them cannot be used.
var viewActions = []Action{ActionShow, ActionOwn, ActionJunior, ActionAll}

// sensitiveActions are flagged wherever they are granted.
var sensitiveActions = []Action{ActionPassword, ActionRole}

func containsAction(list []Action, a Action) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func containsAny(list []Action, candidates []Action) bool {
	for _, c := range candidates {
		if containsAction(list, c) {
			return true
		}
	}
	return false
}
