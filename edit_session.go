package goPerm

import (
	"context"
	"sync"

	"github.com/MrEthical07/goPerm/internal/debounce"
	"github.com/MrEthical07/goPerm/permission"
	"go.uber.org/zap"
)

// Debounce keys. Each editable field has its own timer.
const (
	fieldPermissions = "permissions"
	fieldName        = "name"
	fieldParent      = "parent"
	fieldDescription = "description"
)

// EditSession owns one role's working copy while it is being edited. Edits
// apply immediately to the working copy and schedule a submission of the whole
// role once the edited field has been quiet for Config.Session.Debounce.
//
// Submissions are last-write-wins: the session sends no version, so
// concurrent sessions on the same role overwrite each other.
type EditSession struct {
	svc      *Service
	debounce *debounce.Debouncer

	// submitMu serializes submissions so responses apply in send order.
	submitMu sync.Mutex

	mu      sync.Mutex
	roleID  string
	name    string
	parent  string
	desc    string
	set     *permission.Set
	dirty   bool
	lastErr error
	closed  bool
	// actor is the identity recorded on audit events for this session.
	actor string
}

// OpenSession loads roleID and starts editing it.
func (s *Service) OpenSession(ctx context.Context, roleID string) (*EditSession, error) {
	rec, set, err := s.LoadRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	sess := s.newSession(ctx, RoleDraft{
		ID:          rec.ID,
		Name:        rec.Name,
		Parent:      rec.Parent,
		Description: rec.Description,
		Permissions: set,
	})
	return sess, nil
}

// NewSession starts editing draft. With an empty draft ID the first
// submission creates the role.
func (s *Service) NewSession(ctx context.Context, draft RoleDraft) *EditSession {
	return s.newSession(ctx, draft)
}

func (s *Service) newSession(ctx context.Context, draft RoleDraft) *EditSession {
	set := draft.Permissions
	if set == nil {
		set = permission.NewSet()
	}
	s.metrics.Inc(MetricSessionOpened)
	return &EditSession{
		svc:      s,
		debounce: debounce.New(s.config.Session.Debounce),
		roleID:   draft.ID,
		name:     draft.Name,
		parent:   draft.Parent,
		desc:     draft.Description,
		set:      permission.Normalize(set),
		actor:    actorFromContext(ctx),
	}
}

// RoleID returns the role identifier, empty until the first successful create.
func (e *EditSession) RoleID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roleID
}

// Set returns a copy of the working permission set.
func (e *EditSession) Set() *permission.Set {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set.Clone()
}

// Err returns the error of the most recent background submission, or nil
// once a later submission succeeded.
func (e *EditSession) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Pending reports whether edits are waiting for submission.
func (e *EditSession) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// ToggleAction applies one action toggle to the working copy.
func (e *EditSession) ToggleAction(key permission.ModuleKey, action permission.Action, granted bool) error {
	return e.edit(fieldPermissions, func(ctx context.Context) error {
		out, err := e.svc.toggleAction(ctx, e.roleID, e.set, key, action, granted)
		if err != nil {
			return err
		}
		e.set = out
		return nil
	})
}

// ToggleModule grants or revokes every catalog action of key on the working copy.
func (e *EditSession) ToggleModule(key permission.ModuleKey, granted bool) error {
	return e.edit(fieldPermissions, func(ctx context.Context) error {
		out, err := e.svc.toggleModule(ctx, e.roleID, e.set, key, granted)
		if err != nil {
			return err
		}
		e.set = out
		return nil
	})
}

// SetName changes the role name.
func (e *EditSession) SetName(name string) error {
	return e.edit(fieldName, func(context.Context) error {
		e.name = name
		return nil
	})
}

// SetParent changes the reporting-chain parent role.
func (e *EditSession) SetParent(parent string) error {
	return e.edit(fieldParent, func(context.Context) error {
		e.parent = parent
		return nil
	})
}

// SetDescription changes the role description.
func (e *EditSession) SetDescription(desc string) error {
	return e.edit(fieldDescription, func(context.Context) error {
		e.desc = desc
		return nil
	})
}

// edit runs apply under the session lock and, when it succeeds, restarts the
// debounce timer for field. A failed edit leaves the working copy and the
// timers untouched.
func (e *EditSession) edit(field string, apply func(ctx context.Context) error) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrSessionClosed
	}
	if err := apply(e.auditContext()); err != nil {
		e.mu.Unlock()
		return err
	}
	e.dirty = true
	e.mu.Unlock()

	e.debounce.Schedule(field, e.submitDebounced)
	return nil
}

func (e *EditSession) auditContext() context.Context {
	ctx := context.Background()
	if e.actor != "" {
		ctx = WithActor(ctx, e.actor)
	}
	return ctx
}

func (e *EditSession) submitDebounced() {
	e.svc.metrics.Inc(MetricDebouncedSubmit)
	ctx, cancel := context.WithTimeout(e.auditContext(), e.svc.config.Session.SubmitTimeout)
	defer cancel()
	if err := e.submit(ctx); err != nil {
		e.svc.logger.Warn("debounced role submission failed",
			zap.String("role_id", e.RoleID()),
			zap.Error(err),
		)
	}
}

// Flush cancels pending timers and submits the role now if it has unsent
// edits. It returns the submission error, if any.
func (e *EditSession) Flush(ctx context.Context) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	for _, key := range e.debounce.Pending() {
		e.debounce.Cancel(key)
	}
	if e.actor != "" && actorFromContext(ctx) == "" {
		ctx = WithActor(ctx, e.actor)
	}
	return e.submit(ctx)
}

func (e *EditSession) submit(ctx context.Context) error {
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	e.mu.Lock()
	if !e.dirty {
		e.mu.Unlock()
		return nil
	}
	draft := RoleDraft{
		ID:          e.roleID,
		Name:        e.name,
		Parent:      e.parent,
		Description: e.desc,
		Permissions: e.set.Clone(),
	}
	e.dirty = false
	e.mu.Unlock()

	rec, set, err := e.svc.SubmitRole(ctx, draft)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.lastErr = err
		e.dirty = true
		return err
	}
	e.lastErr = nil
	e.roleID = rec.ID
	// Edits made while the request was in flight win over the response.
	if !e.dirty {
		e.set = set
		e.name = rec.Name
		e.parent = rec.Parent
		e.desc = rec.Description
	}
	return nil
}

// Close abandons the session. Pending submissions are cancelled without
// being sent; a submission already running completes before Close returns.
func (e *EditSession) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.debounce.Close()
	e.svc.metrics.Inc(MetricSessionClosed)
}
