package goPerm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goPerm/internal/audit"
	"github.com/MrEthical07/goPerm/permission"
	"github.com/MrEthical07/goPerm/report"
	"github.com/MrEthical07/goPerm/store"
	"go.uber.org/zap"
)

// Service composes the catalog, the pure permission transformations and the
// persistence collaborator. It holds no permission state of its own.
//
// Service is safe for concurrent use after [Builder.Build].
type Service struct {
	config    Config
	catalog   *permission.Catalog
	codec     *permission.Codec
	mutator   *permission.Mutator
	validator *permission.Validator
	store     store.Store
	logger    *zap.Logger
	metrics   *Metrics
	audit     *audit.Dispatcher
	closed    atomic.Bool
}

// RoleDraft is a role as edited, before encoding. An empty ID creates a new
// role. Version zero updates without an optimistic check.
type RoleDraft struct {
	ID          string
	Name        string
	Parent      string
	Description string
	Permissions *permission.Set
	Version     int64
}

// Catalog returns the module catalog the service validates against.
func (s *Service) Catalog() *permission.Catalog { return s.catalog }

// Codec returns the wire codec bound to the service catalog.
func (s *Service) Codec() *permission.Codec { return s.codec }

// Store returns the persistence collaborator.
func (s *Service) Store() store.Store { return s.store }

// Logger returns the service logger.
func (s *Service) Logger() *zap.Logger { return s.logger }

// Normalize returns the canonical form of set.
func (s *Service) Normalize(set *permission.Set) *permission.Set {
	return permission.Normalize(set)
}

// ToggleAction describes the toggleaction operation and its observable behavior.
//
// ToggleAction returns a new set; set is never modified. Errors wrap
// permission.ErrUnknownModule or permission.ErrActionNotInCatalog.
func (s *Service) ToggleAction(ctx context.Context, set *permission.Set, key permission.ModuleKey, action permission.Action, granted bool) (*permission.Set, error) {
	return s.toggleAction(ctx, "", set, key, action, granted)
}

// ToggleModule describes the togglemodule operation and its observable behavior.
//
// Granting sets the full catalog vocabulary of key; revoking leaves it empty.
func (s *Service) ToggleModule(ctx context.Context, set *permission.Set, key permission.ModuleKey, granted bool) (*permission.Set, error) {
	return s.toggleModule(ctx, "", set, key, granted)
}

func (s *Service) toggleAction(ctx context.Context, roleID string, set *permission.Set, key permission.ModuleKey, action permission.Action, granted bool) (*permission.Set, error) {
	out, change, err := s.mutator.ToggleActionDetailed(set, key, action, granted)
	if err != nil {
		s.metrics.Inc(MetricMutationRejected)
		eventType := auditEventPermissionRevoked
		if granted {
			eventType = auditEventPermissionGranted
		}
		s.emitAudit(ctx, eventType, false, roleID, key.String(), string(action), err, nil)
		return nil, err
	}

	switch {
	case key == permission.SuperAdminKey && granted:
		s.metrics.Inc(MetricSuperAdminGranted)
		s.emitAudit(ctx, auditEventSuperAdminGranted, true, roleID, key.String(), string(action), nil, nil)
		return out, nil
	case granted:
		s.metrics.Inc(MetricActionGranted)
		s.emitAudit(ctx, auditEventPermissionGranted, true, roleID, key.String(), string(action), nil, nil)
	default:
		s.metrics.Inc(MetricActionRevoked)
		s.emitAudit(ctx, auditEventPermissionRevoked, true, roleID, key.String(), string(action), nil, nil)
	}

	if change.SuperAdminCleared {
		s.metrics.Inc(MetricSuperAdminCleared)
	}
	if change.Escalated {
		s.metrics.Inc(MetricDeleteEscalated)
		s.emitAudit(ctx, auditEventDeleteEscalated, true, roleID, key.String(), string(permission.ActionShow), nil, nil)
	}
	return out, nil
}

func (s *Service) toggleModule(ctx context.Context, roleID string, set *permission.Set, key permission.ModuleKey, granted bool) (*permission.Set, error) {
	out, err := s.mutator.ToggleModule(set, key, granted)
	if err != nil {
		s.metrics.Inc(MetricMutationRejected)
		s.emitAudit(ctx, auditEventModuleToggled, false, roleID, key.String(), "", err, nil)
		return nil, err
	}

	if key == permission.SuperAdminKey && granted {
		s.metrics.Inc(MetricSuperAdminGranted)
		s.emitAudit(ctx, auditEventSuperAdminGranted, true, roleID, key.String(), "", nil, nil)
		return out, nil
	}

	s.metrics.Inc(MetricModuleToggled)
	s.emitAudit(ctx, auditEventModuleToggled, true, roleID, key.String(), "", nil, func() map[string]string {
		return map[string]string{"granted": strconv.FormatBool(granted)}
	})
	return out, nil
}

// Validate describes the validate operation and its observable behavior.
//
// Validate accumulates every finding for set; it never stops at the first.
func (s *Service) Validate(set *permission.Set) permission.Report {
	start := time.Now()
	r := s.validator.Validate(set)
	s.observeReport(r, time.Since(start))
	return r
}

// ValidateEntries validates a wire document without decoding it first, so
// malformed shapes are reported instead of aborting.
func (s *Service) ValidateEntries(entries []permission.Entry) permission.Report {
	start := time.Now()
	r := s.validator.ValidateEntries(entries)
	s.observeReport(r, time.Since(start))
	return r
}

// ValidateDocument validates the editable JSON shape, e.g. {"tickets":["show"]}.
func (s *Service) ValidateDocument(data []byte) permission.Report {
	start := time.Now()
	r := s.validator.ValidateDocument(data)
	s.observeReport(r, time.Since(start))
	return r
}

func (s *Service) observeReport(r permission.Report, elapsed time.Duration) {
	s.metrics.Observe(MetricValidateLatency, elapsed)
	if !r.OK() {
		s.metrics.Inc(MetricValidationError)
	}
	if len(r.Warnings) > 0 {
		s.metrics.Inc(MetricValidationWarning)
	}
	if r.Has(permission.CodeCriticalDelete) {
		s.metrics.Inc(MetricCriticalGrant)
	}
}

// Encode returns the wire form of set, including the legacy aggregate entry.
func (s *Service) Encode(set *permission.Set) []permission.Entry {
	return s.codec.Encode(set)
}

// Decode describes the decode operation and its observable behavior.
//
// Decode fails with a *permission.EntryError wrapping permission.ErrMalformedEntry.
func (s *Service) Decode(entries []permission.Entry) (*permission.Set, error) {
	set, err := s.codec.Decode(entries)
	if err != nil {
		s.metrics.Inc(MetricDecodeFailure)
		return nil, err
	}
	return set, nil
}

// LoadRole fetches a stored role and decodes its permissions.
func (s *Service) LoadRole(ctx context.Context, id string) (*store.Record, *permission.Set, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil, ErrRoleIDRequired
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	set, err := s.Decode(rec.Permissions)
	if err != nil {
		s.logger.Warn("stored role does not decode", zap.String("role_id", id), zap.Error(err))
		return nil, nil, err
	}
	return rec, set, nil
}

// LoadUserPermissions returns the decoded permissions of the role assigned to userID.
func (s *Service) LoadUserPermissions(ctx context.Context, userID string) (*permission.Set, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	entries, err := s.store.UserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Decode(entries)
}

// SubmitRole describes the submitrole operation and its observable behavior.
//
// The draft is normalized, validated and encoded, then created (empty ID) or
// updated. Validation errors fail with a *permission.ValidationError and
// nothing is stored. On success the stored record and the decoded form of the
// stored permissions are returned; callers replace their working set with it.
func (s *Service) SubmitRole(ctx context.Context, draft RoleDraft) (*store.Record, *permission.Set, error) {
	if s.closed.Load() {
		return nil, nil, ErrServiceClosed
	}
	start := time.Now()
	defer func() {
		s.metrics.Observe(MetricSubmitLatency, time.Since(start))
	}()

	set := permission.Normalize(draft.Permissions)
	r := s.Validate(set)
	if err := s.blocking(r); err != nil {
		s.metrics.Inc(MetricSubmitRejected)
		s.emitAudit(ctx, auditEventRoleSubmitRejected, false, draft.ID, "", "", err, func() map[string]string {
			return map[string]string{"errors": strconv.Itoa(len(r.Errors))}
		})
		return nil, nil, err
	}

	rec := store.Record{
		ID:          draft.ID,
		Name:        draft.Name,
		Parent:      draft.Parent,
		Description: draft.Description,
		Permissions: s.codec.Encode(set),
		Version:     draft.Version,
	}

	var (
		saved *store.Record
		err   error
	)
	if rec.ID == "" {
		saved, err = s.store.Create(ctx, rec)
	} else {
		saved, err = s.store.Update(ctx, rec)
	}
	if err != nil {
		s.metrics.Inc(MetricSubmitFailure)
		s.emitAudit(ctx, auditEventRoleSubmitted, false, draft.ID, "", "", err, nil)
		s.logger.Warn("role submission failed", zap.String("role_id", draft.ID), zap.Error(err))
		return nil, nil, err
	}

	decoded, err := s.Decode(saved.Permissions)
	if err != nil {
		s.metrics.Inc(MetricSubmitFailure)
		return nil, nil, fmt.Errorf("decode stored role %s: %w", saved.ID, err)
	}

	s.metrics.Inc(MetricSubmitSuccess)
	s.emitAudit(ctx, auditEventRoleSubmitted, true, saved.ID, "", "", nil, func() map[string]string {
		return map[string]string{
			"version":  strconv.FormatInt(saved.Version, 10),
			"warnings": strconv.Itoa(len(r.Warnings)),
		}
	})
	return saved, decoded, nil
}

func (s *Service) blocking(r permission.Report) error {
	if err := r.Err(); err != nil {
		return err
	}
	if !s.config.Validation.BlockOnCritical {
		return nil
	}
	var modules []string
	for _, d := range r.Warnings {
		if d.Severity == permission.SeverityCritical {
			modules = append(modules, d.Module.String())
		}
	}
	if len(modules) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrCriticalGrantBlocked, strings.Join(modules, ", "))
}

// AuditRoles runs the report generator over every stored role.
func (s *Service) AuditRoles(ctx context.Context) (report.Summary, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return report.Summary{}, err
	}

	wire := make([]report.WireRole, 0, len(records))
	for _, rec := range records {
		wire = append(wire, report.WireRole{
			ID:          rec.ID,
			Name:        rec.Name,
			Parent:      rec.Parent,
			Permissions: rec.Permissions,
		})
	}

	sum := report.GenerateFromWire(s.catalog, wire)
	s.metrics.Inc(MetricAuditRun)
	s.emitAudit(ctx, auditEventRoleAudit, true, "", "", "", nil, func() map[string]string {
		return map[string]string{
			"roles":    strconv.Itoa(sum.TotalRoles),
			"errors":   strconv.Itoa(sum.Count(report.LevelError)),
			"warnings": strconv.Itoa(sum.Count(report.LevelWarning)),
		}
	})
	s.logger.Info("role audit generated",
		zap.Int("roles", sum.TotalRoles),
		zap.Int("findings", len(sum.Findings)),
	)
	return sum, nil
}

// MetricsSnapshot returns a point-in-time copy of the service counters.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (s *Service) AuditDropped() uint64 {
	return s.audit.Dropped()
}

// Close stops the audit dispatcher after draining it. Sessions must be closed
// by their owners first; later submissions fail with ErrServiceClosed.
func (s *Service) Close() {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.audit.Close()
}
