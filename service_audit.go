package goPerm

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goPerm/permission"
	"github.com/MrEthical07/goPerm/store"
)

const (
	auditEventPermissionGranted  = "permission_granted"
	auditEventPermissionRevoked  = "permission_revoked"
	auditEventModuleToggled      = "module_toggled"
	auditEventSuperAdminGranted  = "superadmin_granted"
	auditEventDeleteEscalated    = "delete_escalated"
	auditEventRoleSubmitted      = "role_submitted"
	auditEventRoleSubmitRejected = "role_submit_rejected"
	auditEventRoleAudit          = "role_audit"
)

// AuditErrorCode is the stable error classification carried in AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrUnknownModule    AuditErrorCode = "unknown_module"
	auditErrActionNotAllowed AuditErrorCode = "action_not_in_catalog"
	auditErrMalformedEntry   AuditErrorCode = "malformed_entry"
	auditErrValidation       AuditErrorCode = "validation_failed"
	auditErrCriticalBlocked  AuditErrorCode = "critical_grant_blocked"
	auditErrNotFound         AuditErrorCode = "not_found"
	auditErrVersionConflict  AuditErrorCode = "version_conflict"
	auditErrInvalidRecord    AuditErrorCode = "invalid_record"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrCanceled         AuditErrorCode = "canceled"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (s *Service) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	roleID string,
	module string,
	action string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if s == nil || s.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Actor:     actorFromContext(ctx),
		RoleID:    roleID,
		Module:    module,
		Action:    action,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	s.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, permission.ErrUnknownModule):
		return auditErrUnknownModule
	case errors.Is(err, permission.ErrActionNotInCatalog):
		return auditErrActionNotAllowed
	case errors.Is(err, permission.ErrMalformedEntry):
		return auditErrMalformedEntry
	case errors.Is(err, ErrCriticalGrantBlocked):
		return auditErrCriticalBlocked
	case errors.Is(err, permission.ErrValidationFailed):
		return auditErrValidation
	case errors.Is(err, store.ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, store.ErrVersionConflict):
		return auditErrVersionConflict
	case errors.Is(err, store.ErrInvalidRecord),
		errors.Is(err, store.ErrAlreadyExists):
		return auditErrInvalidRecord
	case errors.Is(err, store.ErrUnavailable):
		return auditErrUnavailable
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
