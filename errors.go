package goPerm

import "errors"

var (
	// ErrCriticalGrantBlocked is returned by SubmitRole when the role grants
	// delete on a critical module and Validation.BlockOnCritical is set.
	ErrCriticalGrantBlocked = errors.New("critical permission grant blocked")
	// ErrRoleIDRequired is returned when an operation needs a role identifier.
	ErrRoleIDRequired = errors.New("role id required")
	// ErrUserIDRequired is returned when an operation needs a user identifier.
	ErrUserIDRequired = errors.New("user id required")
	// ErrSessionClosed is returned by EditSession operations after Close.
	ErrSessionClosed = errors.New("edit session closed")
	// ErrServiceClosed is returned by submissions after Service.Close.
	ErrServiceClosed = errors.New("service closed")
)
