package permission

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownModule is returned when a module key is not registered in the catalog.
	ErrUnknownModule = errors.New("unknown module")
	// ErrActionNotInCatalog is returned when an action is outside a module's vocabulary.
	ErrActionNotInCatalog = errors.New("action not in catalog")
	// ErrMalformedEntry is returned when a wire entry cannot be decoded.
	ErrMalformedEntry = errors.New("malformed permission entry")
	// ErrCatalogFrozen is returned when registering into a frozen catalog.
	ErrCatalogFrozen = errors.New("catalog frozen")
	// ErrInvalidModuleSpec is returned when a module registration is rejected.
	ErrInvalidModuleSpec = errors.New("invalid module spec")
	// ErrValidationFailed is wrapped by [ValidationError].
	ErrValidationFailed = errors.New("permission validation failed")
)

// ModuleError reports a catalog lookup failure for a specific module.
type ModuleError struct {
	Module ModuleKey
	Err    error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Module.String())
}

func (e *ModuleError) Unwrap() error { return e.Err }

// MutationError carries the module and action a toggle was rejected for.
type MutationError struct {
	Op     string
	Module ModuleKey
	Action Action
	Err    error
}

func (e *MutationError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Module.String(), e.Err)
	}
	return fmt.Sprintf("%s %q action %q: %v", e.Op, e.Module.String(), e.Action, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// EntryError identifies the wire entry that failed to decode.
type EntryError struct {
	Index  int
	Page   string
	Reason string
	Err    error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %d (page %q): %s: %v", e.Index, e.Page, e.Reason, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// ValidationError collects the blocking diagnostics of a [Report].
type ValidationError struct {
	Diagnostics []Diagnostic
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		parts = append(parts, d.String())
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
