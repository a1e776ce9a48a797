package store

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/MrEthical07/goPerm/permission"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a role or user assignment does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when an update carries a stale version.
	ErrVersionConflict = errors.New("version conflict")
	// ErrAlreadyExists is returned when creating a role with an ID already in use.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidRecord is returned for records without a name, or updates without an ID.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("store unavailable")
)

// Record is a stored role.
type Record struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Parent      string             `json:"parent,omitempty"`
	Description string             `json:"description,omitempty"`
	Permissions []permission.Entry `json:"permissions"`
	// Version starts at 1 and increments on every update. On Update, zero
	// skips the optimistic check.
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence collaborator of the permission service.
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	// List returns all roles ordered by name, then ID.
	List(ctx context.Context) ([]Record, error)
	// Create assigns an ID when empty and stores the role at version 1.
	Create(ctx context.Context, rec Record) (*Record, error)
	Update(ctx context.Context, rec Record) (*Record, error)
	Delete(ctx context.Context, id string) error
	// AssignUser sets the role of userID. The role must exist.
	AssignUser(ctx context.Context, userID, roleID string) error
	// UserPermissions returns the entries of the role assigned to userID.
	UserPermissions(ctx context.Context, userID string) ([]permission.Entry, error)
}

func (r Record) clone() Record {
	r.Permissions = append(make([]permission.Entry, 0, len(r.Permissions)), r.Permissions...)
	return r
}

func prepareCreate(rec Record, now time.Time) (Record, error) {
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return Record{}, errInvalid("name is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec = rec.clone()
	rec.Version = 1
	rec.UpdatedAt = now.UTC()
	return rec, nil
}

func prepareUpdate(rec Record, now time.Time) (Record, error) {
	rec.Name = strings.TrimSpace(rec.Name)
	switch {
	case rec.ID == "":
		return Record{}, errInvalid("id is required")
	case rec.Name == "":
		return Record{}, errInvalid("name is required")
	case rec.Version < 0:
		return Record{}, errInvalid("version must not be negative")
	}
	rec = rec.clone()
	rec.UpdatedAt = now.UTC()
	return rec, nil
}

func errInvalid(reason string) error {
	return &invalidError{reason: reason}
}

type invalidError struct{ reason string }

func (e *invalidError) Error() string { return ErrInvalidRecord.Error() + ": " + e.reason }
func (e *invalidError) Unwrap() error { return ErrInvalidRecord }

func sortRecords(out []Record) {
	slices.SortFunc(out, func(a, b Record) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
