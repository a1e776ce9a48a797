package store

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goPerm/permission"
)

// MemoryStore is a process-local [Store].
type MemoryStore struct {
	mu    sync.RWMutex
	roles map[string]Record
	users map[string]string
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles: make(map[string]Record),
		users: make(map[string]string),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec.clone()
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.roles))
	for _, rec := range s.roles {
		out = append(out, rec.clone())
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, rec Record) (*Record, error) {
	rec, err := prepareCreate(rec, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.roles[rec.ID]; exists {
		return nil, ErrAlreadyExists
	}
	s.roles[rec.ID] = rec
	out := rec.clone()
	return &out, nil
}

func (s *MemoryStore) Update(_ context.Context, rec Record) (*Record, error) {
	rec, err := prepareUpdate(rec, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.roles[rec.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Version > 0 && rec.Version != current.Version {
		return nil, ErrVersionConflict
	}
	rec.Version = current.Version + 1
	s.roles[rec.ID] = rec
	out := rec.clone()
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[id]; !ok {
		return ErrNotFound
	}
	delete(s.roles, id)
	return nil
}

func (s *MemoryStore) AssignUser(_ context.Context, userID, roleID string) error {
	if userID == "" {
		return errInvalid("user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[roleID]; !ok {
		return ErrNotFound
	}
	s.users[userID] = roleID
	return nil
}

func (s *MemoryStore) UserPermissions(_ context.Context, userID string) ([]permission.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roleID, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := s.roles[roleID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.clone().Permissions, nil
}
