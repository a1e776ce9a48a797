package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goPerm/permission"
)

// Placeholders are $n and appear in ascending order in every statement, which
// both lib/pq and go-sqlite3 bind positionally.
const (
	createRolesTable = `CREATE TABLE IF NOT EXISTS perm_roles (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	parent      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	permissions TEXT NOT NULL,
	version     BIGINT NOT NULL,
	updated_at  BIGINT NOT NULL
)`
	createUserRolesTable = `CREATE TABLE IF NOT EXISTS perm_user_roles (
	user_id TEXT PRIMARY KEY,
	role_id TEXT NOT NULL
)`

	selectRoleColumns = `SELECT id, name, parent, description, permissions, version, updated_at FROM perm_roles`

	insertRole = `INSERT INTO perm_roles (id, name, parent, description, permissions, version, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	updateRole = `UPDATE perm_roles
SET name = $1, parent = $2, description = $3, permissions = $4, version = version + 1, updated_at = $5
WHERE id = $6 AND ($7 = 0 OR version = $7)`
	deleteRole = `DELETE FROM perm_roles WHERE id = $1`
	upsertUser = `INSERT INTO perm_user_roles (user_id, role_id) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET role_id = excluded.role_id`
	selectUserRole = `SELECT r.permissions FROM perm_user_roles u
JOIN perm_roles r ON r.id = u.role_id
WHERE u.user_id = $1`
)

// SQLStore is a [Store] over database/sql. The caller opens the *sql.DB with
// the driver of its choice ("postgres" or "sqlite3").
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLStore wraps db. Call [SQLStore.EnsureSchema] before first use.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// EnsureSchema creates the role and assignment tables if missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createRolesTable, createUserRolesTable} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure schema: %v", ErrUnavailable, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec       Record
		perms     string
		updatedAt int64
	)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Parent, &rec.Description, &perms, &rec.Version, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal([]byte(perms), &rec.Permissions); err != nil {
		return nil, fmt.Errorf("%w: corrupt permissions for role %q: %v", ErrUnavailable, rec.ID, err)
	}
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &rec, nil
}

func encodeEntries(entries []permission.Entry) (string, error) {
	if entries == nil {
		entries = []permission.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode permissions: %w", err)
	}
	return string(data), nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Record, error) {
	return scanRecord(s.db.QueryRowContext(ctx, selectRoleColumns+` WHERE id = $1`, id))
}

func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRoleColumns+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// Collation differs between drivers.
	sortRecords(out)
	return out, nil
}

func (s *SQLStore) Create(ctx context.Context, rec Record) (*Record, error) {
	rec, err := prepareCreate(rec, s.now())
	if err != nil {
		return nil, err
	}
	perms, err := encodeEntries(rec.Permissions)
	if err != nil {
		return nil, err
	}
	// Millisecond precision is what the column keeps.
	rec.UpdatedAt = rec.UpdatedAt.Truncate(time.Millisecond)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM perm_roles WHERE id = $1`, rec.ID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if exists > 0 {
		return nil, ErrAlreadyExists
	}

	_, err = tx.ExecContext(ctx, insertRole,
		rec.ID, rec.Name, rec.Parent, rec.Description, perms, rec.Version, rec.UpdatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &rec, nil
}

func (s *SQLStore) Update(ctx context.Context, rec Record) (*Record, error) {
	rec, err := prepareUpdate(rec, s.now())
	if err != nil {
		return nil, err
	}
	perms, err := encodeEntries(rec.Permissions)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, updateRole,
		rec.Name, rec.Parent, rec.Description, perms, rec.UpdatedAt.UnixMilli(), rec.ID, rec.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out, err := scanRecord(tx.QueryRowContext(ctx, selectRoleColumns+` WHERE id = $1`, rec.ID))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrVersionConflict
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, deleteRole, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) AssignUser(ctx context.Context, userID, roleID string) error {
	if userID == "" {
		return errInvalid("user id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM perm_roles WHERE id = $1`, roleID).Scan(&exists); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, upsertUser, userID, roleID); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLStore) UserPermissions(ctx context.Context, userID string) ([]permission.Entry, error) {
	var perms string
	err := s.db.QueryRowContext(ctx, selectUserRole, userID).Scan(&perms)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var entries []permission.Entry
	if err := json.Unmarshal([]byte(perms), &entries); err != nil {
		return nil, fmt.Errorf("%w: corrupt permissions for user %q: %v", ErrUnavailable, userID, err)
	}
	return entries, nil
}
