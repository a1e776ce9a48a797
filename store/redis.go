package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goPerm/permission"
	"github.com/redis/go-redis/v9"
)

const (
	writeStatusNotFound int64 = 0
	writeStatusOK       int64 = 1
	writeStatusConflict int64 = 2
)

const createRoleScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 2
end
redis.call("HSET", KEYS[1], "data", ARGV[1], "version", 1)
redis.call("SADD", KEYS[2], ARGV[2])
return 1
`

var createRoleLua = redis.NewScript(createRoleScript)

const updateRoleScript = `
local current = redis.call("HGET", KEYS[1], "version")
if not current then
  return {0, 0}
end
current = tonumber(current)
local expected = tonumber(ARGV[1])
if expected > 0 and expected ~= current then
  return {2, current}
end
local next = redis.call("HINCRBY", KEYS[1], "version", 1)
redis.call("HSET", KEYS[1], "data", ARGV[2])
return {1, next}
`

var updateRoleLua = redis.NewScript(updateRoleScript)

const deleteRoleScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return existed
`

var deleteRoleLua = redis.NewScript(deleteRoleScript)

const assignUserScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("SET", KEYS[2], ARGV[1])
return 1
`

var assignUserLua = redis.NewScript(assignUserScript)

// RedisStore keeps each role in a hash ("data" holds the JSON record, "version"
// the counter) and indexes role IDs in a set.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore returns a store namespacing its keys under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "gp"
	}
	return &RedisStore{redis: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) roleKey(id string) string {
	return s.prefix + ":role:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":roles"
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + ":user:" + userID
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	fields, err := s.redis.HGetAll(ctx, s.roleKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decodeRoleHash(fields)
}

func (s *RedisStore) List(ctx context.Context) ([]Record, error) {
	ids, err := s.redis.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make([]Record, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.roleKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		// Deleted between SMEMBERS and HGETALL.
		if len(fields) == 0 {
			continue
		}
		rec, err := decodeRoleHash(fields)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	sortRecords(out)
	return out, nil
}

func (s *RedisStore) Create(ctx context.Context, rec Record) (*Record, error) {
	rec, err := prepareCreate(rec, s.now())
	if err != nil {
		return nil, err
	}
	data, err := encodeRoleData(rec)
	if err != nil {
		return nil, err
	}

	status, err := createRoleLua.Run(ctx, s.redis, []string{s.roleKey(rec.ID), s.indexKey()}, data, rec.ID).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status == writeStatusConflict {
		return nil, ErrAlreadyExists
	}
	return &rec, nil
}

func (s *RedisStore) Update(ctx context.Context, rec Record) (*Record, error) {
	rec, err := prepareUpdate(rec, s.now())
	if err != nil {
		return nil, err
	}
	data, err := encodeRoleData(rec)
	if err != nil {
		return nil, err
	}

	res, err := updateRoleLua.Run(ctx, s.redis, []string{s.roleKey(rec.ID)}, rec.Version, data).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("%w: unexpected update reply %v", ErrUnavailable, res)
	}

	switch res[0] {
	case writeStatusNotFound:
		return nil, ErrNotFound
	case writeStatusConflict:
		return nil, ErrVersionConflict
	}
	rec.Version = res[1]
	return &rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	existed, err := deleteRoleLua.Run(ctx, s.redis, []string{s.roleKey(id), s.indexKey()}, id).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if existed == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) AssignUser(ctx context.Context, userID, roleID string) error {
	if userID == "" {
		return errInvalid("user id is required")
	}
	ok, err := assignUserLua.Run(ctx, s.redis, []string{s.roleKey(roleID), s.userKey(userID)}, roleID).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ok != writeStatusOK {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) UserPermissions(ctx context.Context, userID string) ([]permission.Entry, error) {
	roleID, err := s.redis.Get(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	rec, err := s.Get(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return rec.Permissions, nil
}

// encodeRoleData marshals rec without its version; the hash field is authoritative.
func encodeRoleData(rec Record) (string, error) {
	rec.Version = 0
	if rec.Permissions == nil {
		rec.Permissions = []permission.Entry{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode role %q: %w", rec.ID, err)
	}
	return string(data), nil
}

func decodeRoleHash(fields map[string]string) (*Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(fields["data"]), &rec); err != nil {
		return nil, fmt.Errorf("%w: corrupt role data: %v", ErrUnavailable, err)
	}
	version, err := strconv.ParseInt(fields["version"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt role version: %v", ErrUnavailable, err)
	}
	rec.Version = version
	return &rec, nil
}
