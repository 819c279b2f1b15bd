package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/notesearch/internal/db"
)

// HGetAll returns all fields of a hash. A missing key yields db.ErrKeyNotFound.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	if len(m) == 0 {
		return nil, db.ErrKeyNotFound
	}
	return m, nil
}

// Del deletes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	cmd := s.b().Del().Key(key).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// hincrScript: KEYS[1]=hash, ARGV = now_millis, ttl_seconds, field1, by1, field2, by2, ...
// Replies with the new values followed by created_at.
var hincrScript = rueidis.NewLuaScript(`
redis.call('HSETNX', KEYS[1], '` + db.FieldCreatedAt + `', ARGV[1])
redis.call('HSET', KEYS[1], '` + db.FieldUpdatedAt + `', ARGV[1])
local out = {}
for i = 3, #ARGV, 2 do
  out[#out + 1] = redis.call('HINCRBY', KEYS[1], ARGV[i], ARGV[i + 1])
end
out[#out + 1] = tonumber(redis.call('HGET', KEYS[1], '` + db.FieldCreatedAt + `'))
local ttl = tonumber(ARGV[2])
if ttl > 0 and redis.call('TTL', KEYS[1]) < 0 then
  redis.call('EXPIRE', KEYS[1], ttl)
end
return out
`)

// HIncrAtomic runs all increments in a single Lua script so concurrent callers never interleave.
func (s *Store) HIncrAtomic(
	ctx context.Context, key string, now time.Time, ttl time.Duration, incrs ...db.HashIncr,
) (db.HashCounters, error) {
	if len(incrs) == 0 {
		return db.HashCounters{}, fmt.Errorf("at least one increment is required")
	}
	args := make([]string, 0, 2+2*len(incrs))
	args = append(args,
		strconv.FormatInt(now.UnixMilli(), 10),
		strconv.FormatInt(int64(ttl.Seconds()), 10),
	)
	for _, in := range incrs {
		args = append(args, in.Field, strconv.FormatInt(in.By, 10))
	}

	vals, err := hincrScript.Exec(ctx, s.client, []string{key}, args).AsIntSlice()
	if err != nil {
		return db.HashCounters{}, &db.Error{Op: db.OpHIncr, Err: err}
	}
	if len(vals) != len(incrs)+1 {
		return db.HashCounters{}, &db.Error{Op: db.OpHIncr, Err: fmt.Errorf("expected %d values, got %d", len(incrs)+1, len(vals))}
	}
	n := len(incrs)
	return db.HashCounters{Values: vals[:n], CreatedAt: time.UnixMilli(vals[n]).UTC()}, nil
}
