package calls

import (
	"context"
	"fmt"
	"time"

	"amd-webhook/internal/webhook"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "amd:call:"

// RedisStore keeps one hash per call. Only non-empty fields are written, so
// HSET itself performs the merge.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(callSID string) string { return redisKeyPrefix + callSID }

func (r *RedisStore) Put(ctx context.Context, s State) error {
	if s.CallSID == "" {
		return fmt.Errorf("calls: call sid required")
	}
	key := redisKey(s.CallSID)
	fields := map[string]any{"call_sid": s.CallSID}
	if s.CallStatus != "" {
		fields["call_status"] = s.CallStatus
	}
	if s.AnsweredBy != "" {
		fields["answered_by"] = s.AnsweredBy
	}
	if s.AMDDurationMS != "" {
		fields["amd_duration_ms"] = s.AMDDurationMS
	}
	if s.RecordingURL != "" {
		fields["recording_url"] = s.RecordingURL
	}
	if s.LastType != "" {
		fields["last_type"] = string(s.LastType)
	}
	if !s.UpdatedAt.IsZero() {
		fields["updated_at"] = s.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("calls: redis put: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, callSID string) (State, error) {
	vals, err := r.rdb.HGetAll(ctx, redisKey(callSID)).Result()
	if err != nil {
		return State{}, fmt.Errorf("calls: redis get: %w", err)
	}
	if len(vals) == 0 {
		return State{}, ErrNotFound
	}
	return stateFromHash(vals), nil
}

func stateFromHash(vals map[string]string) State {
	s := State{
		CallSID:       vals["call_sid"],
		CallStatus:    vals["call_status"],
		AnsweredBy:    vals["answered_by"],
		AMDDurationMS: vals["amd_duration_ms"],
		RecordingURL:  vals["recording_url"],
		LastType:      webhook.Type(vals["last_type"]),
	}
	if ts, err := time.Parse(time.RFC3339Nano, vals["updated_at"]); err == nil {
		s.UpdatedAt = ts
	}
	return s
}
