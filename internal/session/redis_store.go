package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	callKeyPrefix      = "rental:call:"
	callScanPattern    = callKeyPrefix + "*"
	callScanBatchCount = 100

	defaultSessionTTL = 2 * time.Hour
)

// RedisStore persists sessions as JSON documents that expire after ttl without updates.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (s *RedisStore) Get(ctx context.Context, callID string) (*Record, error) {
	data, err := s.client.Get(ctx, callKey(callID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCallNotFound
		}

		s.log.Error("failed to get session from redis", "call_id", callID, "error", err)
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Error("failed to decode session", "call_id", callID, "error", err)
		return nil, err
	}

	return &rec, nil
}

func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		s.log.Error("failed to encode session", "call_id", rec.CallID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, callKey(rec.CallID), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save session in redis", "call_id", rec.CallID, "error", err)
		return err
	}

	return nil
}

func (s *RedisStore) Delete(ctx context.Context, callID string) error {
	if err := s.client.Del(ctx, callKey(callID)).Err(); err != nil {
		s.log.Error("failed to delete session", "call_id", callID, "error", err)
		return err
	}

	return nil
}

// List scans every stored session. Records that fail to decode are skipped.
func (s *RedisStore) List(ctx context.Context) ([]*Record, error) {
	var (
		cursor uint64
		result []*Record
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, callScanPattern, callScanBatchCount).Result()
		if err != nil {
			s.log.Error("failed to scan sessions", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.Error("failed to fetch session", "key", key, "error", err)
				return nil, err
			}

			var rec Record
			if err := json.Unmarshal(data, &rec); err != nil {
				s.log.Warn("skipping undecodable session", "key", key, "error", err)
				continue
			}
			result = append(result, &rec)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func callKey(callID string) string {
	return callKeyPrefix + callID
}
