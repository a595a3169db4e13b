package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mcp "github.com/inference-tools/mcpserve"
	"github.com/redis/go-redis/v9"
)

// RedisStore is an alternate Session Store backend for deployments that
// run several persistent HTTP server replicas behind a load balancer,
// where a single process's in-memory map (store.MemoryStore) cannot be
// shared.
//
// Updates use WATCH/MULTI to get the same read-modify-write serializability
// the file store gets from an exclusive lock: a concurrent writer that
// raced ahead aborts our transaction and Update returns an error rather
// than clobber its write.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client; keys are stored under prefix
// (e.g. "mcp:session:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) Create(record mcp.SessionRecord) error {
	ctx := context.Background()
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding session record: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(record.SessionID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("creating session in redis: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s already exists", record.SessionID)
	}
	return nil
}

func (s *RedisStore) Read(sessionID string) (mcp.SessionRecord, bool, error) {
	ctx := context.Background()
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return mcp.SessionRecord{}, false, nil
	}
	if err != nil {
		return mcp.SessionRecord{}, false, fmt.Errorf("reading session from redis: %w", err)
	}
	var record mcp.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil || !recordValid(&record) {
		return mcp.SessionRecord{}, false, nil
	}
	return record, true, nil
}

func (s *RedisStore) Update(sessionID string, newStatus mcp.SessionStatus, now int64) (mcp.SessionStatus, bool, error) {
	ctx := context.Background()
	var prior mcp.SessionStatus
	var ok bool

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, s.key(sessionID)).Bytes()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		var record mcp.SessionRecord
		if err := json.Unmarshal(data, &record); err != nil || !recordValid(&record) {
			return nil
		}
		prior = record.Status
		record.Status = newStatus
		if newStatus == mcp.StatusClosed {
			record.ClosedAt = now
		}
		newData, err := json.Marshal(record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, s.key(sessionID), newData, 0)
			return nil
		})
		if err == nil {
			ok = true
		}
		return err
	}

	err := s.client.Watch(ctx, txf, s.key(sessionID))
	if err != nil {
		return "", false, fmt.Errorf("updating session in redis: %w", err)
	}
	return prior, ok, nil
}

func (s *RedisStore) List() ([]string, error) {
	ctx := context.Background()
	var ids []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing sessions in redis: %w", err)
	}
	return ids, nil
}

func (s *RedisStore) Reap(now int64, maxUptime, initTimeout int64) error {
	ids, err := s.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		record, ok, err := s.Read(id)
		if err != nil || !ok {
			continue
		}
		switch {
		case record.OpenedAt < now-2*maxUptime:
			s.client.Del(context.Background(), s.key(id))
		case record.Status == mcp.StatusInitializing && record.OpenedAt < now-initTimeout:
			s.client.Del(context.Background(), s.key(id))
		case record.Status != mcp.StatusClosed && record.OpenedAt < now-maxUptime:
			s.Update(id, mcp.StatusClosed, now)
		}
	}
	return nil
}

// DialTimeout is the default dial timeout cmd/mcpserve uses when building
// the redis.Client passed to NewRedisStore.
const DialTimeout = 5 * time.Second
