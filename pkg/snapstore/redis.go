package snapstore

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/mvoltz/tether/pkg/errors"
)

const (
	redisKeyPrefix = "tether:snap:"
	redisIndexKey  = "tether:snaps"
)

// RedisStore persists snapshots in Redis. Each snapshot lives under its
// own key as a JSON envelope; a set of IDs serves as the listing index.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at the given address (host:port) and
// verifies the connection with a ping.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", addr)
	}
	return &RedisStore{client: client}, nil
}

// Put stores a snapshot and adds its ID to the listing index.
func (r *RedisStore) Put(ctx context.Context, s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+s.ID, data, 0)
	pipe.SAdd(ctx, redisIndexKey, s.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "store snapshot %s", s.ID)
	}
	return nil
}

// Get retrieves a snapshot by ID.
func (r *RedisStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, errNotFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load snapshot %s", id)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode snapshot %s", id)
	}
	return &s, nil
}

// List returns metadata for every snapshot in the index, newest first.
// Index entries whose key has vanished are dropped silently.
func (r *RedisStore) List(ctx context.Context) ([]Info, error) {
	ids, err := r.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}
	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, s.Info())
	}
	sortInfos(infos)
	return infos, nil
}

// Delete removes a snapshot and its index entry.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete snapshot %s", id)
	}
	if n == 0 {
		return errNotFound(id)
	}
	return r.client.SRem(ctx, redisIndexKey, id).Err()
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ Store = (*RedisStore)(nil)
