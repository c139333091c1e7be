package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codrutul/roster/internal/domain/model"
)

const backendRedis = "redis"

// RedisStore keeps one JSON document per character and a list of ids for ordering.
//
// Keys:
//
//	<prefix>:character:<id>  character document
//	<prefix>:characters      ids in insertion order
//	<prefix>:session:<id>    game session document
type RedisStore struct {
	settings
	client redis.UniversalClient
}

var _ Backend = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	if client == nil {
		panic("redis client is required")
	}
	return &RedisStore{settings: newSettings(opts), client: client}
}

// Name returns the backend name.
func (r *RedisStore) Name() string { return backendRedis }

func (r *RedisStore) characterKey(id string) string {
	return fmt.Sprintf("%s:character:%s", r.keyPrefix, id)
}

func (r *RedisStore) orderKey() string {
	return r.keyPrefix + ":characters"
}

func (r *RedisStore) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", r.keyPrefix, id)
}

// Create implements Store.
func (r *RedisStore) Create(ctx context.Context, in model.CharacterInput) (c model.Character, err error) {
	start := time.Now()
	defer func() { observe(backendRedis, "create", start, err) }()

	now := r.now()
	c = model.Character{ID: r.newID(), CharacterInput: in, CreatedAt: now, UpdatedAt: now}
	data, err := json.Marshal(c)
	if err != nil {
		return model.Character{}, fmt.Errorf("failed to serialize character: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.characterKey(c.ID), string(data), 0)
	pipe.RPush(ctx, r.orderKey(), c.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return model.Character{}, fmt.Errorf("create character: %w: %w", ErrBackend, err)
	}
	return c, nil
}

// List implements Store. Ids whose document has vanished are skipped.
func (r *RedisStore) List(ctx context.Context) (out []model.Character, err error) {
	start := time.Now()
	defer func() { observe(backendRedis, "list", start, err) }()

	ids, err := r.client.LRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list characters: %w: %w", ErrBackend, err)
	}
	out = make([]model.Character, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.characterKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list characters: %w: %w", ErrBackend, err)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var c model.Character
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("failed to deserialize character %s: %w", ids[i], err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, id string) (model.Character, error) {
	data, err := r.client.Get(ctx, r.characterKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Character{}, fmt.Errorf("get character %s: %w", id, ErrNotFound)
		}
		return model.Character{}, fmt.Errorf("get character %s: %w: %w", id, ErrBackend, err)
	}
	var c model.Character
	if err := json.Unmarshal(data, &c); err != nil {
		return model.Character{}, fmt.Errorf("failed to deserialize character %s: %w", id, err)
	}
	return c, nil
}

// Update implements Store. The write only lands if the document still exists.
func (r *RedisStore) Update(ctx context.Context, id string, in model.CharacterInput) (c model.Character, err error) {
	start := time.Now()
	defer func() { observe(backendRedis, "update", start, err) }()

	existing, err := r.Get(ctx, id)
	if err != nil {
		return model.Character{}, fmt.Errorf("update: %w", err)
	}
	c = model.Character{ID: id, CharacterInput: in, CreatedAt: existing.CreatedAt, UpdatedAt: r.now()}
	data, err := json.Marshal(c)
	if err != nil {
		return model.Character{}, fmt.Errorf("failed to serialize character: %w", err)
	}

	ok, err := r.client.SetXX(ctx, r.characterKey(id), string(data), 0).Result()
	if err != nil {
		return model.Character{}, fmt.Errorf("update character %s: %w: %w", id, ErrBackend, err)
	}
	if !ok {
		return model.Character{}, fmt.Errorf("update character %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { observe(backendRedis, "delete", start, err) }()

	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.characterKey(id))
	pipe.LRem(ctx, r.orderKey(), 0, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete character %s: %w: %w", id, ErrBackend, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("delete character %s: %w", id, ErrNotFound)
	}
	return nil
}

// Count implements Store.
func (r *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, r.orderKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count characters: %w: %w", ErrBackend, err)
	}
	return int(n), nil
}

// CreateSession implements SessionStore.
func (r *RedisStore) CreateSession(ctx context.Context, gs model.GameSession) (model.GameSession, error) {
	gs.ID = r.newID()
	gs.CreatedAt = r.now()
	data, err := json.Marshal(gs)
	if err != nil {
		return model.GameSession{}, fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := r.client.Set(ctx, r.sessionKey(gs.ID), string(data), 0).Err(); err != nil {
		return model.GameSession{}, fmt.Errorf("create session: %w: %w", ErrBackend, err)
	}
	return gs, nil
}

// GetSession implements SessionStore.
func (r *RedisStore) GetSession(ctx context.Context, id string) (model.GameSession, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.GameSession{}, fmt.Errorf("get session %s: %w", id, ErrNotFound)
		}
		return model.GameSession{}, fmt.Errorf("get session %s: %w: %w", id, ErrBackend, err)
	}
	var gs model.GameSession
	if err := json.Unmarshal(data, &gs); err != nil {
		return model.GameSession{}, fmt.Errorf("failed to deserialize session: %w", err)
	}
	return gs, nil
}

// Close implements Store.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
