package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"taskmanager/internal/dto"

	"github.com/redis/go-redis/v9"
)

const (
	keyGen  = "task:gen"
	keyTask = "task:id:"
	keyList = "task:list:"
	keyAll  = "task:*"
)

// TaskCache caches single tasks and list pages in Redis. Entries hold the
// wire representation so a hit needs no further mapping.
//
// Every entry lives under a generation number that writes bump. A reader
// that loaded a row before a write can only store it under the old
// generation, which no later reader looks at.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// Generation returns the current cache generation. Read it before loading
// from the store and pass it to the Get/Set calls for that load.
func (c *TaskCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyGen).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetTask returns the cached task, or ok=false on a miss.
func (c *TaskCache) GetTask(ctx context.Context, gen int64, id string) (dto.TaskResponse, bool, error) {
	var t dto.TaskResponse
	ok, err := c.get(ctx, taskKey(gen, id), &t)
	return t, ok, err
}

// SetTask stores a task under gen.
func (c *TaskCache) SetTask(ctx context.Context, gen int64, t dto.TaskResponse) error {
	return c.set(ctx, taskKey(gen, t.ID), t)
}

// GetPage returns a cached list page for the canonical query key.
func (c *TaskCache) GetPage(ctx context.Context, gen int64, key string) (dto.Page[dto.TaskResponse], bool, error) {
	var p dto.Page[dto.TaskResponse]
	ok, err := c.get(ctx, pageKey(gen, key), &p)
	return p, ok, err
}

// SetPage stores a list page under gen.
func (c *TaskCache) SetPage(ctx context.Context, gen int64, key string, p dto.Page[dto.TaskResponse]) error {
	return c.set(ctx, pageKey(gen, key), p)
}

// InvalidateAll starts a new generation and removes the entries of older
// ones (cache invalidation on write).
func (c *TaskCache) InvalidateAll(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, keyGen).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, keyAll, 100).Iterator()
	for iter.Next(ctx) {
		if iter.Val() == keyGen {
			continue
		}
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func taskKey(gen int64, id string) string {
	return keyTask + strconv.FormatInt(gen, 10) + ":" + id
}

func pageKey(gen int64, key string) string {
	return keyList + strconv.FormatInt(gen, 10) + ":" + key
}

func (c *TaskCache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TaskCache) set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
