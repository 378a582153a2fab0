package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"trackgen/api/internal/track"
)

const keyPrefix = "track:"

// CachedRepo puts a Redis read-through cache in front of Get. Tracks are
// immutable once created, so entries only expire. Cache failures fall back
// to the inner repo.
type CachedRepo struct {
	Repo
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewCachedRepo(inner Repo, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedRepo{Repo: inner, rdb: rdb, ttl: ttl, log: log}
}

// NewRedisClient builds a client from address settings and checks it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (c *CachedRepo) Insert(ctx context.Context, t track.Track) error {
	if err := c.Repo.Insert(ctx, t); err != nil {
		return err
	}
	c.put(ctx, t)
	return nil
}

func (c *CachedRepo) Get(ctx context.Context, id string) (track.Track, error) {
	b, err := c.rdb.Get(ctx, keyPrefix+id).Bytes()
	switch {
	case err == nil:
		var t track.Track
		if jerr := json.Unmarshal(b, &t); jerr == nil {
			return t, nil
		}
		c.log.Warn("dropping undecodable cache entry", zap.String("id", id))
		_ = c.rdb.Del(ctx, keyPrefix+id).Err()
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("track cache read failed", zap.String("id", id), zap.Error(err))
	}

	t, err := c.Repo.Get(ctx, id)
	if err != nil {
		return track.Track{}, err
	}
	c.put(ctx, t)
	return t, nil
}

func (c *CachedRepo) put(ctx context.Context, t track.Track) {
	b, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+t.ID, b, c.ttl).Err(); err != nil {
		c.log.Warn("track cache write failed", zap.String("id", t.ID), zap.Error(err))
	}
}

// Close closes the cache client and then the inner repo.
func (c *CachedRepo) Close(ctx context.Context) error {
	cerr := c.rdb.Close()
	if err := c.Repo.Close(ctx); err != nil {
		return err
	}
	return cerr
}
