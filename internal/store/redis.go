package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL of 0 keeps entries until externally deleted.
	TTL time.Duration
}

// RedisStore keeps meta-tiles in redis. SET is atomic, so readers of
// the same key never observe a partial entry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ TileStore = (*RedisStore)(nil)

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func (s *RedisStore) keyFor(k Key) string {
	return fmt.Sprintf("metatile:%s:%s:%d:%d:%d", k.Cache, k.Grid, k.Metatile.Z, k.Metatile.X, k.Metatile.Y)
}

func (s *RedisStore) Get(ctx context.Context, k Key) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.keyFor(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get error: %w", err)
	}

	return data, true, nil
}

func (s *RedisStore) Put(ctx context.Context, k Key, data []byte) error {
	if err := s.client.Set(ctx, s.keyFor(k), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
