package redisStore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/pkg/logx"
)

// Store wraps one redis logical database. Each concern (jobs, conversations)
// gets its own Store so key spaces never collide.
type Store struct {
	client *redis.Client
	db     int
	logger *logx.Logger
}

// New connects to the configured redis database and verifies it with a ping.
// The client is closed when ctx is cancelled.
func New(ctx context.Context, cfg config.Config, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  cfg.RedisAddr,
		Password:              cfg.RedisPassword,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis db %d unreachable: %w", db, err)
	}

	s := &Store{
		client: client,
		db:     db,
		logger: logx.New(fmt.Sprintf("redis_store_%d", db)),
	}
	go s.closeOnDone(ctx)
	return s, nil
}

// NewWithClient wraps an existing client. Used by tests with miniredis.
func NewWithClient(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logx.New("redis_store_test"),
	}
}

func (s *Store) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	s.logger.Info("closing redis client", "db", s.db)
	if err := s.client.Close(); err != nil {
		s.logger.Error("could not close redis client", "error", err)
	}
}

func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, key).Result()
	return count > 0, err
}

func (s *Store) ListPush(ctx context.Context, key string, value interface{}) error {
	return s.client.RPush(ctx, key, value).Err()
}

// ListTail returns the last n entries of a list, oldest first.
func (s *Store) ListTail(ctx context.Context, key string, n int64) ([]string, error) {
	return s.client.LRange(ctx, key, -n, -1).Result()
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}
