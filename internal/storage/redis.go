package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"gatewarden/internal/config"
)

// RedisStore caches the recent-event feed and per-session interaction
// sets. The game runs without it; callers tolerate a nil store.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) GetClient() *redis.Client {
	return s.client
}

const (
	eventListMaxSize   = 10
	eventListTTL       = 7 * 24 * time.Hour
	interactionsTTL    = 7 * 24 * time.Hour
	eventKeyPrefix     = "events:session"
	interactionsPrefix = "interactions:session"
)

func eventKey(sessionID uint) string {
	return fmt.Sprintf("%s:%d", eventKeyPrefix, sessionID)
}

func interactionsKey(sessionID uint) string {
	return fmt.Sprintf("%s:%d", interactionsPrefix, sessionID)
}

// PushEvent prepends an event to the session's feed and trims it to
// the display window.
func (s *RedisStore) PushEvent(ctx context.Context, sessionID uint, text string) error {
	key := eventKey(sessionID)
	if err := s.client.LPush(ctx, key, text).Err(); err != nil {
		return fmt.Errorf("failed to push event: %w", err)
	}
	if err := s.client.LTrim(ctx, key, 0, eventListMaxSize-1).Err(); err != nil {
		return fmt.Errorf("failed to trim event list: %w", err)
	}
	if err := s.client.Expire(ctx, key, eventListTTL).Err(); err != nil {
		return fmt.Errorf("failed to set event list TTL: %w", err)
	}
	return nil
}

// RecentEvents returns the cached feed, oldest first.
func (s *RedisStore) RecentEvents(ctx context.Context, sessionID uint, limit int64) ([]string, error) {
	if limit <= 0 || limit > eventListMaxSize {
		limit = eventListMaxSize
	}
	results, err := s.client.LRange(ctx, eventKey(sessionID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read event list: %w", err)
	}
	// LPush stores newest first; the display wants oldest first.
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

// SetInteractions caches a session's available interaction set.
func (s *RedisStore) SetInteractions(ctx context.Context, sessionID uint, interactions []string) error {
	data, err := json.Marshal(interactions)
	if err != nil {
		return fmt.Errorf("failed to marshal interactions: %w", err)
	}
	return s.client.Set(ctx, interactionsKey(sessionID), data, interactionsTTL).Err()
}

// GetInteractions reads the cached interaction set. A cache miss
// returns an empty list with no error.
func (s *RedisStore) GetInteractions(ctx context.Context, sessionID uint) ([]string, error) {
	data, err := s.client.Get(ctx, interactionsKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read interactions: %w", err)
	}
	var interactions []string
	if err := json.Unmarshal([]byte(data), &interactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interactions: %w", err)
	}
	return interactions, nil
}
