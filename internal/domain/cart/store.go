// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the local persistence port for cart snapshots. It is best-effort
// session-local storage: callers treat failures as non-fatal.
type Store interface {
	// Load returns the saved lines for the session, or nil when no snapshot exists
	Load(ctx context.Context, sessionID string) ([]Line, error)
	// Save replaces the session snapshot
	Save(ctx context.Context, sessionID string, lines []Line) error
	// Clear removes the session snapshot
	Clear(ctx context.Context, sessionID string) error
}

// RedisStore keeps cart snapshots as JSON blobs in Redis with a TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed snapshot store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func snapshotKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// Load retrieves the session snapshot
func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]Line, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID required for cart snapshot")
	}

	data, err := s.client.Get(ctx, snapshotKey(sessionID)).Result()
	if err == redis.Nil {
		// No snapshot yet
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load cart snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}

	return snapshot.Lines, nil
}

// Save replaces the session snapshot
func (s *RedisStore) Save(ctx context.Context, sessionID string, lines []Line) error {
	if sessionID == "" {
		return fmt.Errorf("session ID required for cart snapshot")
	}

	now := time.Now().UTC()
	snapshot := Snapshot{
		SessionID: sessionID,
		Lines:     lines,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	data, err := json.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}

	return s.client.Set(ctx, snapshotKey(sessionID), data, s.ttl).Err()
}

// Clear removes the session snapshot
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.client.Del(ctx, snapshotKey(sessionID)).Err()
}
