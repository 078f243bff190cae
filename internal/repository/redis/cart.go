package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/repository"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
)

const keyPrefix = "foodiehub:cart:"

// CartStore implements repository.CartStore using Redis. Each session is one
// key holding the snapshot JSON; writes are last-write-wins.
type CartStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

// NewCartStore creates a Redis-backed cart store. A zero ttl keeps snapshots forever.
func NewCartStore(client redis.UniversalClient, ttl time.Duration) *CartStore {
	return &CartStore{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Key returns the Redis key of a session snapshot.
func Key(sessionID string) string {
	return keyPrefix + sessionID
}

// Load reads and decodes the snapshot of a session.
func (s *CartStore) Load(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	data, err := s.client.Get(ctx, Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	lines, err := repository.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return lines, nil
}

// Save overwrites the snapshot of a session and refreshes its TTL.
func (s *CartStore) Save(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	data, err := repository.EncodeSnapshot(lines, s.now())
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, Key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Delete removes the snapshot of a session.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *CartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
