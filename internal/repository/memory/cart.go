// Package memory holds process-local stores for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/repository"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
)

// CartStore keeps encoded snapshots in a map so that loads go through the
// same codec as the Redis store.
type CartStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewCartStore creates an empty in-memory cart store.
func NewCartStore() *CartStore {
	return &CartStore{snapshots: make(map[string][]byte)}
}

// Load decodes the snapshot stored for a session.
func (s *CartStore) Load(_ context.Context, sessionID string) ([]domain.CartLine, error) {
	s.mu.RLock()
	data, ok := s.snapshots[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("cart", sessionID)
	}

	lines, err := repository.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return lines, nil
}

// Save encodes and stores the lines of a session.
func (s *CartStore) Save(_ context.Context, sessionID string, lines []domain.CartLine) error {
	data, err := repository.EncodeSnapshot(lines, time.Now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snapshots[sessionID] = data
	s.mu.Unlock()
	return nil
}

// Delete removes the snapshot of a session.
func (s *CartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.snapshots, sessionID)
	s.mu.Unlock()
	return nil
}

// Put stores raw bytes for a session, bypassing the encoder.
func (s *CartStore) Put(sessionID string, data []byte) {
	s.mu.Lock()
	s.snapshots[sessionID] = data
	s.mu.Unlock()
}

// Len returns the number of stored snapshots.
func (s *CartStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
