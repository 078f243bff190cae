package repository

import (
	"context"
	"errors"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
)

// ErrCorruptSnapshot is returned by a CartStore when a stored snapshot cannot
// be decoded or carries an unsupported schema version.
var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

// CartStore persists the full line collection of a session cart.
type CartStore interface {
	// Load returns the stored lines for a session. An absent snapshot is
	// apperrors.ErrNotFound and an undecodable one is ErrCorruptSnapshot.
	Load(ctx context.Context, sessionID string) ([]domain.CartLine, error)

	// Save overwrites the snapshot for a session.
	Save(ctx context.Context, sessionID string, lines []domain.CartLine) error

	// Delete removes the snapshot for a session.
	Delete(ctx context.Context, sessionID string) error
}

// UserRepository defines persistence for storefront accounts.
type UserRepository interface {
	// Create inserts a user. A taken email is apperrors.ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByEmail looks a user up by normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByID looks a user up by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
