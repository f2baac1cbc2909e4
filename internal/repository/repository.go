package repository

import (
	"context"

	"github.com/utafrali/IdentityGo/internal/domain"
)

// UserRepository defines the persistence contract for users.
type UserRepository interface {
	// Create inserts a new user row. A duplicate email_hash surfaces as
	// an AlreadyExists error.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their id.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmailHash retrieves a user by the lookup hash of their email.
	GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error)

	// Update applies the non-nil fields of the update to a user row.
	// It never touches the address blob.
	Update(ctx context.Context, id string, update *domain.UserUpdate) error

	// UpdateLastLogin records login provenance for the user.
	UpdateLastLogin(ctx context.Context, id, ip string) error

	// UpdateAddresses writes the address blob iff the stored version still
	// equals expectedVersion, incrementing it. A lost race surfaces as a
	// Conflict error.
	UpdateAddresses(ctx context.Context, id, addressesCipher string, expectedVersion int64) error
}

// RefreshTokenRepository defines the persistence contract for refresh tokens.
// Tokens are revoked in place, never deleted.
type RefreshTokenRepository interface {
	// Create stores a new refresh token record.
	Create(ctx context.Context, token *domain.RefreshToken) error

	// GetByHash retrieves a refresh token record by its secret hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke marks a single still-active token revoked. If the token is
	// already revoked or unknown it returns ErrNotFound, which makes
	// concurrent rotation a single-winner race.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeAllForUser revokes every active token of the user.
	RevokeAllForUser(ctx context.Context, userID string) error
}
