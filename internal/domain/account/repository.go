package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines storage operations for accounts. The postgres
// implementation lives in infrastructure/persistence.
type Repository interface {
	// Create stores a new account.
	// Returns shared.ErrAccountExists when the ID is already taken.
	Create(ctx context.Context, acct *Account) error

	// GetByID returns an account by its local identity.
	// Returns shared.ErrAccountNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// List returns every stored account.
	List(ctx context.Context) ([]*Account, error)

	// Update persists mutated fields (display name, credentials,
	// bindings). Returns shared.ErrAccountNotFound when absent.
	Update(ctx context.Context, acct *Account) error

	// Delete removes an account.
	// Returns shared.ErrAccountNotFound when absent.
	Delete(ctx context.Context, id uuid.UUID) error
}
