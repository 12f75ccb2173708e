package account

import "context"

// Repository defines the interface for account persistence.
type Repository interface {
	// FindByID retrieves an account by its ID.
	FindByID(ctx context.Context, id string) (*Account, error)

	// FindByEmail retrieves an account by its normalized email.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByPhone retrieves an account by its E.164 phone number.
	FindByPhone(ctx context.Context, phone string) (*Account, error)

	// Create creates a new account.
	Create(ctx context.Context, acct *Account) error

	// ClaimPhone atomically assigns a phone number to an account.
	// The phone->account index is the source of truth for uniqueness:
	// the read-check-write must happen in a single transaction.
	// Returns ErrPhoneImmutable if the account already has a different
	// number, ErrPhoneTaken if another account owns the number.
	ClaimPhone(ctx context.Context, accountID, phone string) error
}
