package account

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*Account
	byPhone  map[string]string // phone -> account ID, the uniqueness index
}

// NewInMemoryRepository creates a new in-memory account repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		accounts: make(map[string]*Account),
		byPhone:  make(map[string]string),
	}
}

// FindByID retrieves an account by its ID.
func (r *InMemoryRepository) FindByID(_ context.Context, id string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	cpy := *a
	return &cpy, nil
}

// FindByEmail retrieves an account by its normalized email.
func (r *InMemoryRepository) FindByEmail(_ context.Context, email string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			cpy := *a
			return &cpy, nil
		}
	}
	return nil, ErrAccountNotFound
}

// FindByPhone retrieves an account by its E.164 phone number.
func (r *InMemoryRepository) FindByPhone(_ context.Context, phone string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byPhone[phone]
	if !ok {
		return nil, ErrAccountNotFound
	}

	cpy := *r.accounts[id]
	return &cpy, nil
}

// Create creates a new account.
func (r *InMemoryRepository) Create(_ context.Context, acct *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *acct
	r.accounts[acct.ID] = &cpy
	if acct.Phone != nil {
		r.byPhone[*acct.Phone] = acct.ID
	}
	return nil
}

// ClaimPhone atomically assigns a phone number to an account.
// The single mutex gives the same all-or-nothing semantics as the
// Postgres transaction.
func (r *InMemoryRepository) ClaimPhone(_ context.Context, accountID, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}

	if a.Phone != nil {
		if *a.Phone == phone {
			return nil
		}
		return ErrPhoneImmutable
	}

	if owner, claimed := r.byPhone[phone]; claimed && owner != accountID {
		return ErrPhoneTaken
	}

	r.byPhone[phone] = accountID
	p := phone
	a.Phone = &p
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
