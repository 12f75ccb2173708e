package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service provides identity directory operations.
type Service struct {
	repo Repository
}

// NewService creates a new account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get retrieves an account by ID.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	return s.repo.FindByID(ctx, id)
}

// LookupByEmail resolves a normalized email to an account ID.
func (s *Service) LookupByEmail(ctx context.Context, email string) (string, error) {
	acct, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", err
	}
	return acct.ID, nil
}

// LookupByPhone resolves a phone number to an account ID.
// The number is normalized to E.164 before lookup.
func (s *Service) LookupByPhone(ctx context.Context, raw string) (string, error) {
	phone, err := NormalizePhone(raw)
	if err != nil {
		return "", err
	}

	acct, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	return acct.ID, nil
}

// ClaimPhone assigns a phone number to the account.
// Numbers are immutable once claimed and globally unique.
func (s *Service) ClaimPhone(ctx context.Context, accountID, raw string) (string, error) {
	phone, err := NormalizePhone(raw)
	if err != nil {
		return "", err
	}

	if err := s.repo.ClaimPhone(ctx, accountID, phone); err != nil {
		return "", err
	}
	return phone, nil
}

// FindOrCreateByEmail finds an account by email, creating one if absent.
func (s *Service) FindOrCreateByEmail(ctx context.Context, email string) (*Account, error) {
	email = normalizeEmail(email)

	acct, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	now := time.Now()
	acct = &Account{
		ID:        generateAccountID(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}
	return acct, nil
}

// normalizeEmail lowercases and trims an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateAccountID generates a unique account ID with prefix.
func generateAccountID() string {
	return "usr_" + uuid.New().String()[:22]
}
