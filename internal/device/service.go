package device

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service errors.
var (
	ErrInvalidKind = errors.New("unknown transport kind")
)

// Service provides device registration operations.
type Service struct {
	repo Repository
}

// NewService creates a new device service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves all devices for an account.
func (s *Service) List(ctx context.Context, accountID string) ([]*Device, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// Register stores a push token for a device, creating or merging the
// device record. Returns the record and whether it was newly created.
func (s *Service) Register(ctx context.Context, accountID, deviceID string, kind TransportKind, token string) (*Device, bool, error) {
	if !kind.Valid() {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	now := time.Now()
	d := &Device{
		ID:        deviceID,
		AccountID: accountID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.SetToken(kind, token)

	created, err := s.repo.Upsert(ctx, d)
	if err != nil {
		return nil, false, err
	}

	// Re-read so that the caller sees the merged record, not just the
	// token registered in this call.
	merged, err := s.repo.Get(ctx, accountID, deviceID)
	if err != nil {
		return nil, false, err
	}
	return merged, created, nil
}

// Unregister removes a device registration.
func (s *Service) Unregister(ctx context.Context, accountID, deviceID string) error {
	return s.repo.Delete(ctx, accountID, deviceID)
}
