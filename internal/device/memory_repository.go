package device

import (
	"context"
	"sync"
)

type deviceKey struct {
	accountID string
	deviceID  string
}

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.Mutex
	devices map[deviceKey]*Device
}

// NewInMemoryRepository creates a new in-memory device repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		devices: make(map[deviceKey]*Device),
	}
}

// Get retrieves a device by account ID and device ID.
func (r *InMemoryRepository) Get(_ context.Context, accountID, deviceID string) (*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[deviceKey{accountID, deviceID}]
	if !ok {
		return nil, ErrDeviceNotFound
	}

	cpy := *d
	return &cpy, nil
}

// ListByAccount retrieves all devices for an account.
func (r *InMemoryRepository) ListByAccount(_ context.Context, accountID string) ([]*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var devices []*Device
	for key, d := range r.devices {
		if key.accountID == accountID {
			cpy := *d
			devices = append(devices, &cpy)
		}
	}
	return devices, nil
}

// ListByAccounts retrieves all devices for a set of accounts.
func (r *InMemoryRepository) ListByAccounts(_ context.Context, accountIDs []string) ([]*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = struct{}{}
	}

	var devices []*Device
	for key, d := range r.devices {
		if _, ok := wanted[key.accountID]; ok {
			cpy := *d
			devices = append(devices, &cpy)
		}
	}
	return devices, nil
}

// Upsert creates or updates a device record keyed by (account, device).
func (r *InMemoryRepository) Upsert(_ context.Context, d *Device) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := deviceKey{d.AccountID, d.ID}
	existing, ok := r.devices[key]
	if !ok {
		cpy := *d
		r.devices[key] = &cpy
		return true, nil
	}

	// Merge: incoming tokens replace, absent tokens are kept.
	if d.ExpoToken != nil {
		existing.ExpoToken = d.ExpoToken
	}
	if d.WebPushToken != nil {
		existing.WebPushToken = d.WebPushToken
	}
	existing.UpdatedAt = d.UpdatedAt
	return false, nil
}

// Delete deletes a device record.
func (r *InMemoryRepository) Delete(_ context.Context, accountID, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := deviceKey{accountID, deviceID}
	if _, ok := r.devices[key]; !ok {
		return ErrDeviceNotFound
	}
	delete(r.devices, key)
	return nil
}

// RemoveTokens clears the given transport's token from every record holding
// one of the listed token strings.
func (r *InMemoryRepository) RemoveTokens(_ context.Context, kind TransportKind, tokens []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	invalid := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		invalid[t] = struct{}{}
	}

	var touched int64
	for _, d := range r.devices {
		tok := d.Token(kind)
		if tok == nil {
			continue
		}
		if _, ok := invalid[*tok]; !ok {
			continue
		}
		switch kind {
		case KindExpoPush:
			d.ExpoToken = nil
		case KindWebPush:
			d.WebPushToken = nil
		}
		touched++
	}
	return touched, nil
}

// DeleteEmpty removes records that no longer hold any token.
func (r *InMemoryRepository) DeleteEmpty(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for key, d := range r.devices {
		if d.ExpoToken == nil && d.WebPushToken == nil {
			delete(r.devices, key)
			removed++
		}
	}
	return removed, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
