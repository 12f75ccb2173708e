package device

import "context"

// Repository defines the interface for device persistence.
type Repository interface {
	// Get retrieves a device by account ID and device ID.
	Get(ctx context.Context, accountID, deviceID string) (*Device, error)

	// ListByAccount retrieves all devices for an account.
	ListByAccount(ctx context.Context, accountID string) ([]*Device, error)

	// ListByAccounts retrieves all devices for a set of accounts.
	ListByAccounts(ctx context.Context, accountIDs []string) ([]*Device, error)

	// Upsert creates or updates a device record keyed by (account, device).
	// Tokens already present on the record are kept unless the incoming
	// device carries a replacement for the same transport.
	// Returns true if a new record was created.
	Upsert(ctx context.Context, d *Device) (created bool, err error)

	// Delete deletes a device record.
	Delete(ctx context.Context, accountID, deviceID string) error

	// RemoveTokens clears the given transport's token from every record
	// holding one of the listed token strings. The whole batch is applied
	// atomically. Returns the number of records touched.
	RemoveTokens(ctx context.Context, kind TransportKind, tokens []string) (int64, error)

	// DeleteEmpty removes records that no longer hold any token.
	// Returns the number of records removed.
	DeleteEmpty(ctx context.Context) (int64, error)
}
