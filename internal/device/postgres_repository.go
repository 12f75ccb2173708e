package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL device repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const deviceColumns = `id, account_id, expo_token, web_push_token, created_at, updated_at`

// Get retrieves a device by account ID and device ID.
func (r *PostgresRepository) Get(ctx context.Context, accountID, deviceID string) (*Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE account_id = $1 AND id = $2
	`

	var d Device
	err := r.pool.QueryRow(ctx, query, accountID, deviceID).Scan(
		&d.ID,
		&d.AccountID,
		&d.ExpoToken,
		&d.WebPushToken,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListByAccount retrieves all devices for an account.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE account_id = $1
		ORDER BY created_at DESC
	`
	return r.listDevices(ctx, query, accountID)
}

// ListByAccounts retrieves all devices for a set of accounts.
func (r *PostgresRepository) ListByAccounts(ctx context.Context, accountIDs []string) ([]*Device, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE account_id = ANY($1)
	`
	return r.listDevices(ctx, query, accountIDs)
}

func (r *PostgresRepository) listDevices(ctx context.Context, query string, args ...interface{}) ([]*Device, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		var d Device
		err := rows.Scan(
			&d.ID,
			&d.AccountID,
			&d.ExpoToken,
			&d.WebPushToken,
			&d.CreatedAt,
			&d.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		devices = append(devices, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return devices, nil
}

// Upsert creates or updates a device record keyed by (account, device).
// COALESCE keeps a token from the existing record when the incoming
// registration carries none for that transport.
func (r *PostgresRepository) Upsert(ctx context.Context, d *Device) (bool, error) {
	query := `
		INSERT INTO devices (id, account_id, expo_token, web_push_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id, id) DO UPDATE SET
			expo_token = COALESCE(EXCLUDED.expo_token, devices.expo_token),
			web_push_token = COALESCE(EXCLUDED.web_push_token, devices.web_push_token),
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		d.ID,
		d.AccountID,
		d.ExpoToken,
		d.WebPushToken,
		d.CreatedAt,
		d.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// Delete deletes a device record.
func (r *PostgresRepository) Delete(ctx context.Context, accountID, deviceID string) error {
	query := `DELETE FROM devices WHERE account_id = $1 AND id = $2`

	result, err := r.pool.Exec(ctx, query, accountID, deviceID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// RemoveTokens clears the given transport's token from every record holding
// one of the listed token strings. A single UPDATE keeps the batch atomic.
func (r *PostgresRepository) RemoveTokens(ctx context.Context, kind TransportKind, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	var query string
	switch kind {
	case KindExpoPush:
		query = `UPDATE devices SET expo_token = NULL, updated_at = now() WHERE expo_token = ANY($1)`
	case KindWebPush:
		query = `UPDATE devices SET web_push_token = NULL, updated_at = now() WHERE web_push_token = ANY($1)`
	default:
		return 0, fmt.Errorf("unknown transport kind %q", kind)
	}

	result, err := r.pool.Exec(ctx, query, tokens)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// DeleteEmpty removes records that no longer hold any token.
func (r *PostgresRepository) DeleteEmpty(ctx context.Context) (int64, error) {
	query := `DELETE FROM devices WHERE expo_token IS NULL AND web_push_token IS NULL`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
