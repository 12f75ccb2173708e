package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL account repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindByID retrieves an account by its ID.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT id, email, phone, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	return r.scanAccount(ctx, query, id)
}

// FindByEmail retrieves an account by its normalized email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query := `
		SELECT id, email, phone, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`
	return r.scanAccount(ctx, query, email)
}

// FindByPhone retrieves an account by its E.164 phone number.
// Resolution goes through the phone_claims index, not the accounts row,
// since the index is the source of truth for ownership.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (*Account, error) {
	query := `
		SELECT a.id, a.email, a.phone, a.created_at, a.updated_at
		FROM phone_claims pc
		JOIN accounts a ON a.id = pc.account_id
		WHERE pc.phone = $1
	`
	return r.scanAccount(ctx, query, phone)
}

func (r *PostgresRepository) scanAccount(ctx context.Context, query string, args ...interface{}) (*Account, error) {
	var acct Account

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&acct.ID,
		&acct.Email,
		&acct.Phone,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return &acct, nil
}

// Create creates a new account.
func (r *PostgresRepository) Create(ctx context.Context, acct *Account) error {
	query := `
		INSERT INTO accounts (id, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		acct.ID,
		acct.Email,
		acct.Phone,
		acct.CreatedAt,
		acct.UpdatedAt,
	)
	return err
}

// ClaimPhone atomically assigns a phone number to an account.
// The whole read-check-write runs in one transaction so that two accounts
// racing for the same number cannot both succeed.
func (r *PostgresRepository) ClaimPhone(ctx context.Context, accountID, phone string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin claim transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	// Phone numbers are immutable once claimed.
	var current *string
	err = tx.QueryRow(ctx, `SELECT phone FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}
	if current != nil {
		if *current == phone {
			return nil // already claimed by this account
		}
		return ErrPhoneImmutable
	}

	// Check the index for an existing owner.
	var owner string
	err = tx.QueryRow(ctx, `SELECT account_id FROM phone_claims WHERE phone = $1`, phone).Scan(&owner)
	switch {
	case err == nil:
		if owner != accountID {
			return ErrPhoneTaken
		}
	case errors.Is(err, pgx.ErrNoRows):
		// free to claim
	default:
		return err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO phone_claims (phone, account_id) VALUES ($1, $2)`, phone, accountID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrPhoneTaken
		}
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET phone = $2, updated_at = now() WHERE id = $1`, accountID, phone); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
