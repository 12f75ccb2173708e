package sos

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL event repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create stores a new event.
func (r *PostgresRepository) Create(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO sos_events (id, sender_id, message, lat, lon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.SenderID,
		event.Message,
		event.Lat,
		event.Lon,
		event.CreatedAt,
	)
	return err
}

// Get retrieves an event by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Event, error) {
	query := `
		SELECT id, sender_id, message, lat, lon, created_at
		FROM sos_events
		WHERE id = $1
	`

	var event Event
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.SenderID,
		&event.Message,
		&event.Lat,
		&event.Lon,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
