package trust

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresRepository is a PostgreSQL implementation of Repository.
// Edges live in a single trust_edges relation with indexes on both
// owner_id and trusted_id, giving each side its own query path without
// a mirrored copy to keep consistent.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL trust repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves the edge from owner to trusted contact.
func (r *PostgresRepository) Get(ctx context.Context, ownerID, trustedID string) (*Edge, error) {
	query := `
		SELECT owner_id, trusted_id, status, requested_at, responded_at
		FROM trust_edges
		WHERE owner_id = $1 AND trusted_id = $2
	`

	var edge Edge
	err := r.pool.QueryRow(ctx, query, ownerID, trustedID).Scan(
		&edge.OwnerID,
		&edge.TrustedID,
		&edge.Status,
		&edge.RequestedAt,
		&edge.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEdgeNotFound
		}
		return nil, err
	}

	return &edge, nil
}

// Create stores a new pending edge.
func (r *PostgresRepository) Create(ctx context.Context, edge *Edge) error {
	query := `
		INSERT INTO trust_edges (owner_id, trusted_id, status, requested_at, responded_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		edge.OwnerID,
		edge.TrustedID,
		edge.Status,
		edge.RequestedAt,
		edge.RespondedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEdgeExists
		}
		return err
	}
	return nil
}

// Respond transitions a pending edge to accepted or rejected.
// The status filter in the UPDATE makes the transition single-shot even
// under concurrent responses.
func (r *PostgresRepository) Respond(ctx context.Context, ownerID, trustedID string, status Status) (*Edge, error) {
	query := `
		UPDATE trust_edges
		SET status = $3, responded_at = now()
		WHERE owner_id = $1 AND trusted_id = $2 AND status = 'pending'
		RETURNING owner_id, trusted_id, status, requested_at, responded_at
	`

	var edge Edge
	err := r.pool.QueryRow(ctx, query, ownerID, trustedID, status).Scan(
		&edge.OwnerID,
		&edge.TrustedID,
		&edge.Status,
		&edge.RequestedAt,
		&edge.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish missing edge from an edge already decided.
			if _, getErr := r.Get(ctx, ownerID, trustedID); getErr == nil {
				return nil, ErrAlreadyResponded
			}
			return nil, ErrEdgeNotFound
		}
		return nil, err
	}

	return &edge, nil
}

// Delete removes the edge from owner to trusted contact.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, trustedID string) error {
	query := `DELETE FROM trust_edges WHERE owner_id = $1 AND trusted_id = $2`

	result, err := r.pool.Exec(ctx, query, ownerID, trustedID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrEdgeNotFound
	}
	return nil
}

// ListByOwner retrieves all outgoing edges for an owner.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Edge, error) {
	query := `
		SELECT owner_id, trusted_id, status, requested_at, responded_at
		FROM trust_edges
		WHERE owner_id = $1
		ORDER BY requested_at DESC
	`
	return r.listEdges(ctx, query, ownerID)
}

// ListByTrusted retrieves all incoming edges for a trusted contact.
func (r *PostgresRepository) ListByTrusted(ctx context.Context, trustedID string) ([]*Edge, error) {
	query := `
		SELECT owner_id, trusted_id, status, requested_at, responded_at
		FROM trust_edges
		WHERE trusted_id = $1
		ORDER BY requested_at DESC
	`
	return r.listEdges(ctx, query, trustedID)
}

func (r *PostgresRepository) listEdges(ctx context.Context, query string, arg string) ([]*Edge, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*Edge
	for rows.Next() {
		var edge Edge
		err := rows.Scan(
			&edge.OwnerID,
			&edge.TrustedID,
			&edge.Status,
			&edge.RequestedAt,
			&edge.RespondedAt,
		)
		if err != nil {
			return nil, err
		}
		edges = append(edges, &edge)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

// ListAcceptedContacts returns the account IDs of every contact that has
// accepted a trust request from the owner.
func (r *PostgresRepository) ListAcceptedContacts(ctx context.Context, ownerID string) ([]string, error) {
	query := `
		SELECT trusted_id
		FROM trust_edges
		WHERE owner_id = $1 AND status = 'accepted'
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
