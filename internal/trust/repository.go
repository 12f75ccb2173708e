package trust

import "context"

// Repository defines the interface for trust edge persistence.
type Repository interface {
	// Get retrieves the edge from owner to trusted contact.
	Get(ctx context.Context, ownerID, trustedID string) (*Edge, error)

	// Create stores a new pending edge. Returns ErrEdgeExists if an edge
	// between the two accounts already exists in this direction.
	Create(ctx context.Context, edge *Edge) error

	// Respond transitions a pending edge to accepted or rejected.
	// The transition happens at most once: a non-pending edge returns
	// ErrAlreadyResponded.
	Respond(ctx context.Context, ownerID, trustedID string, status Status) (*Edge, error)

	// Delete removes the edge from owner to trusted contact.
	Delete(ctx context.Context, ownerID, trustedID string) error

	// ListByOwner retrieves all outgoing edges for an owner.
	ListByOwner(ctx context.Context, ownerID string) ([]*Edge, error)

	// ListByTrusted retrieves all incoming edges for a trusted contact.
	ListByTrusted(ctx context.Context, trustedID string) ([]*Edge, error)

	// ListAcceptedContacts returns the account IDs of every contact that
	// has accepted a trust request from the owner.
	ListAcceptedContacts(ctx context.Context, ownerID string) ([]string, error)
}
