package trust

import (
	"context"
	"sync"
	"time"
)

type edgeKey struct {
	ownerID   string
	trustedID string
}

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu    sync.Mutex
	edges map[edgeKey]*Edge
}

// NewInMemoryRepository creates a new in-memory trust repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		edges: make(map[edgeKey]*Edge),
	}
}

// Get retrieves the edge from owner to trusted contact.
func (r *InMemoryRepository) Get(_ context.Context, ownerID, trustedID string) (*Edge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.edges[edgeKey{ownerID, trustedID}]
	if !ok {
		return nil, ErrEdgeNotFound
	}

	cpy := *e
	return &cpy, nil
}

// Create stores a new pending edge.
func (r *InMemoryRepository) Create(_ context.Context, edge *Edge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := edgeKey{edge.OwnerID, edge.TrustedID}
	if _, exists := r.edges[key]; exists {
		return ErrEdgeExists
	}

	cpy := *edge
	r.edges[key] = &cpy
	return nil
}

// Respond transitions a pending edge to accepted or rejected.
func (r *InMemoryRepository) Respond(_ context.Context, ownerID, trustedID string, status Status) (*Edge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.edges[edgeKey{ownerID, trustedID}]
	if !ok {
		return nil, ErrEdgeNotFound
	}
	if e.Status != StatusPending {
		return nil, ErrAlreadyResponded
	}

	now := time.Now()
	e.Status = status
	e.RespondedAt = &now

	cpy := *e
	return &cpy, nil
}

// Delete removes the edge from owner to trusted contact.
func (r *InMemoryRepository) Delete(_ context.Context, ownerID, trustedID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := edgeKey{ownerID, trustedID}
	if _, ok := r.edges[key]; !ok {
		return ErrEdgeNotFound
	}
	delete(r.edges, key)
	return nil
}

// ListByOwner retrieves all outgoing edges for an owner.
func (r *InMemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]*Edge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var edges []*Edge
	for key, e := range r.edges {
		if key.ownerID == ownerID {
			cpy := *e
			edges = append(edges, &cpy)
		}
	}
	return edges, nil
}

// ListByTrusted retrieves all incoming edges for a trusted contact.
func (r *InMemoryRepository) ListByTrusted(_ context.Context, trustedID string) ([]*Edge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var edges []*Edge
	for key, e := range r.edges {
		if key.trustedID == trustedID {
			cpy := *e
			edges = append(edges, &cpy)
		}
	}
	return edges, nil
}

// ListAcceptedContacts returns the account IDs of every contact that has
// accepted a trust request from the owner.
func (r *InMemoryRepository) ListAcceptedContacts(_ context.Context, ownerID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for key, e := range r.edges {
		if key.ownerID == ownerID && e.Status == StatusAccepted {
			ids = append(ids, key.trustedID)
		}
	}
	return ids, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
