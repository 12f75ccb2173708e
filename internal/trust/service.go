package trust

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guardline/guardline/internal/account"
)

// DirectoryLookup resolves contact identifiers to account IDs.
// The account service implements this.
type DirectoryLookup interface {
	LookupByEmail(ctx context.Context, email string) (string, error)
	LookupByPhone(ctx context.Context, raw string) (string, error)
}

// Service provides trust graph operations.
type Service struct {
	repo      Repository
	directory DirectoryLookup
}

// NewService creates a new trust service.
func NewService(repo Repository, directory DirectoryLookup) *Service {
	return &Service{repo: repo, directory: directory}
}

// RequestInput identifies the contact to send a trust request to.
// Exactly one of Email or Phone must be set.
type RequestInput struct {
	Email string
	Phone string
}

// Request creates a pending trust edge from the owner to the contact
// resolved from the given identifier.
func (s *Service) Request(ctx context.Context, ownerID string, input RequestInput) (*Edge, error) {
	trustedID, err := s.resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	if trustedID == ownerID {
		return nil, ErrSelfTrust
	}

	edge := &Edge{
		OwnerID:     ownerID,
		TrustedID:   trustedID,
		Status:      StatusPending,
		RequestedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, edge); err != nil {
		return nil, err
	}
	return edge, nil
}

// Respond lets the trusted contact accept or reject a pending request.
// Only the trusted side of the edge may make the transition, and it
// happens at most once.
func (s *Service) Respond(ctx context.Context, trustedID, ownerID string, decision Status) (*Edge, error) {
	if decision != StatusAccepted && decision != StatusRejected {
		return nil, ErrInvalidDecision
	}
	return s.repo.Respond(ctx, ownerID, trustedID, decision)
}

// Remove deletes the edge between the caller and the other account.
// Either party may remove it: the owner cancels an outgoing edge, the
// trusted contact removes an incoming one.
func (s *Service) Remove(ctx context.Context, callerID, otherID string, incoming bool) error {
	if incoming {
		return s.repo.Delete(ctx, otherID, callerID)
	}
	return s.repo.Delete(ctx, callerID, otherID)
}

// ListOutgoing retrieves the caller's outgoing trust edges.
func (s *Service) ListOutgoing(ctx context.Context, ownerID string) ([]*Edge, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ListIncoming retrieves the caller's incoming trust edges.
func (s *Service) ListIncoming(ctx context.Context, trustedID string) ([]*Edge, error) {
	return s.repo.ListByTrusted(ctx, trustedID)
}

// ListAcceptedContacts returns the accounts that consented to receive
// alerts from the owner. Used exclusively by the SOS dispatcher.
func (s *Service) ListAcceptedContacts(ctx context.Context, ownerID string) ([]string, error) {
	return s.repo.ListAcceptedContacts(ctx, ownerID)
}

// IsAccepted reports whether the contact holds an accepted trust edge
// from the owner.
func (s *Service) IsAccepted(ctx context.Context, ownerID, contactID string) (bool, error) {
	edge, err := s.repo.Get(ctx, ownerID, contactID)
	if err != nil {
		if errors.Is(err, ErrEdgeNotFound) {
			return false, nil
		}
		return false, err
	}
	return edge.Status == StatusAccepted, nil
}

// resolve maps a contact identifier to an account ID.
func (s *Service) resolve(ctx context.Context, input RequestInput) (string, error) {
	var (
		id  string
		err error
	)

	switch {
	case input.Email != "":
		id, err = s.directory.LookupByEmail(ctx, input.Email)
	case input.Phone != "":
		id, err = s.directory.LookupByPhone(ctx, input.Phone)
	default:
		return "", fmt.Errorf("%w: no identifier given", ErrContactNotFound)
	}

	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) || errors.Is(err, account.ErrInvalidPhone) {
			return "", ErrContactNotFound
		}
		return "", err
	}
	return id, nil
}
