// Package trust provides the bidirectional contact-trust graph: trust
// requests, consent decisions, and the accepted-contact resolution used
// by the SOS dispatcher.
package trust

import (
	"errors"
	"time"
)

// Service and repository errors.
var (
	ErrEdgeNotFound     = errors.New("trust edge not found")
	ErrEdgeExists       = errors.New("trust edge already exists")
	ErrSelfTrust        = errors.New("cannot trust yourself")
	ErrContactNotFound  = errors.New("no account found for identifier")
	ErrAlreadyResponded = errors.New("trust request already responded to")
	ErrInvalidDecision  = errors.New("decision must be accepted or rejected")
)

// Status represents the state of a trust edge.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Edge is a directed trust relationship from an owner to a trusted contact.
// It is stored as a single relation queried from both sides, so the owner's
// outgoing view and the contact's incoming view can never diverge.
type Edge struct {
	OwnerID     string
	TrustedID   string
	Status      Status
	RequestedAt time.Time
	RespondedAt *time.Time
}
