package sos

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TrustChecker reports whether a contact holds an accepted trust edge
// from an owner. The trust service implements this.
type TrustChecker interface {
	IsAccepted(ctx context.Context, ownerID, contactID string) (bool, error)
}

// Service provides SOS event operations.
type Service struct {
	repo  Repository
	trust TrustChecker
}

// NewService creates a new SOS event service.
func NewService(repo Repository, trust TrustChecker) *Service {
	return &Service{repo: repo, trust: trust}
}

// Create stores a new emergency event for the sender.
func (s *Service) Create(ctx context.Context, senderID, message string, lat, lon float64) (*Event, error) {
	if utf8.RuneCountInString(message) > MaxMessageLen {
		return nil, ErrMessageTooLong
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, ErrInvalidCoords
	}

	event := &Event{
		ID:        generateEventID(),
		SenderID:  senderID,
		Message:   message,
		Lat:       lat,
		Lon:       lon,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Get retrieves an event for an authorized reader: the sender, or a
// contact holding an accepted trust edge from the sender. Push payloads
// carry only the event ID, so recipients read the content through here.
func (s *Service) Get(ctx context.Context, callerID, eventID string) (*Event, error) {
	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.SenderID == callerID {
		return event, nil
	}

	accepted, err := s.trust.IsAccepted(ctx, event.SenderID, callerID)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, ErrReadDenied
	}
	return event, nil
}

// generateEventID generates a unique event ID with prefix.
func generateEventID() string {
	return "evt_" + uuid.New().String()[:22]
}
