package sos

import "context"

// Repository defines the interface for SOS event persistence.
// Events are append-only: there is no update or delete.
type Repository interface {
	// Create stores a new event.
	Create(ctx context.Context, event *Event) error

	// Get retrieves an event by ID.
	Get(ctx context.Context, id string) (*Event, error)
}
