// Package sos provides the append-only SOS event store.
package sos

import (
	"errors"
	"time"
)

// Service and repository errors.
var (
	ErrEventNotFound  = errors.New("sos event not found")
	ErrMessageTooLong = errors.New("message exceeds maximum length")
	ErrInvalidCoords  = errors.New("invalid coordinates")
	ErrReadDenied     = errors.New("not authorized to read this event")
)

// MaxMessageLen is the maximum SOS message length in characters.
const MaxMessageLen = 500

// Event is an immutable emergency event. Once created it is never
// mutated; dispatch references it by ID only.
type Event struct {
	ID        string
	SenderID  string
	Message   string
	Lat       float64
	Lon       float64
	CreatedAt time.Time
}
