// Package device provides the push device registry. Each record belongs
// to one account and one physical device and holds at most one token per
// push transport.
package device

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrDeviceNotFound = errors.New("device not found")
)

// TransportKind identifies a push delivery transport.
type TransportKind string

const (
	KindExpoPush TransportKind = "expo-push"
	KindWebPush  TransportKind = "web-push"
)

// Valid reports whether k names a known transport.
func (k TransportKind) Valid() bool {
	return k == KindExpoPush || k == KindWebPush
}

// Device represents one app installation able to receive pushes.
// The ID is the client-supplied device identifier: re-registration with the
// same ID merges into the same record.
type Device struct {
	ID           string
	AccountID    string
	ExpoToken    *string
	WebPushToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Token returns the token for the given transport, or nil.
func (d *Device) Token(kind TransportKind) *string {
	switch kind {
	case KindExpoPush:
		return d.ExpoToken
	case KindWebPush:
		return d.WebPushToken
	}
	return nil
}

// SetToken stores a token for the given transport.
func (d *Device) SetToken(kind TransportKind, token string) {
	switch kind {
	case KindExpoPush:
		d.ExpoToken = &token
	case KindWebPush:
		d.WebPushToken = &token
	}
}

// TokenLast4 returns the last 4 characters of a token for display purposes.
func TokenLast4(token string) string {
	if len(token) < 4 {
		return token
	}
	return token[len(token)-4:]
}
