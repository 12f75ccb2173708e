package sos

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrust struct {
	accepted map[string]bool
}

func (f *fakeTrust) IsAccepted(_ context.Context, ownerID, contactID string) (bool, error) {
	return f.accepted[ownerID+"/"+contactID], nil
}

func newTestService(accepted map[string]bool) *Service {
	return NewService(NewInMemoryRepository(), &fakeTrust{accepted: accepted})
}

func TestService_Create(t *testing.T) {
	svc := newTestService(nil)

	event, err := svc.Create(context.Background(), "usr_sender", "help me", 32.88, 13.19)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(event.ID, "evt_"))
	assert.Equal(t, "usr_sender", event.SenderID)
	assert.Equal(t, "help me", event.Message)
	assert.Equal(t, 32.88, event.Lat)
	assert.Equal(t, 13.19, event.Lon)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestService_Create_EmptyMessage(t *testing.T) {
	svc := newTestService(nil)

	event, err := svc.Create(context.Background(), "usr_sender", "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, event.Message)
}

func TestService_Create_MessageTooLong(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.Create(context.Background(), "usr_sender", strings.Repeat("a", MaxMessageLen+1), 0, 0)
	assert.ErrorIs(t, err, ErrMessageTooLong)

	// Exactly at the limit is fine.
	_, err = svc.Create(context.Background(), "usr_sender", strings.Repeat("a", MaxMessageLen), 0, 0)
	assert.NoError(t, err)
}

func TestService_Create_InvalidCoords(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"latitude too high", 90.1, 0},
		{"latitude too low", -90.1, 0},
		{"longitude too high", 0, 180.1},
		{"longitude too low", 0, -180.1},
	}

	svc := newTestService(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "usr_sender", "hi", tt.lat, tt.lon)
			assert.ErrorIs(t, err, ErrInvalidCoords)
		})
	}
}

func TestService_Get_Sender(t *testing.T) {
	svc := newTestService(nil)

	event, err := svc.Create(context.Background(), "usr_sender", "help", 1, 2)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "usr_sender", event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)
}

func TestService_Get_AcceptedContact(t *testing.T) {
	svc := newTestService(map[string]bool{"usr_sender/usr_contact": true})

	event, err := svc.Create(context.Background(), "usr_sender", "help", 1, 2)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "usr_contact", event.ID)
	require.NoError(t, err)
	assert.Equal(t, "help", got.Message)
}

func TestService_Get_Denied(t *testing.T) {
	svc := newTestService(nil)

	event, err := svc.Create(context.Background(), "usr_sender", "help", 1, 2)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "usr_stranger", event.ID)
	assert.ErrorIs(t, err, ErrReadDenied)
}

func TestService_Get_NotFound(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.Get(context.Background(), "usr_sender", "evt_missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}
