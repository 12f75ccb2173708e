package fcm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardline/guardline/internal/device"
	"github.com/guardline/guardline/internal/push"
)

func TestClient_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fcm/send", r.URL.Path)
		assert.Equal(t, "key=test-server-key", r.Header.Get("Authorization"))

		var payload multicastRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, []string{"web-tok-1", "web-tok-2"}, payload.RegistrationIDs)
		assert.Equal(t, "evt_123", payload.Data["eventId"])
		assert.Equal(t, "sos", payload.Data["type"])
		assert.Equal(t, "high", payload.Priority)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":2,"failure":0,"results":[{"message_id":"m1"},{"message_id":"m2"}]}`))
	}))
	defer server.Close()

	client := NewClient("test-server-key", WithBaseURL(server.URL))

	results, err := client.Send(context.Background(), []string{"web-tok-1", "web-tok-2"}, push.Notification{
		Title:   "Emergency alert",
		Body:    "help",
		EventID: "evt_123",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, push.OutcomeSuccess, results[0].Outcome)
	assert.Equal(t, push.OutcomeSuccess, results[1].Outcome)
}

func TestClient_Send_ClassifiesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":1,"failure":2,"results":[
			{"error":"NotRegistered"},
			{"message_id":"m1"},
			{"error":"Unavailable"}
		]}`))
	}))
	defer server.Close()

	client := NewClient("test-server-key", WithBaseURL(server.URL))

	results, err := client.Send(context.Background(), []string{"tok-a", "tok-b", "tok-c"}, push.Notification{EventID: "evt_1"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "tok-a", results[0].Token)
	assert.Equal(t, push.OutcomePermanent, results[0].Outcome)
	assert.Equal(t, "NotRegistered", results[0].Code)

	assert.Equal(t, push.OutcomeSuccess, results[1].Outcome)
	assert.Equal(t, push.OutcomeTransient, results[2].Outcome)
}

func TestClient_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))

	_, err := client.Send(context.Background(), []string{"tok-a"}, push.Notification{EventID: "evt_1"})
	assert.Error(t, err)
}

func TestClient_Send_EmptyBatch(t *testing.T) {
	client := NewClient("test-server-key", WithBaseURL("http://unused"))

	results, err := client.Send(context.Background(), nil, push.Notification{EventID: "evt_1"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClient_Kind(t *testing.T) {
	client := NewClient("test-server-key")
	assert.Equal(t, device.KindWebPush, client.Kind())
	assert.Equal(t, maxBatchSize, client.MaxBatchSize())
}
