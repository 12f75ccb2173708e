package expo

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
		assert.Equal(t, "/push/send", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var msg pushMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, []string{"ExponentPushToken[aaa]", "ExponentPushToken[bbb]"}, msg.To)
		assert.Equal(t, "evt_123", msg.Data["eventId"])
		assert.Equal(t, "sos", msg.Data["type"])
		assert.Equal(t, "sos", msg.ChannelID)
		assert.Equal(t, "default", msg.Sound)
		assert.Equal(t, "high", msg.Priority)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"status":"ok"},{"status":"ok"}]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	results, err := client.Send(context.Background(), []string{"ExponentPushToken[aaa]", "ExponentPushToken[bbb]"}, push.Notification{
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
		_, _ = w.Write([]byte(`{"data":[
			{"status":"ok"},
			{"status":"error","message":"not registered","details":{"error":"DeviceNotRegistered"}},
			{"status":"error","message":"try later","details":{"error":"MessageRateExceeded"}}
		]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	results, err := client.Send(context.Background(), []string{"tok-a", "tok-b", "tok-c"}, push.Notification{EventID: "evt_1"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, push.OutcomeSuccess, results[0].Outcome)

	assert.Equal(t, "tok-b", results[1].Token)
	assert.Equal(t, push.OutcomePermanent, results[1].Outcome)
	assert.Equal(t, "DeviceNotRegistered", results[1].Code)

	assert.Equal(t, push.OutcomeTransient, results[2].Outcome)
}

func TestClient_Send_PayloadErrorsKeepToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"status":"error","message":"too big","details":{"error":"MessageTooBig"}}]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	// MessageTooBig is about the payload, not the token. If it were
	// permanent the dispatcher would evict a live registration.
	results, err := client.Send(context.Background(), []string{"tok-a"}, push.Notification{EventID: "evt_1"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, push.OutcomeTransient, results[0].Outcome)
	assert.Equal(t, "MessageTooBig", results[0].Code)
}

func TestClient_Send_UnknownCodeIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"status":"error","details":{"error":"BrandNewCode"}}]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	results, err := client.Send(context.Background(), []string{"tok-a"}, push.Notification{EventID: "evt_1"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, push.OutcomeTransient, results[0].Outcome)
}

func TestClient_Send_TicketCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"status":"ok"}]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.Send(context.Background(), []string{"tok-a", "tok-b"}, push.Notification{EventID: "evt_1"})
	assert.Error(t, err)
}

func TestClient_Send_EmptyBatch(t *testing.T) {
	client := NewClient(WithBaseURL("http://unused"))

	results, err := client.Send(context.Background(), nil, push.Notification{EventID: "evt_1"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClient_Send_BatchTooLarge(t *testing.T) {
	client := NewClient(WithBaseURL("http://unused"))

	tokens := make([]string, maxBatchSize+1)
	_, err := client.Send(context.Background(), tokens, push.Notification{EventID: "evt_1"})
	assert.Error(t, err)
}

func TestClient_Kind(t *testing.T) {
	assert.Equal(t, device.KindExpoPush, NewClient().Kind())
	assert.Equal(t, maxBatchSize, NewClient().MaxBatchSize())
}
