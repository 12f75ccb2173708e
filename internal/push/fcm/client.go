// Package fcm implements the push.Transport interface for web clients
// through the Firebase Cloud Messaging legacy HTTP API.
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/guardline/guardline/internal/device"
	"github.com/guardline/guardline/internal/provider/resilience"
	"github.com/guardline/guardline/internal/push"
)

const (
	defaultBaseURL = "https://fcm.googleapis.com"

	// maxBatchSize is the FCM multicast limit per request.
	maxBatchSize = 500
)

// defaultClassifier maps FCM result error codes to outcomes.
var defaultClassifier = push.Classifier{
	"NotRegistered":       push.OutcomePermanent,
	"InvalidRegistration": push.OutcomePermanent,
	"MismatchSenderId":    push.OutcomePermanent,
	"Unavailable":         push.OutcomeTransient,
	"InternalServerError": push.OutcomeTransient,
}

// Client sends push notifications through the FCM legacy HTTP API.
type Client struct {
	httpClient *resilience.Client
	baseURL    string
	serverKey  string
	classifier push.Classifier
}

// ClientOption configures the FCM client.
type ClientOption func(*Client)

// WithBaseURL overrides the FCM base URL. Used in tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the resilient HTTP client.
func WithHTTPClient(client *resilience.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a new FCM push client with the given server key.
func NewClient(serverKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: resilience.NewClient(resilience.DefaultClientConfig("fcm")),
		baseURL:    defaultBaseURL,
		serverKey:  serverKey,
		classifier: defaultClassifier,
	}

	for _, opt := range opts {
		opt(c)
	}

	resilience.GlobalRegistry.Register("fcm", c.httpClient)

	return c
}

// Kind returns the token kind this transport handles.
func (c *Client) Kind() device.TransportKind {
	return device.KindWebPush
}

// MaxBatchSize returns the FCM per-request recipient limit.
func (c *Client) MaxBatchSize() int {
	return maxBatchSize
}

// multicastRequest is the FCM legacy send payload. The payload is
// data-only so the web client controls how the alert is rendered.
type multicastRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Priority        string            `json:"priority"`
	Data            map[string]string `json:"data"`
}

type multicastResult struct {
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type multicastResponse struct {
	Success int               `json:"success"`
	Failure int               `json:"failure"`
	Results []multicastResult `json:"results"`
}

// Send delivers the notification to the given tokens. FCM returns one
// result per registration ID in request order.
func (c *Client) Send(ctx context.Context, tokens []string, n push.Notification) ([]push.Result, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	if len(tokens) > maxBatchSize {
		return nil, fmt.Errorf("fcm: batch of %d exceeds limit of %d", len(tokens), maxBatchSize)
	}

	// data.type is how the web client recognizes an alert among other
	// messages on the same subscription.
	payload := multicastRequest{
		RegistrationIDs: tokens,
		Priority:        "high",
		Data: map[string]string{
			"type":    "sos",
			"title":   n.Title,
			"body":    n.Body,
			"eventId": n.EventID,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("fcm: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/fcm/send", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fcm: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		resilience.GlobalRegistry.RecordFailure("fcm", err)
		return nil, fmt.Errorf("fcm: executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("fcm: unexpected status %d", resp.StatusCode)
		resilience.GlobalRegistry.RecordFailure("fcm", err)
		return nil, err
	}
	resilience.GlobalRegistry.RecordSuccess("fcm")

	var parsed multicastResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("fcm: decoding response: %w", err)
	}

	if len(parsed.Results) != len(tokens) {
		return nil, fmt.Errorf("fcm: got %d results for %d tokens", len(parsed.Results), len(tokens))
	}

	results := make([]push.Result, len(tokens))
	for i, res := range parsed.Results {
		results[i] = push.Result{Token: tokens[i]}
		if res.Error == "" {
			results[i].Outcome = push.OutcomeSuccess
			continue
		}
		results[i].Code = res.Error
		results[i].Outcome = c.classifier.Classify(res.Error)
	}

	return results, nil
}
