// Package expo implements the push.Transport interface for the Expo
// push service used by the mobile apps.
package expo

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
	defaultBaseURL = "https://exp.host/--/api/v2"

	// maxBatchSize is the Expo push API limit per request.
	maxBatchSize = 100
)

// defaultClassifier maps Expo ticket error codes to outcomes. Only
// codes that prove the token is dead are permanent.
var defaultClassifier = push.Classifier{
	"DeviceNotRegistered": push.OutcomePermanent,
	"InvalidCredentials":  push.OutcomePermanent,
	// MessageTooBig and MessageRateExceeded say nothing about the token,
	// so they stay transient and the registration survives.
	"MessageTooBig":       push.OutcomeTransient,
	"MessageRateExceeded": push.OutcomeTransient,
}

// Client sends push notifications through the Expo push API.
type Client struct {
	httpClient *resilience.Client
	baseURL    string
	classifier push.Classifier
}

// ClientOption configures the Expo client.
type ClientOption func(*Client)

// WithBaseURL overrides the Expo API base URL. Used in tests.
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

// NewClient creates a new Expo push client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: resilience.NewClient(resilience.DefaultClientConfig("expo")),
		baseURL:    defaultBaseURL,
		classifier: defaultClassifier,
	}

	for _, opt := range opts {
		opt(c)
	}

	resilience.GlobalRegistry.Register("expo", c.httpClient)

	return c
}

// Kind returns the token kind this transport handles.
func (c *Client) Kind() device.TransportKind {
	return device.KindExpoPush
}

// MaxBatchSize returns the Expo per-request recipient limit.
func (c *Client) MaxBatchSize() int {
	return maxBatchSize
}

// pushMessage is the Expo push API request payload. A single message
// addressed to multiple recipients yields one ticket per recipient.
type pushMessage struct {
	To        []string       `json:"to"`
	Title     string         `json:"title,omitempty"`
	Body      string         `json:"body,omitempty"`
	Sound     string         `json:"sound,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Priority  string         `json:"priority,omitempty"`
	ChannelID string         `json:"channelId,omitempty"`
}

type pushTicket struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details,omitempty"`
}

type pushResponse struct {
	Data []pushTicket `json:"data"`
}

// Send delivers the notification to the given tokens. Tickets come back
// in recipient order, so results align with the input slice.
func (c *Client) Send(ctx context.Context, tokens []string, n push.Notification) ([]push.Result, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	if len(tokens) > maxBatchSize {
		return nil, fmt.Errorf("expo: batch of %d exceeds limit of %d", len(tokens), maxBatchSize)
	}

	// Recipient apps route on data.type and render through the sos
	// channel, so these fields are part of the contract.
	msg := pushMessage{
		To:        tokens,
		Title:     n.Title,
		Body:      n.Body,
		Sound:     "default",
		Data:      map[string]any{"type": "sos", "eventId": n.EventID},
		Priority:  "high",
		ChannelID: "sos",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("expo: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/push/send", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("expo: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		resilience.GlobalRegistry.RecordFailure("expo", err)
		return nil, fmt.Errorf("expo: executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("expo: unexpected status %d", resp.StatusCode)
		resilience.GlobalRegistry.RecordFailure("expo", err)
		return nil, err
	}
	resilience.GlobalRegistry.RecordSuccess("expo")

	var parsed pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("expo: decoding response: %w", err)
	}

	if len(parsed.Data) != len(tokens) {
		return nil, fmt.Errorf("expo: got %d tickets for %d tokens", len(parsed.Data), len(tokens))
	}

	results := make([]push.Result, len(tokens))
	for i, ticket := range parsed.Data {
		results[i] = push.Result{Token: tokens[i]}
		if ticket.Status == "ok" {
			results[i].Outcome = push.OutcomeSuccess
			continue
		}
		results[i].Code = ticket.Details.Error
		results[i].Outcome = c.classifier.Classify(ticket.Details.Error)
	}

	return results, nil
}
