// Package push defines the transport abstraction for delivering alert
// notifications to registered devices, and the outcome model used to
// aggregate delivery results.
package push

import (
	"context"

	"github.com/guardline/guardline/internal/device"
)

// Notification is the payload delivered to a device. The body carries
// only a summary and the event ID; recipients fetch the full event
// through the API.
type Notification struct {
	Title   string
	Body    string
	EventID string
}

// Outcome classifies the delivery result for a single token.
type Outcome int

const (
	// OutcomeSuccess means the provider accepted the message.
	OutcomeSuccess Outcome = iota

	// OutcomeTransient means delivery failed but the token may still be
	// valid. The token is kept and delivery may be retried later.
	OutcomeTransient

	// OutcomePermanent means the provider rejected the token as invalid
	// or unregistered. The token is removed from the registry.
	OutcomePermanent
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransient:
		return "transient"
	case OutcomePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Result is the per-token delivery result of a batch send.
type Result struct {
	// Token is the push token the result refers to.
	Token string

	// Outcome classifies the result.
	Outcome Outcome

	// Code is the provider error code for failed deliveries, empty on
	// success.
	Code string
}

// Transport delivers notifications to tokens of one transport kind.
type Transport interface {
	// Kind identifies the token kind this transport handles.
	Kind() device.TransportKind

	// MaxBatchSize is the largest number of tokens a single Send call
	// accepts.
	MaxBatchSize() int

	// Send delivers the notification to the given tokens and returns a
	// result per token, in token order. A non-nil error means the whole
	// batch failed without per-token results.
	Send(ctx context.Context, tokens []string, n Notification) ([]Result, error)
}

// Classifier maps provider error codes to outcomes. Codes not in the
// table classify as transient, so an unknown provider code never evicts
// a token.
type Classifier map[string]Outcome

// Classify returns the outcome for a provider error code.
func (c Classifier) Classify(code string) Outcome {
	if outcome, ok := c[code]; ok {
		return outcome
	}
	return OutcomeTransient
}
