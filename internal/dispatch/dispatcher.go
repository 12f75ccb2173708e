// Package dispatch fans an SOS event out to the devices of every
// contact that accepted a trust request from the sender. It enforces
// the per-sender dispatch rate limit and evicts tokens the push
// providers report as permanently invalid.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/guardline/guardline/internal/device"
	"github.com/guardline/guardline/internal/push"
	"github.com/guardline/guardline/internal/sos"
)

// Dispatcher errors.
var (
	// ErrRateLimited is returned when the sender exhausted the dispatch
	// budget for the current window.
	ErrRateLimited = errors.New("dispatch rate limit exceeded")

	// ErrDispatchDenied is returned when the caller is not the event's
	// sender.
	ErrDispatchDenied = errors.New("only the sender may dispatch an event")
)

// cleanupBatchSize caps how many invalid tokens a single registry
// cleanup call removes.
const cleanupBatchSize = 450

// defaultBody is the notification body when the event carries no message.
const defaultBody = "A trusted contact needs help"

// EventSource looks up stored SOS events.
type EventSource interface {
	Get(ctx context.Context, id string) (*sos.Event, error)
}

// ContactLister returns the accounts that consented to receive alerts
// from an owner.
type ContactLister interface {
	ListAcceptedContacts(ctx context.Context, ownerID string) ([]string, error)
}

// DeviceSource resolves accounts to device records and removes invalid
// tokens.
type DeviceSource interface {
	ListByAccounts(ctx context.Context, accountIDs []string) ([]*device.Device, error)
	RemoveTokens(ctx context.Context, kind device.TransportKind, tokens []string) (int64, error)
}

// Result summarizes one dispatch.
type Result struct {
	// Sent is the number of tokens the providers accepted.
	Sent int

	// Recipients is the number of accepted contacts targeted.
	Recipients int

	// Tokens is the number of distinct tokens targeted across transports.
	Tokens int

	// ExpoTokens and WebTokens split Tokens by transport.
	ExpoTokens int
	WebTokens  int

	// Errors is the number of tokens that failed delivery, transient and
	// permanent alike.
	Errors int
}

// Dispatcher coordinates the fan-out of an event to push transports.
type Dispatcher struct {
	events     EventSource
	contacts   ContactLister
	devices    DeviceSource
	limiter    RateLimiter
	transports map[device.TransportKind]push.Transport
	logger     zerolog.Logger
	metrics    *deliveryMetrics
}

// NewDispatcher creates a dispatcher sending through the given
// transports, keyed by the token kind each one handles.
func NewDispatcher(
	events EventSource,
	contacts ContactLister,
	devices DeviceSource,
	limiter RateLimiter,
	transports []push.Transport,
	logger zerolog.Logger,
) *Dispatcher {
	byKind := make(map[device.TransportKind]push.Transport, len(transports))
	for _, t := range transports {
		byKind[t.Kind()] = t
	}

	metrics, err := newDeliveryMetrics()
	if err != nil {
		logger.Warn().Err(err).Msg("delivery metrics unavailable")
	}

	return &Dispatcher{
		events:     events,
		contacts:   contacts,
		devices:    devices,
		limiter:    limiter,
		transports: byKind,
		logger:     logger.With().Str("component", "dispatcher").Logger(),
		metrics:    metrics,
	}
}

// Dispatch sends the event to every accepted contact's devices. Only the
// sender may dispatch, and each dispatch consumes one unit of the
// sender's rate budget. The budget is checked and consumed before the
// event is even looked up, so a failed lookup still costs an attempt
// and an exhausted budget fails before anything else. A dispatch with
// no consenting recipients succeeds with an empty result.
func (d *Dispatcher) Dispatch(ctx context.Context, callerID, eventID string) (*Result, error) {
	start := time.Now()

	allowed, err := d.limiter.Allow(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrRateLimited
	}

	event, err := d.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.SenderID != callerID {
		return nil, ErrDispatchDenied
	}

	contacts, err := d.contacts.ListAcceptedContacts(ctx, event.SenderID)
	if err != nil {
		return nil, err
	}

	result := &Result{Recipients: len(contacts)}
	if len(contacts) == 0 {
		d.logger.Info().Str("event_id", eventID).Msg("dispatch with no consenting recipients")
		d.metrics.recordDispatch(ctx, time.Since(start), result)
		return result, nil
	}

	devices, err := d.devices.ListByAccounts(ctx, contacts)
	if err != nil {
		return nil, err
	}

	tokens := partitionTokens(devices)
	result.ExpoTokens = len(tokens[device.KindExpoPush])
	result.WebTokens = len(tokens[device.KindWebPush])
	result.Tokens = result.ExpoTokens + result.WebTokens

	notification := push.Notification{
		Title:   "Emergency alert",
		Body:    event.Message,
		EventID: event.ID,
	}
	if notification.Body == "" {
		notification.Body = defaultBody
	}

	invalid := d.send(ctx, tokens, notification, result)
	d.cleanup(ctx, invalid)
	d.metrics.recordDispatch(ctx, time.Since(start), result)

	d.logger.Info().
		Str("event_id", eventID).
		Int("recipients", result.Recipients).
		Int("tokens", result.Tokens).
		Int("sent", result.Sent).
		Int("errors", result.Errors).
		Msg("dispatch complete")

	return result, nil
}

// partitionTokens collects device tokens by transport kind, deduplicated
// by token string. The same token registered on multiple records is
// targeted once.
func partitionTokens(devices []*device.Device) map[device.TransportKind][]string {
	out := make(map[device.TransportKind][]string)
	seen := make(map[string]struct{})

	for _, kind := range []device.TransportKind{device.KindExpoPush, device.KindWebPush} {
		for _, dev := range devices {
			token := dev.Token(kind)
			if token == nil {
				continue
			}
			if _, dup := seen[*token]; dup {
				continue
			}
			seen[*token] = struct{}{}
			out[kind] = append(out[kind], *token)
		}
	}

	return out
}

// send fans the notification out to all transports, one goroutine per
// batch, and aggregates the per-token outcomes into the result. It
// returns the tokens reported permanently invalid, by kind.
func (d *Dispatcher) send(
	ctx context.Context,
	tokens map[device.TransportKind][]string,
	n push.Notification,
	result *Result,
) map[device.TransportKind][]string {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		invalid = make(map[device.TransportKind][]string)
	)

	for kind, kindTokens := range tokens {
		transport, ok := d.transports[kind]
		if !ok {
			d.logger.Warn().Str("kind", string(kind)).Int("tokens", len(kindTokens)).
				Msg("no transport configured for kind")
			mu.Lock()
			result.Errors += len(kindTokens)
			mu.Unlock()
			continue
		}

		for _, batch := range chunk(kindTokens, transport.MaxBatchSize()) {
			wg.Add(1)
			go func(kind device.TransportKind, batch []string) {
				defer wg.Done()

				results, err := transport.Send(ctx, batch, n)
				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					// A whole-batch failure says nothing about individual
					// tokens, so none are evicted.
					d.logger.Error().Err(err).Str("kind", string(kind)).
						Int("batch_size", len(batch)).Msg("batch send failed")
					result.Errors += len(batch)
					return
				}

				for _, res := range results {
					switch res.Outcome {
					case push.OutcomeSuccess:
						result.Sent++
					case push.OutcomePermanent:
						result.Errors++
						invalid[kind] = append(invalid[kind], res.Token)
					default:
						result.Errors++
					}
				}
			}(kind, batch)
		}
	}

	wg.Wait()
	return invalid
}

// cleanup removes permanently invalid tokens from the registry in
// batches. Cleanup is best effort: a failure is logged and never fails
// the dispatch.
func (d *Dispatcher) cleanup(ctx context.Context, invalid map[device.TransportKind][]string) {
	for kind, tokens := range invalid {
		for _, batch := range chunk(tokens, cleanupBatchSize) {
			removed, err := d.devices.RemoveTokens(ctx, kind, batch)
			if err != nil {
				d.logger.Error().Err(err).Str("kind", string(kind)).
					Int("tokens", len(batch)).Msg("token cleanup failed")
				continue
			}
			d.metrics.recordEvictions(ctx, string(kind), len(batch))
			d.logger.Info().Str("kind", string(kind)).
				Int("tokens", len(batch)).Int64("records", removed).
				Msg("removed invalid tokens")
		}
	}
}

// chunk splits tokens into slices of at most size elements.
func chunk(tokens []string, size int) [][]string {
	if size <= 0 {
		return [][]string{tokens}
	}

	var batches [][]string
	for len(tokens) > size {
		batches = append(batches, tokens[:size])
		tokens = tokens[size:]
	}
	if len(tokens) > 0 {
		batches = append(batches, tokens)
	}
	return batches
}
