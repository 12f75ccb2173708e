package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job type names carried in Pub/Sub messages. The scheduler publishes
// one message per job on its own cadence.
const (
	JobRegistrySweep   = "registry_sweep"
	JobRateWindowSweep = "rate_window_sweep"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	sweepJob         *SweepJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	SweepJob         *SweepJob
	Logger           zerolog.Logger
}

// SweepMessage represents a maintenance job message.
type SweepMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		sweepJob:         cfg.SweepJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	var sweepMsg SweepMessage
	if err := json.Unmarshal(msg.Data, &sweepMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse sweep message")
		msg.Nack()
		return
	}

	start := time.Now()
	removed, err := h.runJob(ctx, sweepMsg.JobType)
	if err != nil {
		if err == errUnknownJob {
			// Ack so the scheduler does not redeliver a message we will
			// never understand.
			logger.Warn().Str("job_type", sweepMsg.JobType).Msg("unknown job type")
			msg.Ack()
			return
		}
		logger.Error().Err(err).Str("job_type", sweepMsg.JobType).Msg("sweep failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", sweepMsg.JobType).
		Int64("removed", removed).
		Dur("duration", time.Since(start)).
		Msg("sweep completed")
	msg.Ack()
}

var errUnknownJob = fmt.Errorf("unknown job type")

func (h *PubSubHandler) runJob(ctx context.Context, jobType string) (int64, error) {
	switch jobType {
	case JobRegistrySweep:
		return h.sweepJob.RunRegistrySweep(ctx)
	case JobRateWindowSweep:
		return h.sweepJob.RunRateWindowSweep(ctx)
	default:
		return 0, errUnknownJob
	}
}
