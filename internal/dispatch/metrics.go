package dispatch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/guardline/guardline/internal/dispatch"

// deliveryMetrics holds the fan-out instruments. Instrument creation
// failures leave a nil metrics value and dispatch proceeds unmeasured.
type deliveryMetrics struct {
	dispatchDuration metric.Float64Histogram
	dispatchTotal    metric.Int64Counter
	tokensTotal      metric.Int64Counter
	tokensEvicted    metric.Int64Counter
}

func newDeliveryMetrics() (*deliveryMetrics, error) {
	meter := otel.Meter(meterName)

	dispatchDuration, err := meter.Float64Histogram(
		"sos.dispatch.duration",
		metric.WithDescription("Duration of SOS dispatch fan-out in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	dispatchTotal, err := meter.Int64Counter(
		"sos.dispatch.total",
		metric.WithDescription("Total number of SOS dispatches"),
		metric.WithUnit("{dispatch}"),
	)
	if err != nil {
		return nil, err
	}

	tokensTotal, err := meter.Int64Counter(
		"sos.dispatch.tokens",
		metric.WithDescription("Device tokens targeted by dispatches, by delivery outcome"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	tokensEvicted, err := meter.Int64Counter(
		"sos.dispatch.tokens_evicted",
		metric.WithDescription("Device tokens evicted after a permanent provider rejection"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	return &deliveryMetrics{
		dispatchDuration: dispatchDuration,
		dispatchTotal:    dispatchTotal,
		tokensTotal:      tokensTotal,
		tokensEvicted:    tokensEvicted,
	}, nil
}

func (m *deliveryMetrics) recordDispatch(ctx context.Context, duration time.Duration, result *Result) {
	if m == nil {
		return
	}

	m.dispatchTotal.Add(ctx, 1)
	m.dispatchDuration.Record(ctx, duration.Seconds())
	m.tokensTotal.Add(ctx, int64(result.Sent),
		metric.WithAttributes(attribute.String("outcome", "sent")))
	m.tokensTotal.Add(ctx, int64(result.Errors),
		metric.WithAttributes(attribute.String("outcome", "error")))
}

func (m *deliveryMetrics) recordEvictions(ctx context.Context, kind string, count int) {
	if m == nil {
		return
	}
	m.tokensEvicted.Add(ctx, int64(count),
		metric.WithAttributes(attribute.String("transport", kind)))
}
