package otel

import (
	"context"
	"fmt"

	"github.com/vgccalc/vgccalc/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/vgccalc/vgccalc/internal/otel"

// CallMetrics records dispatched tool calls as OTel instruments.
type CallMetrics struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// CallMetrics creates the tool call instruments on the provider's meter.
func (p *Provider) CallMetrics() (*CallMetrics, error) {
	m := p.Meter(scopeName)
	calls, err := m.Int64Counter("vgccalc.tool.calls",
		metric.WithDescription("Tool calls by tool and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating call counter: %w", err)
	}
	duration, err := m.Float64Histogram("vgccalc.tool.duration",
		metric.WithDescription("Tool call latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	return &CallMetrics{calls: calls, duration: duration}, nil
}

// Observe records one call. It is registered as a dispatcher observer.
func (c *CallMetrics) Observe(rec core.CallRecord) {
	attrs := metric.WithAttributes(
		attribute.String("tool", rec.Tool),
		attribute.Bool("ok", rec.OK),
		attribute.String("kind", rec.ErrorKind),
		attribute.Bool("batch", rec.Batch),
	)
	ctx := context.Background()
	c.calls.Add(ctx, 1, attrs)
	c.duration.Record(ctx, float64(rec.Duration.Microseconds())/1000, attrs)
}
