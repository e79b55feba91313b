// Package stream implements the route change stream: best-effort fanout of
// RouteChangeEvents to configured sinks.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/switchyard-systems/switchyard/internal/metrics"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// Sink is a change-stream destination.
type Sink interface {
	Publish(ctx context.Context, event types.RouteChangeEvent) error
	Name() string
}

// Dispatcher fans route change events out to configured sinks. Delivery is
// best-effort: a failing sink is logged and counted, never propagated back
// to the mutation that produced the event.
type Dispatcher struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher from sink configs.
func NewDispatcher(configs []types.StreamSinkConfig, logger *slog.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{logger: logger}
	for _, cfg := range configs {
		sink, err := newSink(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating %s sink: %w", cfg.Type, err)
		}
		d.sinks = append(d.sinks, sink)
	}
	return d, nil
}

// AddSink appends a sink to the dispatcher.
func (d *Dispatcher) AddSink(s Sink) {
	d.sinks = append(d.sinks, s)
}

// Publish sends an event to all configured sinks.
func (d *Dispatcher) Publish(ctx context.Context, event types.RouteChangeEvent) {
	for _, sink := range d.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			metrics.StreamPublishFailures.Add(1)
			d.logger.Warn("stream publish failed",
				"sink", sink.Name(),
				"event", event.ID,
				"action", event.Action,
				"error", err)
		}
	}
}

// Close releases sink resources.
func (d *Dispatcher) Close() error {
	for _, sink := range d.sinks {
		if c, ok := sink.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
	return nil
}

func newSink(cfg types.StreamSinkConfig) (Sink, error) {
	switch cfg.Type {
	case types.SinkChannel:
		return NewChannelSink(cfg.Buffer), nil
	case types.SinkWebhook:
		if cfg.URL == "" {
			return nil, fmt.Errorf("webhook URL required")
		}
		return NewWebhookSink(cfg.URL), nil
	case types.SinkSNS:
		if cfg.TopicARN == "" {
			return nil, fmt.Errorf("SNS topic ARN required")
		}
		return NewSNSSink(cfg.TopicARN)
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Type)
	}
}
