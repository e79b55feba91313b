// Package audit persists the append-only change trail for route mutations.
//
// Recording is best-effort relative to the route write: the registry calls
// Record after a successful persistence write and a failure here is logged
// and counted, never propagated. Observability must not block the control
// plane.
package audit

import (
	"context"
	"log/slog"

	"github.com/switchyard-systems/switchyard/internal/metrics"
	"github.com/switchyard-systems/switchyard/internal/store"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// Recorder appends route change records to the store's audit trail.
type Recorder struct {
	store  store.Store
	logger *slog.Logger
}

// NewRecorder creates a Recorder writing through the given store.
func NewRecorder(s store.Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, logger: logger}
}

// Record appends the event to the audit trail. Never returns an error.
func (r *Recorder) Record(ctx context.Context, event types.RouteChangeEvent) {
	if err := r.store.AppendAudit(ctx, event); err != nil {
		metrics.AuditAppendFailures.Add(1)
		r.logger.Error("failed to append audit record",
			"route", event.RouteKey.String(),
			"action", string(event.Action),
			"error", err)
		return
	}
	r.logger.Info("route change recorded",
		"route", event.RouteKey.String(),
		"action", string(event.Action),
		"oldBackend", event.OldBackendType,
		"newBackend", event.NewBackendType,
		"actor", event.Actor)
}

// Trail returns up to limit audit records for the identity tuple in
// chronological order.
func (r *Recorder) Trail(ctx context.Context, key types.RouteKey, limit int) ([]types.RouteChangeEvent, error) {
	return r.store.ListAudit(ctx, key, limit)
}
