// Package metrics exposes runtime counters via expvar.
package metrics

import "expvar"

var (
	ResolvesTotal         = expvar.NewInt("resolves_total")
	ResolvesDenied        = expvar.NewInt("resolves_denied")
	RoutesMissing         = expvar.NewInt("routes_missing")
	UpsertsTotal          = expvar.NewInt("upserts_total")
	SwitchesTotal         = expvar.NewInt("switches_total")
	DeletesTotal          = expvar.NewInt("deletes_total")
	AuditAppendFailures   = expvar.NewInt("audit_append_failures")
	StreamPublishFailures = expvar.NewInt("stream_publish_failures")
	RegistryUnavailable   = expvar.NewInt("registry_unavailable")
)
