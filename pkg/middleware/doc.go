// Package middleware provides observability for the navigation engine.
//
// Both middlewares wrap every restoration the dispatcher runs:
//
//	engine := nav.New(tree,
//	    nav.WithMiddleware(
//	        middleware.OpenTelemetry(),
//	        middleware.Prometheus(middleware.WithNamespace("ladder")),
//	    ),
//	    nav.WithObserver(middleware.Observer()),
//	)
//
// # Prometheus Metrics
//
//   - ladderpulse_restorations_total: restorations by kind and status
//   - ladderpulse_restoration_duration_seconds: restoration duration by kind
//   - ladderpulse_restoration_errors_total: failures by kind and error code
//   - ladderpulse_history_commits_total: history writes by mode
//   - ladderpulse_pending_restorations: restorations in flight
//   - ladderpulse_settle_timeouts_total: transitions that never settled
//   - ladderpulse_active_sessions: connected websocket sessions
//   - ladderpulse_websocket_errors_total: websocket errors by type
//
// Expose them with promhttp:
//
//	r.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry
//
// Each restoration becomes a span named "restore <kind>" carrying the state,
// the replay flag and any error. The span context is passed down to the
// loaders so outgoing API calls join the trace.
package middleware
