// Package server provides the engine's HTTP server.
//
// This package hosts the liveness, readiness, and metrics endpoints plus
// the signal intake, and provides server lifecycle management including
// start, shutdown, and signal handling. The engine's evaluation and
// workflow surfaces are in-process APIs; the HTTP server exists for
// operators, schedulers, and upstream signal producers.
//
// # Basic Usage
//
// Creating and starting a server:
//
//	srv := server.New(&cfg.Server, server.Options{
//	    MetricsPath:    cfg.Metrics.Path,
//	    MetricsHandler: collector.Handler(),
//	    Readiness:      reg,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until the context is cancelled, a SIGTERM/SIGINT arrives,
// or the listener fails. Shutdown drains connections up to the configured
// shutdown timeout.
//
// # Routes
//
//   - GET /healthz - Liveness probe (always returns 200 while serving)
//   - GET /readyz  - Readiness probe (fails until rules are loaded)
//   - GET <metrics path> - Prometheus metrics, when metrics are enabled
//   - POST /signals - Compliance signal intake, when an intake handler
//     is configured
//
// # Thread Safety
//
// All server operations are thread-safe and can be called concurrently
// from multiple goroutines.
package server
