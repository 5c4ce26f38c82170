// Package httpserver wraps net/http with graceful shutdown, lifecycle hooks
// and health probes.
//
// Server.Run blocks until its context is cancelled, the process receives an
// interrupt or SIGTERM, or Shutdown is called. Shutdown then stops accepting
// connections, waits for in-flight requests and runs every StopHook, all under
// one deadline (Config.ShutdownTimeout). Stop hooks receive that deadline as a
// context, which is how the gateway closes its tenant sessions within the
// shutdown budget:
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(func(ctx context.Context, _ *slog.Logger) error {
//			return gw.Shutdown(ctx)
//		}),
//	)
//	err := srv.Run(ctx, router)
//
// LivenessHandler and ReadinessHandler serve /health/live and /health/ready.
// Readiness runs named checks (database, cache) with a per-probe timeout.
//
// Errors are wrapped with ErrStart or ErrShutdown for errors.Is matching.
package httpserver
