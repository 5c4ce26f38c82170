// Package logger builds *slog.Logger instances for the gateway and keeps
// attribute naming consistent across packages.
//
// New creates a text or JSON handler and wraps it with LogHandlerDecorator,
// which runs registered ContextExtractor callbacks on every record. The
// gateway registers the extractors from pkg/scope so that each line logged
// while serving a webhook carries tenant_id, request_id and user_id without
// threading them through call sites:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "tenantbot"),
//		logger.WithLevelName(cfg.LogLevel),
//		logger.WithContextExtractors(
//			scope.TenantExtractor(),
//			scope.RequestExtractor(),
//			scope.UserExtractor(),
//		),
//	)
//	log.InfoContext(ctx, "tenant_resolved", logger.Version(sess.Version))
//
// Attribute helpers such as Error return an empty slog.Attr for nil input,
// so callers can pass them unconditionally.
package logger
