// Package pg bootstraps PostgreSQL access with the pgx/v5 driver.
//
// Connect opens a *pgxpool.Pool with retry, Migrate applies embedded goose
// migrations through the same pool and Healthcheck returns a readiness probe.
// IsNotFoundError and IsDuplicateKeyError classify driver errors for
// repositories such as the tenant registry:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil { ... }
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, registry.Migrations, registry.MigrationsDir, log); err != nil { ... }
package pg
