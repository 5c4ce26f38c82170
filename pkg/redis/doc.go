// Package redis connects to Redis with go-redis/v9 and offers a small JSON
// value store used for read-through caches.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil { ... }
//	defer client.Close()
//
//	store := redis.NewJSONStore(client, "tenantbot:registry:")
//	found, err := store.Get(ctx, id, &record)
//
// Healthcheck returns a readiness probe for the HTTP health endpoint.
package redis
