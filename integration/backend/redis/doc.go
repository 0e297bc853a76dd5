// Package redis provides the Redis cache backend driver together with
// production-ready client initialization and health checking.
//
// The driver stores every entry as the shared JSON payload under a
// configurable key prefix and relies on server-side TTLs for expiry.
// Scoped invalidation (Clear, ClearPath, ClearPattern) walks the prefix
// with non-blocking SCAN cursors and deletes in batches, so it never
// stalls the server the way KEYS would.
//
// # Usage
//
//	cfg, err := redis.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	b := redis.New(client, redis.WithKeyPrefix(cfg.KeyPrefix))
//	backend.SetCurrent(b)
//
// Connect validates the URL, retries with the configured interval, and
// verifies connectivity with a ping before returning the client.
package redis
