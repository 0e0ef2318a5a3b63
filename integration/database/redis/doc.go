// Package redis provides Redis client initialization with connection
// validation and retry logic.
//
// Connect validates the connection URL, retries transient failures with
// backoff, and verifies connectivity with a ping before returning the
// client. Healthcheck returns a probe function suitable for readiness
// endpoints.
//
// Configuration is handled through the Config struct with environment
// variable mapping; both redis:// and rediss:// (TLS) URL schemes are
// supported.
//
//	cfg := redis.Config{ConnectionURL: "redis://localhost:6379/0"}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
package redis
