// Package redis provides a Redis-backed challenge response store for
// multi-instance HTTP-01 deployments.
//
// When several instances share a hostname behind a load balancer, the CA's
// probe may land on a different instance than the one running the
// validation. Backing the response store with Redis lets any instance
// answer. Responses carry a TTL so abandoned validations expire on their
// own.
//
//	client, err := redisdb.Connect(ctx, redisdb.Config{ConnectionURL: url})
//	if err != nil {
//		log.Fatal(err)
//	}
//	store := redis.New(client)
package redis
