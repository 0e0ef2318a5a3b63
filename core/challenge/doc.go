// Package challenge stores HTTP-01 challenge responses and serves them over
// HTTP.
//
// During an HTTP-01 validation the ACME CA fetches
// /.well-known/acme-challenge/{token} and expects the key authorization back
// byte-for-byte. The validator writes token/response pairs into a
// ResponseStore; Handler (or Middleware, when the application owns the
// router) answers the CA's probe from the same store.
//
// MemoryStore is the default single-process implementation. A Redis-backed
// implementation for multi-instance deployments lives in
// integration/challenge/redis.
//
// # Usage
//
//	store := challenge.NewMemoryStore()
//	mux.Handle(challenge.WellKnownPath, challenge.Handler(store, logger))
package challenge
