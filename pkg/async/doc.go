// Package async provides a small future type for fanning out blocking work
// and joining the results.
//
// ExecFuture represents one asynchronous computation that only returns an
// error. Exec starts a computation, Await blocks for it, and JoinAll waits
// for a whole batch while aggregating every error with errors.Join rather
// than stopping at the first failure. The join-all behavior matters to the
// certificate issuance flow: domain-ownership validators run concurrently,
// and each one must get to run its own cleanup even when a sibling validator
// has already failed.
//
// Basic fan-out:
//
//	futures := make([]*async.ExecFuture, 0, len(items))
//	for _, it := range items {
//		futures = append(futures, async.Exec(ctx, it, process))
//	}
//	if err := async.JoinAll(futures...); err != nil {
//		// err aggregates every individual failure
//	}
//
// All operations are safe for concurrent use, and a pre-canceled context
// short-circuits before the function runs.
package async
