// Package syncer keeps the in-memory todo list, the Local Store and the
// remote API in step.
//
// A Synchronizer has a single owner loop (Run). The item list and the Local
// Store are only touched from that loop, so concurrent intents are applied
// one at a time and store writes never interleave. Remote calls run on the
// caller's goroutine, outside the loop; their single completion is handed
// back to the loop before any local effect is applied. Cancelling the
// context given to Run stops the loop, closes the store and cancels every
// remote call still in flight.
//
// Writes are best effort on both sides, with no two-phase commit:
//
//   - Add calls the API first. The server's fields win when it answers, the
//     draft's fields are used when it doesn't. Either way the item gets a
//     locally generated id (first free id from BaseID upward), is written to
//     the store and appended to the list.
//   - Update and Delete call the API, log the outcome, and then apply the
//     change locally regardless.
//
// Failures never abort an operation; they are reported in the returned
// Result, logged, and kept as the latest Status.
//
// Example:
//
//	s := syncer.New(client, syncer.WithLogger(logger))
//	go s.Run(ctx)
//	if err := s.Initialize(ctx, func(ctx context.Context) (store.Store, error) {
//	    return sqlitestore.OpenContext(ctx, path)
//	}); err != nil {
//	    logger.Warn("bootstrap fetch failed", "err", err)
//	}
//	res, err := s.Add(ctx, model.Draft{Text: "Buy milk", OwnerID: 1})
package syncer
