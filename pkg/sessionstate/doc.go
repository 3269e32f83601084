// Package sessionstate holds the client-side view of the authentication
// session for one page lifecycle: a request on the server, a tab on the
// client.
//
// A Store is the only mutable shared resource of the auth client. Readers get
// immutable Snapshot values through the read-only Observer interface; only the
// flow engine and the bootstrap coordinator write, and every write goes
// through an Op obtained from Store.Begin.
//
// Ordering: each Op carries a monotonically increasing token taken when the
// operation starts. A write is discarded when an operation that started later
// has already committed, so a refresh that resolves after a newer logout
// cannot bring back a logged-in state. Initialization is independent of
// tokens and always completes.
//
// Observers can block until initialization with WaitInitialized, or receive
// every change through Subscribe. Subscriptions coalesce: a slow reader sees
// the latest snapshot, never a stale backlog.
package sessionstate
