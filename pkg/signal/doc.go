// Package signal provides one-shot settle signals keyed by element id.
//
// A producer (the view layer) fires a signal once an asynchronous visual
// transition has actually taken effect: a tab was shown, a modal finished
// opening or closing, a collapsible finished hiding. A consumer registers
// interest before triggering the transition and then waits:
//
//	w := reg.Await("player-stats-summary")
//	view.ShowTab("player-stats-summary")
//	if err := w.Wait(ctx); err != nil {
//	    // ctx expired before the tab settled
//	}
//
// Resolve fires the pending waiter for an id and removes the registration.
// Resolving an id nobody waits for is a no-op.
//
// # Double Registration
//
// Awaiting an id that already has a pending waiter returns the same waiter,
// so both callers are released by the one Resolve.
package signal
