// Package nav keeps the URL, the document title and the visible tab/modal
// tree of a single-page ladder site in sync.
//
// An Engine owns every piece of navigation state for one page:
//
//   - a signal registry of one-shot "transition finished" waiters
//   - a per-section cache of the last query string seen in each section
//   - a two-entry history stack used to fall back when an overlay closes
//   - the tab and modal coordinators that reveal UI and commit history
//   - the restoration dispatcher and the serializer that runs restorations
//     one at a time, in arrival order
//
// The engine drives a view.View and receives its transition events through
// the view.Listener methods it implements. Data loads go through a Loader.
//
// # Basic Usage
//
//	tree, _ := view.NewTree(layout)
//	engine := nav.New(tree,
//	    nav.WithLoader(apiLoader),
//	    nav.WithSettleTimeout(5*time.Second),
//	)
//	engine.RegisterTitle("player-stats-summary", characterTitle)
//
//	// initial page load
//	<-engine.Start(ctx)
//
//	// browser back/forward
//	<-engine.PopState(ctx, location)
package nav
