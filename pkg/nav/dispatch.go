package nav

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	perrors "github.com/vango-dev/ladderpulse/internal/errors"
	"github.com/vango-dev/ladderpulse/pkg/navstate"
	"github.com/vango-dev/ladderpulse/pkg/view"
)

// Event is a request to bring the page to a state.
type Event struct {
	// State to restore. Nil means the event carried nothing usable, in
	// which case only the anchored tabs of the current location are
	// revealed again.
	State *navstate.State

	// Location, when set, is where the browser went. The view follows it
	// once the restoration starts, not when the event is scheduled.
	Location string

	// Push commits State as a new history entry before restoring it. A
	// push of the entry already on top is dropped.
	Push bool
}

// Restoration is one run of the dispatcher.
type Restoration struct {
	State  navstate.State
	Target navstate.Target
	Push   bool

	// Completed is set when State was an anchor-only link filled in from
	// the section cache.
	Completed bool

	// Replay is set when the data for State is already on screen and the
	// loads were skipped.
	Replay bool
}

// Kind returns the discriminator being restored.
func (r *Restoration) Kind() navstate.Kind {
	return r.Target.Kind()
}

// RestoreFunc runs a restoration.
type RestoreFunc func(ctx context.Context, r *Restoration) error

// Middleware wraps a RestoreFunc.
type Middleware func(next RestoreFunc) RestoreFunc

// task is one step of a restoration plan.
type task func(ctx context.Context) error

// plan is what a target needs: data loads, run concurrently, then UI
// steps, run in order once every load succeeded.
type plan struct {
	loads []task
	lazy  []task
}

// Dispatcher turns a state into data loads and UI steps.
type Dispatcher struct {
	e *Engine

	mu         sync.Mutex
	middleware []Middleware
	last       string
}

func newDispatcher(e *Engine, mw []Middleware) *Dispatcher {
	return &Dispatcher{e: e, middleware: mw}
}

// Use appends middleware to the chain.
func (d *Dispatcher) Use(mw ...Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middleware = append(d.middleware, mw...)
}

// Restore brings the page to ev.State. Errors are surfaced through the view
// and returned. Whatever happens, the tabs are reconciled afterwards and
// the pending counter is released.
func (d *Dispatcher) Restore(ctx context.Context, ev Event) error {
	if ev.Location != "" {
		if f, ok := d.e.view.(view.Follower); ok {
			f.Follow(ev.Location)
		}
	}

	if ev.State == nil {
		err := d.e.tabs.ShowAnchoredTabs(ctx, d.e.currentState())
		d.e.surface(err)
		return err
	}

	d.e.pending.Begin()
	defer d.e.pending.End()
	defer d.e.tabs.ReconcileActiveTabs(false)

	st, completed := d.complete(ctx, *ev.State)
	target, err := navstate.ParseTarget(st)
	if err != nil {
		err = perrors.New("N002").Wrap(err)
		d.e.surface(err)
		return err
	}

	r := &Restoration{State: st, Target: target, Push: ev.Push, Completed: completed}
	if err := d.chain()(ctx, r); err != nil {
		d.e.surface(err)
		return err
	}
	return nil
}

func (d *Dispatcher) chain() RestoreFunc {
	d.mu.Lock()
	mw := d.middleware
	d.mu.Unlock()

	h := RestoreFunc(d.run)
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

func (d *Dispatcher) run(ctx context.Context, r *Restoration) error {
	p := d.plan(r)
	r.Replay = d.onScreen(r.State)

	switch {
	case r.Push && r.Replay && d.e.isCurrent(r.State):
		// Pushing the entry already on top writes nothing.
	case r.Push:
		d.e.Commit(ctx, d.e.titleFor(r.State), r.State, false)
	case r.Completed:
		d.e.Commit(ctx, d.e.titleFor(r.State), r.State, true)
	default:
		d.e.mirror(r.State)
	}

	if !r.Replay && len(p.loads) > 0 {
		var g errgroup.Group
		for _, load := range p.loads {
			load := load
			g.Go(func() error {
				return load(ctx)
			})
		}
		if err := g.Wait(); err != nil {
			d.forget()
			return err
		}
	}
	d.remember(r.State)

	for _, step := range p.lazy {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// complete fills an anchor-only state with the query last committed in the
// anchor's section. It reports whether it did.
func (d *Dispatcher) complete(ctx context.Context, st navstate.State) (navstate.State, bool) {
	if st.Type != navstate.KindNone || st.Hash == "" {
		return st, false
	}
	if len(st.Params.Without(navstate.KeyTab, navstate.KeyModal)) > 0 {
		return st, false
	}
	q, ok := d.e.sections.Get(ctx, d.e.view.Section(st.Hash))
	if !ok {
		return st, false
	}
	cached, err := navstate.Parse(q)
	if err != nil || cached.Type == navstate.KindNone {
		return st, false
	}
	cached.Hash = st.Hash
	cached.Params = append(cached.Params.Without(navstate.KeyTab, navstate.KeyModal), st.Params...)
	return cached, true
}

// =============================================================================
// Idempotent replay
// =============================================================================

// hasData reports whether restoring a state of kind k loads anything.
func hasData(k navstate.Kind) bool {
	return k.Known() && k != navstate.KindModal
}

// remember records that the data for st is on screen.
func (d *Dispatcher) remember(st navstate.State) {
	if !hasData(st.Type) {
		return
	}
	d.mu.Lock()
	d.last = st.Key()
	d.mu.Unlock()
}

func (d *Dispatcher) forget() {
	d.mu.Lock()
	d.last = ""
	d.mu.Unlock()
}

func (d *Dispatcher) onScreen(st navstate.State) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last != "" && d.last == st.Key()
}

// =============================================================================
// Plans
// =============================================================================

func (d *Dispatcher) plan(r *Restoration) plan {
	l := d.e.loader
	st := r.State

	switch t := r.Target.(type) {
	case navstate.LadderTarget:
		form := t.FormQuery()
		return plan{
			loads: []task{
				func(ctx context.Context) error { return l.Ladder(ctx, form, t.Cursor) },
				func(ctx context.Context) error { return l.LadderStats(ctx, form) },
				func(ctx context.Context) error { return l.LeagueBounds(ctx, form) },
			},
			lazy: []task{d.hideActive(), d.showAnchoredTabs(st), d.scrollTo("ladder-top")},
		}

	case navstate.CharacterTarget:
		return plan{
			loads: []task{func(ctx context.Context) error { return l.Character(ctx, t.ID) }},
			lazy:  []task{d.hideActive("player-info"), d.showModal("player-info"), d.showAnchoredTabs(st)},
		}

	case navstate.SearchTarget:
		return plan{
			loads: []task{func(ctx context.Context) error { return l.CharacterSearch(ctx, t.Name) }},
			lazy: []task{
				d.collapse("form-search"),
				d.hideModal("error-generation"),
				d.hideActive(),
				d.scrollTo("search-result-all"),
			},
		}

	case navstate.VODSearchTarget:
		return plan{
			loads: []task{func(ctx context.Context) error { return l.VODSearch(ctx, t.FormQuery()) }},
			lazy:  []task{d.hideActive(), d.showAnchoredTabs(st), d.scrollTo("search-result-vod-all")},
		}

	case navstate.TeamMMRTarget:
		return plan{
			loads: []task{func(ctx context.Context) error { return l.TeamMMR(ctx, t.FormQuery()) }},
			lazy:  []task{d.hideActive("team-mmr-history"), d.showModal("team-mmr-history")},
		}

	case navstate.OnlineTarget:
		return plan{
			loads: []task{func(ctx context.Context) error { return l.Online(ctx, t.FormQuery()) }},
			lazy:  []task{d.hideActive(), d.showAnchoredTabs(st), d.scrollTo("online-data")},
		}

	case navstate.ClanSearchTarget:
		return plan{
			loads: []task{func(ctx context.Context) error {
				return l.ClanSearch(ctx, t.FormQuery(), t.Cursor, t.Sort)
			}},
			lazy: []task{d.hideActive(), d.showAnchoredTabs(st), d.scrollTo("search-result-clan-all")},
		}

	case navstate.FollowingLadderTarget:
		return plan{
			loads: []task{func(ctx context.Context) error {
				return l.FollowingLadder(ctx, t.FormQuery(), t.Cursor)
			}},
			lazy: []task{d.hideActive(), d.showAnchoredTabs(st), d.scrollTo("following-ladder")},
		}

	case navstate.VersusTarget:
		return plan{
			loads: []task{func(ctx context.Context) error { return l.Versus(ctx, t.FormQuery()) }},
			lazy:  []task{d.hideActive("modal-versus"), d.showModal("modal-versus")},
		}

	case navstate.GroupTarget:
		return plan{
			loads: []task{func(ctx context.Context) error { return l.Group(ctx, t) }},
			lazy:  []task{d.hideActive("group"), d.showModal("group")},
		}

	case navstate.ModalTarget:
		return plan{
			lazy: []task{d.hideActive(t.ID), d.showModal(t.ID), d.showAnchoredTabs(st)},
		}

	case navstate.TeamSearchTarget:
		return plan{
			loads: []task{func(ctx context.Context) error { return l.TeamSearch(ctx, t.FormQuery()) }},
			lazy:  []task{d.hideActive(), d.showAnchoredTabs(st), d.scrollTo("team-search-results")},
		}
	}

	return plan{
		lazy: []task{d.hideActive(), d.showAnchoredTabs(st)},
	}
}

// UI steps. Modal transitions started here are replays and never write
// history themselves.

func (d *Dispatcher) hideActive(skip ...string) task {
	return func(ctx context.Context) error {
		return d.e.modals.hideActive(ctx, true, skip...)
	}
}

func (d *Dispatcher) hideModal(id string) task {
	return func(ctx context.Context) error {
		return d.e.modals.hide(ctx, id, true)
	}
}

func (d *Dispatcher) showModal(id string) task {
	return func(ctx context.Context) error {
		return d.e.modals.show(ctx, id, true)
	}
}

func (d *Dispatcher) showAnchoredTabs(st navstate.State) task {
	return func(ctx context.Context) error {
		return d.e.tabs.ShowAnchoredTabs(ctx, st)
	}
}

func (d *Dispatcher) collapse(id string) task {
	return func(ctx context.Context) error {
		return d.e.collapse(ctx, id)
	}
}

func (d *Dispatcher) scrollTo(id string) task {
	return func(context.Context) error {
		d.e.view.ScrollTo(id)
		return nil
	}
}
