package nav

import (
	"context"
	"slices"
	"sync"

	"github.com/vango-dev/ladderpulse/pkg/navstate"
	"github.com/vango-dev/ladderpulse/pkg/view"
)

// ModalPhase is where a modal is in its show/hide cycle.
type ModalPhase int

const (
	ModalHidden ModalPhase = iota
	ModalShowing
	ModalShown
	ModalHiding
)

func (p ModalPhase) String() string {
	switch p {
	case ModalShowing:
		return "showing"
	case ModalShown:
		return "shown"
	case ModalHiding:
		return "hiding"
	}
	return "hidden"
}

type modalState struct {
	phase ModalPhase

	// replay marks a transition started by a restoration. Its completion
	// must not write history.
	replay bool

	// scrollY is the page offset saved when an inline modal opened.
	scrollY   int
	hasScroll bool
}

// ModalCoordinator shows and hides modals and keeps history in step with
// them.
type ModalCoordinator struct {
	e *Engine

	mu     sync.Mutex
	states map[string]*modalState
}

func newModalCoordinator(e *Engine) *ModalCoordinator {
	return &ModalCoordinator{e: e, states: make(map[string]*modalState)}
}

// Phase returns the phase of a modal.
func (m *ModalCoordinator) Phase(id string) ModalPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[id]; ok {
		return st.phase
	}
	if m.e.view.IsShown(id) {
		return ModalShown
	}
	return ModalHidden
}

// Show opens a modal and waits until it is shown.
func (m *ModalCoordinator) Show(ctx context.Context, id string) error {
	return m.show(ctx, id, false)
}

// HideActive closes the most recently shown modal unless its id is in skip.
func (m *ModalCoordinator) HideActive(ctx context.Context, skip ...string) error {
	return m.hideActive(ctx, false, skip...)
}

func (m *ModalCoordinator) state(id string) *modalState {
	st, ok := m.states[id]
	if !ok {
		st = &modalState{}
		m.states[id] = st
	}
	return st
}

func (m *ModalCoordinator) show(ctx context.Context, id string, replay bool) error {
	v := m.e.view
	info, ok := v.Modal(id)
	if !ok {
		return notFound("no modal %q", id)
	}
	if v.IsShown(id) {
		return nil
	}

	if info.Flavor == view.Overlay {
		for _, other := range v.ShownModals() {
			if o, _ := v.Modal(other); other != id && o.Flavor == view.Overlay {
				if err := m.hide(ctx, other, true); err != nil {
					return err
				}
			}
		}
	}

	m.mu.Lock()
	st := m.state(id)
	if st.phase == ModalShowing {
		m.mu.Unlock()
		return m.e.wait(ctx, m.e.signals.Await(id))
	}
	st.phase = ModalShowing
	st.replay = replay
	if info.Flavor == view.Inline {
		st.scrollY, st.hasScroll = v.ScrollY(), true
	}
	m.mu.Unlock()

	w := m.e.signals.Await(id)
	v.ShowModal(id)
	return m.e.wait(ctx, w)
}

func (m *ModalCoordinator) hide(ctx context.Context, id string, replay bool) error {
	v := m.e.view
	if !v.IsShown(id) {
		return nil
	}

	m.mu.Lock()
	st := m.state(id)
	st.phase = ModalHiding
	st.replay = replay
	m.mu.Unlock()

	w := m.e.signals.Await(id)
	v.HideModal(id)
	return m.e.wait(ctx, w)
}

func (m *ModalCoordinator) hideActive(ctx context.Context, replay bool, skip ...string) error {
	shown := m.e.view.ShownModals()
	if len(shown) == 0 {
		return nil
	}
	id := shown[len(shown)-1]
	if slices.Contains(skip, id) {
		return nil
	}
	return m.hide(ctx, id, replay)
}

// shown handles the view's ModalShown event.
func (m *ModalCoordinator) shown(ctx context.Context, id string) {
	m.mu.Lock()
	st := m.state(id)
	replay := st.replay && st.phase == ModalShowing
	st.phase = ModalShown
	st.replay = false
	m.mu.Unlock()

	if !replay {
		m.commitShown(ctx, id)
	}
	m.e.signals.Resolve(id)
}

// hidden handles the view's ModalHidden event.
func (m *ModalCoordinator) hidden(ctx context.Context, id string) {
	m.mu.Lock()
	st := m.state(id)
	replay := st.replay && st.phase == ModalHiding
	scrollY, hasScroll := st.scrollY, st.hasScroll
	st.phase = ModalHidden
	st.replay = false
	st.hasScroll = false
	m.mu.Unlock()

	if hasScroll {
		m.e.view.SetScrollY(scrollY)
	}
	if !replay {
		m.restorePrevious(ctx)
	}
	m.e.signals.Resolve(id)
}

// commitShown writes history for a modal the user opened. Singletons get
// an entry of their own; other modals extend the tab-derived state.
func (m *ModalCoordinator) commitShown(ctx context.Context, id string) {
	info, _ := m.e.view.Modal(id)
	if !info.Singleton {
		m.e.tabs.reconcile(ctx, commitPush)
		return
	}

	st := navstate.State{
		Type: navstate.KindModal,
		Params: navstate.Params{
			{Key: "id", Value: id},
			{Key: navstate.KeyModal, Value: "1"},
		},
		Hash: id,
	}
	title := m.e.titleFor(st)
	m.e.view.SetTitle(title)
	m.e.view.SetDescription(m.e.descriptionFor(st))
	m.e.Commit(ctx, title, st, false)
}

// restorePrevious brings back the page entry that was current before an
// overlay took over the URL.
func (m *ModalCoordinator) restorePrevious(ctx context.Context) {
	cur, ok := m.e.history.Current()
	if !ok {
		return
	}
	if st, err := navstate.Parse(cur.State); err != nil || !st.IsModal() {
		return
	}
	prev, ok := m.e.history.Previous()
	st, err := navstate.Parse(prev.State)
	if !ok || err != nil || st.IsModal() {
		// The page entry fell off the stack or never existed; derive it from the
		// tabs left on screen.
		m.e.tabs.reconcile(ctx, commitPush)
		return
	}

	m.e.view.SetTitle(prev.Title)
	m.e.view.SetDescription(m.e.descriptionFor(st))
	m.e.Commit(ctx, prev.Title, st, false)
}
