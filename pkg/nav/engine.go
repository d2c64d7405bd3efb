package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	perrors "github.com/vango-dev/ladderpulse/internal/errors"
	"github.com/vango-dev/ladderpulse/pkg/navstate"
	"github.com/vango-dev/ladderpulse/pkg/signal"
	"github.com/vango-dev/ladderpulse/pkg/view"
)

// Sentinel errors. They are coded so that wrapped occurrences carrying more
// detail still match with errors.Is.
var (
	// ErrElementNotFound is returned when a state references a tab, modal
	// or collapsible the layout does not have.
	ErrElementNotFound = perrors.New("N010")

	// ErrSettleTimeout is logged when a transition does not report
	// completion in time.
	ErrSettleTimeout = perrors.New("N020")

	// ErrNetwork marks a data load that never reached the API.
	ErrNetwork = perrors.New("N101")

	// ErrUnauthorized marks a data load the API refused with 401. The
	// engine asks the view to re-authenticate instead of showing an error.
	ErrUnauthorized = perrors.New("N102")
)

// DefaultSettleTimeout bounds every wait for a transition event.
const DefaultSettleTimeout = 5 * time.Second

// TextFunc generates a document title or description from the committed
// state's params and its anchor.
type TextFunc func(params navstate.Params, anchor string) string

// Observer receives engine events for metrics.
type Observer interface {
	HistoryCommitted(replace bool)
	PendingChanged(n int)
	SettleTimedOut(id string)
}

type nopObserver struct{}

func (nopObserver) HistoryCommitted(bool) {}
func (nopObserver) PendingChanged(int)    {}
func (nopObserver) SettleTimedOut(string) {}

// Option configures an Engine.
type Option func(*Engine)

// WithLoader sets the data loader.
func WithLoader(l Loader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithSettleTimeout bounds each wait for a transition event. Zero waits
// until the caller's context is done.
func WithSettleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.settleTimeout = d
	}
}

// WithSectionStore sets where section queries are cached.
func WithSectionStore(s SectionStore) Option {
	return func(e *Engine) {
		e.sectionStore = s
	}
}

// WithDefaultTitle sets the title used when no generator matches the anchor.
func WithDefaultTitle(title string) Option {
	return func(e *Engine) {
		e.defaultTitle = title
	}
}

// WithDefaultDescription sets the description used when no generator
// matches the anchor.
func WithDefaultDescription(desc string) Option {
	return func(e *Engine) {
		e.defaultDescription = desc
	}
}

// WithMiddleware wraps every restoration.
func WithMiddleware(mw ...Middleware) Option {
	return func(e *Engine) {
		e.middleware = append(e.middleware, mw...)
	}
}

// Engine is the navigation state of one page.
type Engine struct {
	view               view.View
	loader             Loader
	logger             *slog.Logger
	observer           Observer
	settleTimeout      time.Duration
	sectionStore       SectionStore
	defaultTitle       string
	defaultDescription string
	middleware         []Middleware

	signals    *signal.Registry
	history    *HistoryStack
	sections   *SectionCache
	pending    *PendingCounter
	tabs       *TabCoordinator
	modals     *ModalCoordinator
	dispatcher *Dispatcher
	serializer *Serializer

	// restoring is non-zero while a restoration runs. Tab events nobody
	// waits for are user clicks only outside restorations.
	restoring atomic.Int32

	mu           sync.RWMutex
	titles       map[string]TextFunc
	descriptions map[string]TextFunc
	sectionTasks map[string]func()
}

// New creates an engine driving v and registers it as v's listener.
func New(v view.View, opts ...Option) *Engine {
	e := &Engine{
		view:          v,
		loader:        NopLoader{},
		observer:      nopObserver{},
		settleTimeout: DefaultSettleTimeout,
		titles:        make(map[string]TextFunc),
		descriptions:  make(map[string]TextFunc),
		sectionTasks:  make(map[string]func()),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default().With("component", "nav")
	}

	e.signals = signal.NewRegistry()
	e.history = NewHistoryStack()
	e.sections = NewSectionCache(e.sectionStore, e.logger)
	e.pending = NewPendingCounter(v.SetLoading, e.logger)
	e.pending.observe = e.observer.PendingChanged
	e.tabs = &TabCoordinator{e: e}
	e.modals = newModalCoordinator(e)
	e.dispatcher = newDispatcher(e, e.middleware)
	e.serializer = &Serializer{e: e}

	v.SetListener(e)
	return e
}

// Accessors.

func (e *Engine) Signals() *signal.Registry { return e.signals }
func (e *Engine) History() *HistoryStack    { return e.history }
func (e *Engine) Sections() *SectionCache   { return e.sections }
func (e *Engine) Pending() *PendingCounter  { return e.pending }
func (e *Engine) Tabs() *TabCoordinator     { return e.tabs }
func (e *Engine) Modals() *ModalCoordinator { return e.modals }
func (e *Engine) Dispatcher() *Dispatcher   { return e.dispatcher }
func (e *Engine) Serializer() *Serializer   { return e.serializer }
func (e *Engine) View() view.View           { return e.view }

// =============================================================================
// Registries
// =============================================================================

// RegisterTitle sets the title generator for states anchored at anchor.
func (e *Engine) RegisterTitle(anchor string, fn TextFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.titles[anchor] = fn
}

// RegisterDescription sets the description generator for states anchored
// at anchor.
func (e *Engine) RegisterDescription(anchor string, fn TextFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.descriptions[anchor] = fn
}

// RegisterSectionTask runs fn after every commit anchored at tab.
func (e *Engine) RegisterSectionTask(tab string, fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sectionTasks[tab] = fn
}

func (e *Engine) titleFor(st navstate.State) string {
	e.mu.RLock()
	fn := e.titles[st.Hash]
	e.mu.RUnlock()
	if fn == nil {
		return e.defaultTitle
	}
	return fn(st.AllParams(), st.Hash)
}

func (e *Engine) descriptionFor(st navstate.State) string {
	e.mu.RLock()
	fn := e.descriptions[st.Hash]
	e.mu.RUnlock()
	if fn == nil {
		return e.defaultDescription
	}
	return fn(st.AllParams(), st.Hash)
}

func (e *Engine) sectionTask(tab string) func() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sectionTasks[tab]
}

// =============================================================================
// Entry points
// =============================================================================

// Start restores the state in the view's current location. It is the
// initial page load.
func (e *Engine) Start(ctx context.Context) <-chan error {
	return e.PopState(ctx, e.view.Location())
}

// PopState restores the state the browser moved to. The view follows the
// location when the restoration starts, after every earlier one finished.
// A location that cannot be parsed is treated as an event without state.
func (e *Engine) PopState(ctx context.Context, location string) <-chan error {
	ev := Event{Location: location}
	st, err := navstate.Parse(location)
	if err != nil {
		e.logger.Debug("unparseable location", "location", location, "error", err)
		return e.serializer.Schedule(ctx, ev)
	}
	if !st.Empty() {
		ev.State = &st
	}
	return e.serializer.Schedule(ctx, ev)
}

// Navigate commits st as a new history entry and restores it. This is the
// path for form submissions and in-page links.
func (e *Engine) Navigate(ctx context.Context, st navstate.State) <-chan error {
	return e.serializer.Schedule(ctx, Event{State: &st, Push: true})
}

// SelectTab reveals target as a user selection would.
func (e *Engine) SelectTab(ctx context.Context, target string) error {
	return e.tabs.SelectTab(ctx, target)
}

// ShowModal opens a modal as a user action would.
func (e *Engine) ShowModal(ctx context.Context, id string) error {
	return e.modals.Show(ctx, id)
}

// HideModal closes the active modal as a user action would.
func (e *Engine) HideModal(ctx context.Context) error {
	return e.modals.HideActive(ctx)
}

// Idle returns a channel closed once every scheduled restoration finished.
func (e *Engine) Idle() <-chan struct{} {
	return e.serializer.Idle()
}

// =============================================================================
// view.Listener
// =============================================================================

var _ view.Listener = (*Engine)(nil)

// TabShown implements view.Listener.
func (e *Engine) TabShown(target string) {
	if e.signals.Resolve(target) {
		return
	}
	if e.restoring.Load() > 0 {
		return
	}
	// A tab nobody asked for: the user clicked it.
	e.tabs.reconcile(context.Background(), commitPush)
}

// ModalShown implements view.Listener.
func (e *Engine) ModalShown(id string) {
	e.modals.shown(context.Background(), id)
}

// ModalHidden implements view.Listener.
func (e *Engine) ModalHidden(id string) {
	e.modals.hidden(context.Background(), id)
}

// Settled implements view.Listener.
func (e *Engine) Settled(id string) {
	e.signals.Resolve(id)
}

// =============================================================================
// Helpers
// =============================================================================

// wait blocks until w fires. A settle timeout is logged and treated as
// success so that a lost transition event cannot stall navigation; the
// caller's own cancellation is returned.
func (e *Engine) wait(ctx context.Context, w *signal.Waiter) error {
	wctx := ctx
	if e.settleTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, e.settleTimeout)
		defer cancel()
	}

	err := w.Wait(wctx)
	if err == nil {
		return nil
	}
	e.signals.Cancel(w)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		e.logger.Warn("transition did not settle",
			"id", w.ID(),
			"timeout", e.settleTimeout,
			"code", ErrSettleTimeout.Code,
		)
		e.observer.SettleTimedOut(w.ID())
		return nil
	}
	return err
}

func notFound(format string, args ...any) error {
	return perrors.New("N010").Wrap(fmt.Errorf(format, args...))
}

// collapse hides a visible collapsible and waits for it to settle.
func (e *Engine) collapse(ctx context.Context, id string) error {
	if !e.view.Visible(id) {
		return nil
	}
	w := e.signals.Await(id)
	e.view.Collapse(id)
	return e.wait(ctx, w)
}

// currentState parses the view's location. An unparseable location reads
// as the empty state.
func (e *Engine) currentState() navstate.State {
	st, err := navstate.Parse(e.view.Location())
	if err != nil {
		return navstate.State{}
	}
	return st
}

// surface reports a restoration error to the user.
func (e *Engine) surface(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	if errors.Is(err, ErrUnauthorized) {
		e.logger.Info("restoration needs authentication", "error", err)
		e.view.Reauthenticate()
		return
	}
	e.logger.Error("restoration failed", "error", err)
	e.view.ShowError(err)
}
