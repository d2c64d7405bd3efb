package nav

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	perrors "github.com/vango-dev/ladderpulse/internal/errors"
	"github.com/vango-dev/ladderpulse/pkg/navstate"
	"github.com/vango-dev/ladderpulse/pkg/view"
)

const ladderURL = "?type=ladder&season=46&queue=LOTV_1V1&team-type=ARRANGED&ratingCursor=99999&idCursor=0&sortingOrder=DESC#ladder-top"

func TestRestore_Character(t *testing.T) {
	e, tree, loader := newTestEngine(t)
	e.RegisterTitle("player-stats-summary", func(p navstate.Params, anchor string) string {
		return "Character " + p.Get("id")
	})
	tree.SetLocation("?type=character&id=42#player-stats-summary")

	if err := await(t, e.Start(context.Background())); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := loader.Calls(); !slices.Equal(got, []string{"character:42"}) {
		t.Errorf("loads = %v", got)
	}
	if !tree.IsShown("player-info") {
		t.Error("player-info should be shown")
	}
	if tree.Title() != "Character 42" {
		t.Errorf("Title() = %q", tree.Title())
	}
	if got, want := tree.Location(), "?type=character&id=42&m=1#player-stats-summary"; got != want {
		t.Errorf("Location() = %q, want %q", got, want)
	}
	if tree.Loading() || e.Pending().Count() != 0 {
		t.Error("loading indicator should be off")
	}
}

func TestRestore_LadderLoadsConcurrentlyThenScrolls(t *testing.T) {
	e, tree, loader := newTestEngine(t)

	var started sync.WaitGroup
	started.Add(3)
	var mu sync.Mutex
	var early []string
	loader.before = func(ctx context.Context, call string) error {
		started.Done()
		done := make(chan struct{})
		go func() {
			started.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			return fmt.Errorf("%s: loads did not run concurrently", call)
		}
		if len(tree.ScrolledTo()) > 0 {
			mu.Lock()
			early = append(early, call)
			mu.Unlock()
		}
		return nil
	}

	tree.SetLocation(ladderURL)
	if err := await(t, e.Start(context.Background())); err != nil {
		t.Fatalf("Start: %v", err)
	}

	calls := loader.Calls()
	slices.Sort(calls)
	want := []string{
		"ladder-stats:season=46&queue=LOTV_1V1&team-type=ARRANGED",
		"ladder:season=46&queue=LOTV_1V1&team-type=ARRANGED:99999",
		"league-bounds:season=46&queue=LOTV_1V1&team-type=ARRANGED",
	}
	if !slices.Equal(calls, want) {
		t.Errorf("loads = %v, want %v", calls, want)
	}
	if got := tree.ScrolledTo(); !slices.Equal(got, []string{"ladder-top"}) {
		t.Errorf("ScrolledTo() = %v", got)
	}
	if len(early) > 0 {
		t.Errorf("scrolled before loads finished: %v", early)
	}
}

func TestRestore_IdenticalStateDoesNotReload(t *testing.T) {
	e, tree, loader := newTestEngine(t)
	ctx := context.Background()
	tree.SetLocation(ladderURL)

	await(t, e.Start(ctx))
	before := e.History().Len()

	await(t, e.PopState(ctx, ladderURL))
	if e.History().Len() != before {
		t.Errorf("History().Len() = %d, want %d", e.History().Len(), before)
	}

	// Same data, other anchor: still no reload.
	await(t, e.PopState(ctx, strings.Replace(ladderURL, "#ladder-top", "#stats", 1)))
	if got := len(loader.Calls()); got != 3 {
		t.Errorf("loads = %d, want 3 (one restoration)", got)
	}

	st := navstate.MustParse(ladderURL)
	e.Commit(ctx, "Ladder", st, false)
	entries, _ := tree.Entries()
	depth := e.History().Len()

	e.Commit(ctx, "Ladder", st, false)
	if after, _ := tree.Entries(); len(after) != len(entries) {
		t.Errorf("identical pushes grew the browser history: %v", after)
	}
	if e.History().Len() != depth {
		t.Errorf("identical pushes grew the history stack")
	}
	if cur, _ := e.History().Current(); cur.State != ladderURL {
		t.Errorf("Current() = %v", cur)
	}
}

func TestRestore_NavigateLoadsAndCollapsesSearch(t *testing.T) {
	e, tree, loader := newTestEngine(t)
	st := navstate.MustParse("?type=search&name=Serral")

	await(t, e.Navigate(context.Background(), st))

	if got := loader.Calls(); !slices.Equal(got, []string{"search:Serral"}) {
		t.Errorf("loads = %v", got)
	}
	if !strings.HasPrefix(tree.Location(), "?type=search&name=Serral") {
		t.Errorf("Location() = %q", tree.Location())
	}
	if tree.Visible("form-search") {
		t.Error("search restoration should collapse the form")
	}
	if got := tree.ScrolledTo(); len(got) == 0 || got[len(got)-1] != "search-result-all" {
		t.Errorf("ScrolledTo() = %v", got)
	}
}

func TestRestore_RepeatedNavigateIsIdempotent(t *testing.T) {
	e, tree, loader := newTestEngine(t)
	ctx := context.Background()
	st := navstate.MustParse("?type=character&id=42#player-stats-summary")

	await(t, e.Navigate(ctx, st))
	depth := e.History().Len()
	entries, _ := tree.Entries()

	await(t, e.Navigate(ctx, st))

	if got := loader.Calls(); !slices.Equal(got, []string{"character:42"}) {
		t.Errorf("loads = %v, want a single character load", got)
	}
	if e.History().Len() != depth {
		t.Errorf("History().Len() = %d, want %d", e.History().Len(), depth)
	}
	if after, _ := tree.Entries(); len(after) != len(entries) {
		t.Errorf("browser history grew: %v", after)
	}
	if got, want := tree.Location(), "?type=character&id=42&m=1#player-stats-summary"; got != want {
		t.Errorf("Location() = %q, want %q", got, want)
	}

	// Same data, new anchor: pushed, not reloaded.
	await(t, e.Navigate(ctx, st.WithHash("player-stats-mmr")))
	if got := len(loader.Calls()); got != 1 {
		t.Errorf("loads = %d, want 1", got)
	}
	if !tree.IsActive("player-stats-mmr") {
		t.Error("new anchor should be revealed")
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	e, tree, _ := newTestEngine(t)
	st := navstate.MustParse("?type=clan-search&region=EU&cursor=ACTIVE_MEMBERS&cursorValue=10&idCursor=5&sortingOrder=ASC&sort=-activeMembers")

	await(t, e.Navigate(context.Background(), st))

	back, err := navstate.Parse(tree.Location())
	if err != nil {
		t.Fatal(err)
	}
	if back.Key() != st.Key() {
		t.Errorf("round trip key = %q, want %q", back.Key(), st.Key())
	}
	t1, _ := navstate.ParseTarget(st)
	t2, _ := navstate.ParseTarget(back)
	if t1.(navstate.ClanSearchTarget).Cursor != t2.(navstate.ClanSearchTarget).Cursor {
		t.Errorf("cursor lost in round trip: %+v vs %+v", t1, t2)
	}
}

func TestRestore_ErrorsAreSurfaced(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantErrors int
		wantReauth int
	}{
		{"network", perrors.New("N101").Wrap(errors.New("connection refused")), 1, 0},
		{"unauthorized", fmt.Errorf("character: %w", perrors.New("N102")), 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, tree, loader := newTestEngine(t)
			loader.err = tt.err
			tree.SetLocation("?type=character&id=42#player-stats-summary")

			err := await(t, e.Start(context.Background()))
			if !errors.Is(err, tt.err) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
			if len(tree.Errors()) != tt.wantErrors {
				t.Errorf("Errors() = %v", tree.Errors())
			}
			if tree.ReauthCount() != tt.wantReauth {
				t.Errorf("ReauthCount() = %d", tree.ReauthCount())
			}
			if tree.IsShown("player-info") {
				t.Error("UI steps must not run after a failed load")
			}
			if tree.Loading() {
				t.Error("loading indicator left on")
			}
			// Tabs are reconciled regardless of the failure.
			if got := tree.Location(); got != "?type=character&id=42#ladder-top" {
				t.Errorf("Location() = %q", got)
			}
		})
	}
}

func TestRestore_FailedLoadIsRetried(t *testing.T) {
	e, tree, loader := newTestEngine(t)
	ctx := context.Background()
	url := "?type=character&id=42"

	loader.err = errors.New("boom")
	await(t, e.PopState(ctx, url))
	loader.err = nil
	if err := await(t, e.PopState(ctx, url)); err != nil {
		t.Fatal(err)
	}
	if got := len(loader.Calls()); got != 2 {
		t.Errorf("loads = %d, want a retry after failure", got)
	}
	if !tree.IsShown("player-info") {
		t.Error("player-info should be shown after the retry")
	}
}

func TestRestore_InvalidState(t *testing.T) {
	e, tree, loader := newTestEngine(t)

	err := await(t, e.PopState(context.Background(), "?type=character&id=abc"))
	if !errors.Is(err, perrors.New("N002")) {
		t.Errorf("err = %v, want N002", err)
	}
	var pe *navstate.ParamError
	if !errors.As(err, &pe) || pe.Key != "id" {
		t.Errorf("err = %v, want a ParamError for id", err)
	}
	if len(tree.Errors()) != 1 || len(loader.Calls()) != 0 {
		t.Errorf("errors = %v, loads = %v", tree.Errors(), loader.Calls())
	}
}

func TestRestore_DefaultHidesOverlay(t *testing.T) {
	e, tree, _ := newTestEngine(t)
	ctx := context.Background()

	await(t, e.PopState(ctx, "?type=modal&id=settings#settings"))
	if !tree.IsShown("settings") {
		t.Fatal("settings should be shown")
	}
	entries, _ := tree.Entries()

	await(t, e.PopState(ctx, "#stats-league"))
	if tree.IsShown("settings") {
		t.Error("default restoration should hide the overlay")
	}
	if !tree.IsActive("stats") || !tree.IsActive("stats-league") {
		t.Error("anchored tab path should be revealed")
	}
	if after, _ := tree.Entries(); len(after) != len(entries) {
		t.Errorf("a replayed hide must not push history: %v", after)
	}
}

func TestRestore_NilStateShowsAnchoredTabs(t *testing.T) {
	e, tree, loader := newTestEngine(t)
	tree.SetLocation("#stats-league")

	if err := await(t, e.Serializer().Schedule(context.Background(), Event{})); err != nil {
		t.Fatal(err)
	}
	if !tree.IsActive("stats-league") {
		t.Error("anchored tab should be revealed")
	}
	if len(loader.Calls()) != 0 {
		t.Errorf("loads = %v", loader.Calls())
	}
}

func TestRestore_AnchorOnlyLinkUsesSectionCache(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, _, _ := newTestEngine(t, WithSectionStore(store))
	await(t, first.Navigate(ctx, navstate.MustParse(ladderURL)))

	second, tree, loader := newTestEngine(t, WithSectionStore(store))
	tree.SetLocation("#ladder-top")
	if err := await(t, second.Start(ctx)); err != nil {
		t.Fatal(err)
	}

	calls := loader.Calls()
	if len(calls) != 3 || !slices.Contains(calls, "ladder:season=46&queue=LOTV_1V1&team-type=ARRANGED:99999") {
		t.Errorf("loads = %v", calls)
	}
	if !strings.HasPrefix(tree.Location(), "?type=ladder&season=46") {
		t.Errorf("Location() = %q", tree.Location())
	}
}

func TestRestore_Middleware(t *testing.T) {
	var kinds []navstate.Kind
	var replays []bool
	record := func(next RestoreFunc) RestoreFunc {
		return func(ctx context.Context, r *Restoration) error {
			err := next(ctx, r)
			kinds = append(kinds, r.Kind())
			replays = append(replays, r.Replay)
			return err
		}
	}
	e, _, _ := newTestEngine(t, WithMiddleware(record))
	ctx := context.Background()

	await(t, e.PopState(ctx, "?type=online&period=DAY"))
	await(t, e.PopState(ctx, "?type=online&period=DAY#x"))

	if !slices.Equal(kinds, []navstate.Kind{navstate.KindOnline, navstate.KindOnline}) {
		t.Errorf("kinds = %v", kinds)
	}
	if !slices.Equal(replays, []bool{false, true}) {
		t.Errorf("replays = %v", replays)
	}
}

func TestRestore_SettleTimeoutContinues(t *testing.T) {
	tree := newTree(t)
	tree.SetDriver(&silentDriver{})
	obs := &countingObserver{}
	e := New(tree,
		WithLogger(quietLogger()),
		WithObserver(obs),
		WithSettleTimeout(20*time.Millisecond),
	)

	err := await(t, e.PopState(context.Background(), "?type=modal&id=settings#settings"))
	if err != nil {
		t.Fatalf("a lost transition event must not fail the restoration: %v", err)
	}
	if !slices.Equal(obs.timeouts, []string{"settings"}) {
		t.Errorf("timeouts = %v", obs.timeouts)
	}
	if e.Signals().Len() != 0 {
		t.Error("timed out waiter should be dropped")
	}
	if obs.maxPend != 1 {
		t.Errorf("max pending = %d, want 1", obs.maxPend)
	}
}

func TestRestore_Plans(t *testing.T) {
	tests := []struct {
		url    string
		load   string
		modal  string
		scroll string
	}{
		{"?type=vod-search&matchup=ZvP", "vod:matchup=ZvP", "", "search-result-vod-all"},
		{"?type=team-mmr&team=1", "team-mmr:team=1", "team-mmr-history", ""},
		{"?type=clan-search&region=EU&sort=-rating", "clan:region=EU::-rating", "", "search-result-clan-all"},
		{"?type=following-ladder&queue=LOTV_1V1", "following:queue=LOTV_1V1", "", "following-ladder"},
		{"?type=versus&clan1=1", "versus:clan1=1", "modal-versus", ""},
		{"?type=group&characterId=1&characterId=2", "group:[1 2]", "group", ""},
		{"?type=team-search&legacyUid=x", "team-search:legacyUid=x", "", "team-search-results"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			root := layout()
			root.Children = append(root.Children,
				view.NewModal("modal-versus", view.Overlay, false),
				view.NewModal("group", view.Overlay, false),
			)
			tree, err := view.NewTree(root)
			if err != nil {
				t.Fatal(err)
			}
			loader := &fakeLoader{}
			e := New(tree, WithLoader(loader), WithLogger(quietLogger()))

			if err := await(t, e.PopState(context.Background(), tt.url)); err != nil {
				t.Fatalf("restore: %v", err)
			}
			if got := loader.Calls(); !slices.Equal(got, []string{tt.load}) {
				t.Errorf("loads = %v, want [%s]", got, tt.load)
			}
			if tt.modal != "" && !tree.IsShown(tt.modal) {
				t.Errorf("%s should be shown", tt.modal)
			}
			if tt.scroll != "" && !slices.Contains(tree.ScrolledTo(), tt.scroll) {
				t.Errorf("ScrolledTo() = %v, want %s", tree.ScrolledTo(), tt.scroll)
			}
		})
	}
}

// silentDriver swallows commands; no transition ever completes.
type silentDriver struct{}

func (silentDriver) Send(view.Command) {}
