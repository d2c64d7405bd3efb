package nav

import (
	"context"
	"errors"
	"testing"

	"github.com/vango-dev/ladderpulse/pkg/view"
)

func TestDeepestActiveTab(t *testing.T) {
	e, tree, _ := newTestEngine(t)
	tabs := e.Tabs()

	tab, ok := tabs.DeepestActiveTab("")
	if !ok || tab.Target != "ladder-top" {
		t.Fatalf("DeepestActiveTab() = %v, %v; want ladder-top", tab, ok)
	}

	// stats-race is marked active but hidden until its pane is.
	tree.ShowTab("stats")
	for i := 0; i < 2; i++ {
		tab, _ = tabs.DeepestActiveTab("")
		if tab.Target != "stats-race" {
			t.Errorf("call %d: DeepestActiveTab() = %q, want stats-race", i, tab.Target)
		}
	}

	if _, ok := tabs.DeepestActiveTab("player-info"); ok {
		t.Error("tabs inside a hidden modal are not visible")
	}
	tree.ShowModal("player-info")
	tab, ok = tabs.DeepestActiveTab("player-info")
	if !ok || tab.Target != "player-stats-summary" {
		t.Errorf("DeepestActiveTab(player-info) = %v, %v", tab, ok)
	}
}

func TestDeepestActiveTab_NoneVisible(t *testing.T) {
	root := view.NewBlock("page",
		view.NewModal("m", view.Overlay, false,
			view.NewGroup("g", view.NewPane("a")),
		),
	)
	tree, err := view.NewTree(root)
	if err != nil {
		t.Fatal(err)
	}
	e := New(tree, WithLogger(quietLogger()))

	if _, ok := e.Tabs().DeepestActiveTab(""); ok {
		t.Error("expected no visible tab")
	}
	if e.Tabs().ReconcileActiveTabs(true) {
		t.Error("reconcile without a visible tab must be a no-op")
	}
	if e.History().Len() != 0 || tree.Location() != "" {
		t.Error("reconcile without a visible tab must not write history")
	}
}

func TestShowTab(t *testing.T) {
	e, tree, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.Tabs().ShowTab(ctx, "ladder-top"); err != nil {
		t.Errorf("already active tab: %v", err)
	}
	if e.Signals().Len() != 0 {
		t.Error("already active tab must not register a waiter")
	}

	// Hidden link: no event will ever come, so no wait either.
	if err := e.Tabs().ShowTab(ctx, "stats-league"); err != nil {
		t.Errorf("hidden tab: %v", err)
	}
	if !tree.IsActive("stats-league") || e.Signals().Len() != 0 {
		t.Error("hidden tab should be activated without waiting")
	}

	err := e.Tabs().ShowTab(ctx, "nope")
	if !errors.Is(err, ErrElementNotFound) {
		t.Errorf("ShowTab(nope) = %v, want ErrElementNotFound", err)
	}
}

func TestShowTabPath(t *testing.T) {
	e, tree, _ := newTestEngine(t)

	if err := e.Tabs().ShowTabPath(context.Background(), "stats-league"); err != nil {
		t.Fatalf("ShowTabPath: %v", err)
	}
	if !tree.IsActive("stats") || !tree.IsActive("stats-league") {
		t.Error("expected the whole path to be active")
	}
	if !tree.Visible("stats-league") {
		t.Error("expected the target to be visible")
	}
}

func TestReconcileActiveTabs(t *testing.T) {
	e, tree, _ := newTestEngine(t)
	obs := &countingObserver{}
	e.observer = obs

	if !e.Tabs().ReconcileActiveTabs(false) {
		t.Fatal("first reconcile should change the empty location")
	}
	if got := tree.Location(); got != "#ladder-top" {
		t.Errorf("Location() = %q", got)
	}
	if e.Tabs().ReconcileActiveTabs(false) {
		t.Error("second reconcile should report no change")
	}
	if obs.replaces != 1 {
		t.Errorf("replaces = %d, want 1", obs.replaces)
	}

	if e.Tabs().ReconcileActiveTabs(true) {
		t.Error("alwaysReplace does not make an unchanged state changed")
	}
	if obs.replaces != 2 {
		t.Errorf("alwaysReplace should still commit, replaces = %d", obs.replaces)
	}
	if entries, _ := tree.Entries(); len(entries) != 1 {
		t.Errorf("reconcile must never push, entries = %v", entries)
	}
}

func TestReconcileActiveTabs_KeepsQueryAndMarksModal(t *testing.T) {
	e, tree, _ := newTestEngine(t)
	tree.SetLocation("?type=ladder&season=46&m=1#stats")

	e.Tabs().ReconcileActiveTabs(false)
	if got, want := tree.Location(), "?type=ladder&season=46#ladder-top"; got != want {
		t.Errorf("Location() = %q, want %q", got, want)
	}

	tree.ShowModal("player-info")
	if got, want := tree.Location(), "?type=ladder&season=46&m=1#player-stats-summary"; got != want {
		t.Errorf("Location() = %q, want %q", got, want)
	}
}

func TestReconcileActiveTabs_ParallelGroups(t *testing.T) {
	root := view.NewBlock("page",
		view.NewGroup("left",
			view.NewPane("l1"),
			view.NewPane("l2").Activate(),
		),
		view.NewGroup("right",
			view.NewPane("r1").Activate(),
			view.NewPane("r2"),
		),
	)
	tree, err := view.NewTree(root)
	if err != nil {
		t.Fatal(err)
	}
	e := New(tree, WithLogger(quietLogger()))

	e.Tabs().ReconcileActiveTabs(false)
	if got, want := tree.Location(), "?t=l2#r1"; got != want {
		t.Errorf("Location() = %q, want %q", got, want)
	}
}

func TestSelectTab_PushesOnlyOnChange(t *testing.T) {
	e, tree, _ := newTestEngine(t)
	ctx := context.Background()
	<-e.Start(ctx)

	if err := e.SelectTab(ctx, "stats"); err != nil {
		t.Fatalf("SelectTab: %v", err)
	}
	entries, _ := tree.Entries()
	if len(entries) != 2 || entries[1].URL != "#stats-race" {
		t.Fatalf("entries = %v", entries)
	}

	if err := e.SelectTab(ctx, "stats"); err != nil {
		t.Fatal(err)
	}
	if entries, _ = tree.Entries(); len(entries) != 2 {
		t.Errorf("selecting the active tab must not push, entries = %v", entries)
	}
}

func TestUserTabClickPushes(t *testing.T) {
	e, tree, _ := newTestEngine(t)
	<-e.Start(context.Background())

	tree.ShowTab("stats")
	tree.ShowTab("stats-league")

	entries, pos := tree.Entries()
	if pos != 2 || entries[2].URL != "#stats-league" {
		t.Errorf("entries = %v @%d", entries, pos)
	}
	prev, _ := e.History().Previous()
	if prev.State != "#stats-race" {
		t.Errorf("Previous() = %v", prev)
	}
}
