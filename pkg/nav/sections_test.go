package nav

import (
	"context"
	"errors"
	"testing"

	"github.com/vango-dev/ladderpulse/pkg/navstate"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("down")
}
func (failingStore) Put(context.Context, string, string) error { return errors.New("down") }

func TestSectionCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewSectionCache(nil, quietLogger())

	if _, ok := c.Get(ctx, "main-tabs"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Put(ctx, "main-tabs", "?type=ladder&season=46")
	c.Put(ctx, "", "?ignored")

	if q, ok := c.Get(ctx, "main-tabs"); !ok || q != "?type=ladder&season=46" {
		t.Errorf("Get() = %q, %v", q, ok)
	}
	if _, ok := c.Get(ctx, ""); ok {
		t.Error("empty section must never hit")
	}
}

func TestSectionCache_StoreFailureIsAMiss(t *testing.T) {
	ctx := context.Background()
	c := NewSectionCache(failingStore{}, quietLogger())

	c.Put(ctx, "main-tabs", "?x=1")
	if _, ok := c.Get(ctx, "main-tabs"); ok {
		t.Error("failing store should read as a miss")
	}
}

func TestCommit_EmptyQueryClearsSection(t *testing.T) {
	e, tree, loader := newTestEngine(t)
	ctx := context.Background()

	e.Commit(ctx, "Ladder", navstate.MustParse("?type=ladder&season=46#stats-race"), false)
	if q, ok := e.Sections().Get(ctx, "stats"); !ok || q != "?type=ladder&season=46" {
		t.Fatalf("Get(stats) = %q, %v", q, ok)
	}

	e.Commit(ctx, "Stats", navstate.MustParse("#stats-race"), false)
	if q, ok := e.Sections().Get(ctx, "stats"); !ok || q != "" {
		t.Errorf("Get(stats) = %q, %v; want the empty query", q, ok)
	}

	tree.SetLocation("#stats-league")
	if err := await(t, e.Start(ctx)); err != nil {
		t.Fatal(err)
	}
	if got := loader.Calls(); len(got) != 0 {
		t.Errorf("stale section filters were restored: %v", got)
	}
}
