package nav

import (
	"context"

	"github.com/vango-dev/ladderpulse/pkg/navstate"
)

// Loader fetches the data a restoration needs. Each method loads one
// dataset and hands it to whatever renders it. form is the residual query
// string of the state, the same shape the site's search forms submit.
type Loader interface {
	Ladder(ctx context.Context, form string, cursor navstate.LadderCursor) error
	LadderStats(ctx context.Context, form string) error
	LeagueBounds(ctx context.Context, form string) error
	Character(ctx context.Context, id int64) error
	CharacterSearch(ctx context.Context, name string) error
	VODSearch(ctx context.Context, form string) error
	TeamMMR(ctx context.Context, form string) error
	Online(ctx context.Context, form string) error
	ClanSearch(ctx context.Context, form string, cursor navstate.ClanCursor, sort string) error
	FollowingLadder(ctx context.Context, form string, cursor navstate.LadderCursor) error
	Versus(ctx context.Context, form string) error
	Group(ctx context.Context, group navstate.GroupTarget) error
	TeamSearch(ctx context.Context, form string) error
}

// NopLoader loads nothing. It is the default when no loader is configured.
type NopLoader struct{}

var _ Loader = NopLoader{}

func (NopLoader) Ladder(context.Context, string, navstate.LadderCursor) error { return nil }
func (NopLoader) LadderStats(context.Context, string) error                   { return nil }
func (NopLoader) LeagueBounds(context.Context, string) error                  { return nil }
func (NopLoader) Character(context.Context, int64) error                      { return nil }
func (NopLoader) CharacterSearch(context.Context, string) error               { return nil }
func (NopLoader) VODSearch(context.Context, string) error                     { return nil }
func (NopLoader) TeamMMR(context.Context, string) error                       { return nil }
func (NopLoader) Online(context.Context, string) error                        { return nil }
func (NopLoader) ClanSearch(context.Context, string, navstate.ClanCursor, string) error {
	return nil
}
func (NopLoader) FollowingLadder(context.Context, string, navstate.LadderCursor) error {
	return nil
}
func (NopLoader) Versus(context.Context, string) error              { return nil }
func (NopLoader) Group(context.Context, navstate.GroupTarget) error { return nil }
func (NopLoader) TeamSearch(context.Context, string) error          { return nil }
