package nav

import (
	"context"

	"github.com/vango-dev/ladderpulse/pkg/navstate"
	"github.com/vango-dev/ladderpulse/pkg/view"
)

// commitMode says how reconcile writes history.
type commitMode int

const (
	// commitReplaceIfChanged replaces the current entry when the state
	// changed.
	commitReplaceIfChanged commitMode = iota

	// commitAlwaysReplace replaces the current entry even when the state
	// is unchanged.
	commitAlwaysReplace

	// commitPush pushes a new entry when the state changed.
	commitPush
)

// TabCoordinator reveals tabs and derives the navigation state from the
// tabs currently shown.
type TabCoordinator struct {
	e *Engine
}

// DeepestActiveTab walks the active tabs under root from last to first and
// returns the first one whose link is visible. Nested tab groups leave
// several tabs marked active at once; the innermost visible one is where
// the user actually is.
func (c *TabCoordinator) DeepestActiveTab(root string) (view.Tab, bool) {
	v := c.e.view
	tabs := v.ActiveTabs(root)
	for i := len(tabs) - 1; i >= 0; i-- {
		if v.Visible(tabs[i].Link) {
			return tabs[i], true
		}
	}
	return view.Tab{}, false
}

// ShowTab reveals target and waits for it to be shown. It returns at once
// when the tab is already active, and does not wait when the tab's link is
// hidden since hidden tabs never report being shown.
func (c *TabCoordinator) ShowTab(ctx context.Context, target string) error {
	v := c.e.view
	tab, ok := v.TabByTarget(target)
	if !ok {
		return notFound("no tab reveals %q", target)
	}
	if v.IsActive(target) {
		return nil
	}
	if !v.Visible(tab.Link) {
		v.ShowTab(target)
		return nil
	}

	w := c.e.signals.Await(target)
	v.ShowTab(target)
	return c.e.wait(ctx, w)
}

// ShowTabPath reveals every tab enclosing target, outermost first, then
// target itself.
func (c *TabCoordinator) ShowTabPath(ctx context.Context, target string) error {
	path := []string{target}
	seen := map[string]bool{target: true}
	for cur := target; ; {
		parent, ok := c.e.view.ParentTab(cur)
		if !ok || seen[parent.Target] {
			break
		}
		seen[parent.Target] = true
		path = append(path, parent.Target)
		cur = parent.Target
	}

	for i := len(path) - 1; i >= 0; i-- {
		if err := c.ShowTab(ctx, path[i]); err != nil {
			return err
		}
	}
	return nil
}

// ShowAnchoredTabs reveals the tabs a state names: the extra tabs listed
// under "t" first, then the anchor. An anchor that is not a tab is left to
// the caller.
func (c *TabCoordinator) ShowAnchoredTabs(ctx context.Context, st navstate.State) error {
	for _, t := range st.Params.GetAll(navstate.KeyTab) {
		if err := c.ShowTabPath(ctx, t); err != nil {
			return err
		}
	}
	if st.Hash == "" {
		return nil
	}
	if _, ok := c.e.view.TabByTarget(st.Hash); !ok {
		return nil
	}
	return c.ShowTabPath(ctx, st.Hash)
}

// ReconcileActiveTabs recomputes the state from the tabs on screen, updates
// the title and description, and replaces the current history entry when
// the state changed or alwaysReplace is set. It reports whether the state
// changed. With no active tab at all it does nothing.
func (c *TabCoordinator) ReconcileActiveTabs(alwaysReplace bool) bool {
	mode := commitReplaceIfChanged
	if alwaysReplace {
		mode = commitAlwaysReplace
	}
	return c.reconcile(context.Background(), mode)
}

// SelectTab is the user path: reveal target and push a history entry for
// the resulting state.
func (c *TabCoordinator) SelectTab(ctx context.Context, target string) error {
	if err := c.ShowTab(ctx, target); err != nil {
		return err
	}
	c.reconcile(ctx, commitPush)
	return nil
}

func (c *TabCoordinator) reconcile(ctx context.Context, mode commitMode) bool {
	v := c.e.view

	modal := ""
	if shown := v.ShownModals(); len(shown) > 0 {
		modal = shown[len(shown)-1]
	}

	anchor, root := "", ""
	if modal != "" {
		anchor, root = modal, modal
		if tab, ok := c.DeepestActiveTab(modal); ok {
			anchor = tab.Target
		}
	} else {
		tab, ok := c.DeepestActiveTab("")
		if !ok {
			return false
		}
		anchor = tab.Target
	}

	cur := c.e.currentState()
	base := cur
	if cur.Type == navstate.KindModal && !v.IsShown(cur.Params.Get("id")) {
		// The singleton modal owning the URL is gone; start from a bare
		// anchor.
		base = navstate.State{}
	}
	next := base.WithHash(anchor)
	next.Params.Del(navstate.KeyTab)
	for _, t := range c.siblingTabs(root, anchor) {
		next.Params.Add(navstate.KeyTab, t)
	}
	if modal != "" {
		next.Params.Set(navstate.KeyModal, "1")
	} else {
		next.Params.Del(navstate.KeyModal)
	}

	title := c.e.titleFor(next)
	v.SetTitle(title)
	v.SetDescription(c.e.descriptionFor(next))

	changed := next.String() != cur.String()
	switch {
	case mode == commitAlwaysReplace, mode == commitReplaceIfChanged && changed:
		c.e.Commit(ctx, title, next, true)
	case mode == commitPush && changed:
		c.e.Commit(ctx, title, next, false)
	}
	return changed
}

// siblingTabs lists the innermost visible active tabs under root that are
// off the anchor's path. They are the parallel tab groups a restoration has
// to reveal besides the anchor.
func (c *TabCoordinator) siblingTabs(root, anchor string) []string {
	v := c.e.view

	onPath := map[string]bool{anchor: true}
	for cur := anchor; ; {
		parent, ok := v.ParentTab(cur)
		if !ok || onPath[parent.Target] {
			break
		}
		onPath[parent.Target] = true
		cur = parent.Target
	}

	var candidates []string
	for _, tab := range v.ActiveTabs(root) {
		if onPath[tab.Target] || !v.Visible(tab.Link) {
			continue
		}
		candidates = append(candidates, tab.Target)
	}

	inner := make(map[string]bool, len(onPath)+len(candidates))
	for t := range onPath {
		inner[t] = true
	}
	for _, t := range candidates {
		inner[t] = true
	}

	var out []string
	for _, t := range candidates {
		if !enclosesAny(v, t, inner) {
			out = append(out, t)
		}
	}
	return out
}

// enclosesAny reports whether some active tab below target is in set, in
// which case revealing that tab reveals target too.
func enclosesAny(v view.View, target string, set map[string]bool) bool {
	for _, tab := range v.ActiveTabs(target) {
		if tab.Target != target && set[tab.Target] {
			return true
		}
	}
	return false
}
