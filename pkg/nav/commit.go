package nav

import (
	"context"

	"github.com/vango-dev/ladderpulse/pkg/navstate"
)

// Commit writes st to history under title. A push of the state already on
// top of history becomes a replace, so repeated commits never grow it.
//
// Besides the browser history, Commit records st in the history stack,
// caches its query for the section owning the anchor and runs the section
// task registered for the anchor.
func (e *Engine) Commit(ctx context.Context, title string, st navstate.State, replace bool) {
	serialized := st.String()
	if !replace && e.onTop(serialized) {
		replace = true
	}

	if replace {
		e.history.ReplaceTop(title, serialized)
	} else {
		e.history.Push(title, serialized)
	}

	// An empty query is written too, so older filters stop applying.
	e.sections.Put(ctx, e.sectionOf(st), st.SectionQuery())

	if replace {
		e.view.ReplaceState(title, serialized)
	} else {
		e.view.PushState(title, serialized)
	}
	e.observer.HistoryCommitted(replace)
	e.dispatcher.remember(st)

	e.logger.Debug("history commit",
		"state", serialized,
		"replace", replace,
	)

	if task := e.sectionTask(st.Hash); task != nil {
		task()
	}
}

func (e *Engine) onTop(serialized string) bool {
	if cur, ok := e.history.Current(); ok && cur.State == serialized {
		return true
	}
	return e.view.Location() == serialized
}

// isCurrent reports whether st names the same data and anchor as the top
// history entry, ignoring the overlay flag and tab selection that
// reconciliation adds.
func (e *Engine) isCurrent(st navstate.State) bool {
	cur, ok := e.history.Current()
	if !ok {
		return false
	}
	top, err := navstate.Parse(cur.State)
	if err != nil {
		return false
	}
	return top.Key() == st.Key() && top.Hash == st.Hash
}

// sectionOf returns the section owning st: the modal itself for modal
// states, otherwise the pane or modal enclosing the anchor's tab.
func (e *Engine) sectionOf(st navstate.State) string {
	if st.Type == navstate.KindModal {
		return st.Params.Get("id")
	}
	if st.Hash == "" {
		return ""
	}
	return e.view.Section(st.Hash)
}

// mirror records a state the browser moved to on its own so that the
// history stack keeps tracking what is on screen.
func (e *Engine) mirror(st navstate.State) {
	serialized := st.String()
	if cur, ok := e.history.Current(); ok && cur.State == serialized {
		return
	}
	e.history.Push(e.titleFor(st), serialized)
}
