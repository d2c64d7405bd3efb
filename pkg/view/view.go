// Package view defines the surface the navigation engine drives and the
// transition events it listens for.
//
// The engine never touches a rendering technology directly. It reads the live
// tab/modal tree through Document, writes the page head and the browser
// history through Head and History, reports problems through Notifier, and
// learns that a transition has taken effect through Listener callbacks.
//
// Tree is an in-memory implementation used by tests, the restore command and
// the websocket server, which mirrors a browser's layout into a Tree and
// forwards transitions through a Driver.
package view

// Tab is a tab link and the pane it reveals.
type Tab struct {
	Link   string
	Target string
}

// Flavor distinguishes dialog overlays from modals rendered in page flow.
type Flavor int

const (
	// Overlay is a blocking dialog. At most one overlay is shown at a time.
	Overlay Flavor = iota

	// Inline is rendered in the page flow. It can coexist with others and
	// restores the page scroll offset when it closes.
	Inline
)

func (f Flavor) String() string {
	if f == Inline {
		return "inline"
	}
	return "overlay"
}

// ModalInfo describes a modal element.
type ModalInfo struct {
	ID     string
	Flavor Flavor

	// Singleton modals get their own history entry when shown.
	Singleton bool
}

// Document exposes the live tab and modal tree.
type Document interface {
	// ActiveTabs returns the tabs marked active under root in document
	// order. An empty root means the whole document.
	ActiveTabs(root string) []Tab

	// TabByTarget finds the tab revealing target.
	TabByTarget(target string) (Tab, bool)

	// IsActive reports whether the tab revealing target is marked active.
	IsActive(target string) bool

	// Visible reports whether the element is on screen, that is no ancestor
	// is collapsed, hidden or an inactive pane.
	Visible(id string) bool

	// ParentTab returns the tab owning the pane that encloses target's tab
	// link.
	ParentTab(target string) (Tab, bool)

	// Section returns the id of the nearest pane or modal enclosing
	// target's tab link, or the tab group id for top-level groups.
	Section(target string) string

	// ShowTab starts revealing target. TabShown fires once it is shown,
	// but only for tabs whose link is visible.
	ShowTab(target string)

	// Modal describes a modal element.
	Modal(id string) (ModalInfo, bool)

	// IsShown reports whether a modal is fully shown.
	IsShown(id string) bool

	// ShownModals lists the fully shown modals in document order.
	ShownModals() []string

	// ShowModal and HideModal start a modal transition. ModalShown or
	// ModalHidden fires when it completes.
	ShowModal(id string)
	HideModal(id string)

	// Collapse starts hiding a collapsible. Settled fires when hidden.
	Collapse(id string)

	ScrollTo(id string)
	ScrollY() int
	SetScrollY(y int)
}

// Head holds the document title and meta description.
type Head interface {
	Title() string
	SetTitle(title string)
	SetDescription(description string)
}

// History is the browser history primitive.
type History interface {
	// Location returns the current "?query#anchor".
	Location() string
	PushState(title, url string)
	ReplaceState(title, url string)
}

// Follower is implemented by views that mirror a browser able to move
// through its history on its own.
type Follower interface {
	// Follow records that the browser now shows url.
	Follow(url string)
}

// Notifier surfaces loading and failures to the user.
type Notifier interface {
	SetLoading(loading bool)
	ShowError(err error)
	Reauthenticate()
}

// View is everything the engine needs from the view layer.
type View interface {
	Document
	Head
	History
	Notifier

	// SetListener registers the receiver of transition events.
	SetListener(l Listener)
}

// Listener receives transition-completed events from the view layer.
type Listener interface {
	TabShown(target string)
	ModalShown(id string)
	ModalHidden(id string)

	// Settled covers every other awaited transition (collapse hidden,
	// chart size stabilized).
	Settled(id string)
}
