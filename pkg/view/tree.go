package view

import (
	"fmt"
	"sync"
)

// Command is a transition or head/history update forwarded to a remote view.
type Command struct {
	Op      string `json:"op"`
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Y       int    `json:"y,omitempty"`
	Value   bool   `json:"value,omitempty"`
	Message string `json:"message,omitempty"`
}

// Command ops.
const (
	OpShowTab        = "show-tab"
	OpShowModal      = "show-modal"
	OpHideModal      = "hide-modal"
	OpCollapse       = "collapse"
	OpScrollTo       = "scroll-to"
	OpSetScroll      = "set-scroll"
	OpSetTitle       = "set-title"
	OpSetDescription = "set-description"
	OpPushState      = "push-state"
	OpReplaceState   = "replace-state"
	OpLoading        = "loading"
	OpError          = "error"
	OpReauthenticate = "reauthenticate"
)

// Event is a transition reported by a remote view.
type Event struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Y    int    `json:"y,omitempty"`
}

// Event types.
const (
	EventTabShown    = "tab-shown"
	EventModalShown  = "modal-shown"
	EventModalHidden = "modal-hidden"
	EventCollapsed   = "collapsed"
	EventSettled     = "settled"
	EventScroll      = "scroll"
)

// Driver forwards commands to a remote view. With a driver set, a Tree does
// not complete transitions itself; it waits for the matching Event.
type Driver interface {
	Send(cmd Command)
}

// Entry is a browser history entry.
type Entry struct {
	Title string
	URL   string
}

var _ View = (*Tree)(nil)

// Tree is an in-memory View. Without a Driver every transition completes
// synchronously inside the call that starts it.
type Tree struct {
	mu       sync.Mutex
	root     *Node
	nodes    map[string]*Node
	links    map[string]*Node
	listener Listener
	driver   Driver

	title       string
	description string
	entries     []Entry
	pos         int
	scrollY     int
	scrolledTo  []string
	loading     bool
	errors      []error
	reauth      int
}

// NewTree indexes root and returns a tree positioned at an empty location.
func NewTree(root *Node) (*Tree, error) {
	t := &Tree{
		root:    root,
		nodes:   make(map[string]*Node),
		links:   make(map[string]*Node),
		entries: []Entry{{}},
	}
	if err := t.index(root, nil); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) index(n *Node, parent *Node) error {
	n.parent = parent
	if n.ID != "" {
		if _, dup := t.nodes[n.ID]; dup {
			return fmt.Errorf("view: duplicate id %q", n.ID)
		}
		t.nodes[n.ID] = n
	}
	if n.Kind == KindPane {
		if parent == nil || parent.Kind != KindGroup {
			return fmt.Errorf("view: pane %q outside a tab group", n.ID)
		}
		if n.Link == "" {
			n.Link = n.ID + "-tab"
		}
		t.links[n.Link] = n
	}
	for _, c := range n.Children {
		if err := t.index(c, n); err != nil {
			return err
		}
	}
	return nil
}

// SetDriver routes transitions through d.
func (t *Tree) SetDriver(d Driver) {
	t.mu.Lock()
	t.driver = d
	t.mu.Unlock()
}

// SetListener implements View.
func (t *Tree) SetListener(l Listener) {
	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()
}

// SetLocation resets the history to a single entry at url.
func (t *Tree) SetLocation(url string) {
	t.mu.Lock()
	t.entries = []Entry{{Title: t.title, URL: url}}
	t.pos = 0
	t.mu.Unlock()
}

// Follow implements Follower. The current entry takes url; the rest of the
// history is kept.
func (t *Tree) Follow(url string) {
	t.mu.Lock()
	t.entries[t.pos].URL = url
	t.mu.Unlock()
}

// =============================================================================
// Document
// =============================================================================

// ActiveTabs implements Document.
func (t *Tree) ActiveTabs(root string) []Tab {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := t.root
	if root != "" {
		start = t.nodes[root]
	}
	var out []Tab
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Kind == KindGroup {
			for _, p := range n.Children {
				if p.Active {
					out = append(out, Tab{Link: p.Link, Target: p.ID})
					break
				}
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	if start != nil {
		walk(start)
	}
	return out
}

// TabByTarget implements Document.
func (t *Tree) TabByTarget(target string) (Tab, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[target]
	if !ok || n.Kind != KindPane {
		return Tab{}, false
	}
	return Tab{Link: n.Link, Target: n.ID}, true
}

// IsActive implements Document.
func (t *Tree) IsActive(target string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[target]
	return ok && n.Kind == KindPane && n.Active
}

// Visible implements Document. Tab link ids are accepted as well as node ids.
func (t *Tree) Visible(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible(id)
}

func (t *Tree) visible(id string) bool {
	var n *Node
	if pane, ok := t.links[id]; ok {
		n = pane.parent
	} else if node, ok := t.nodes[id]; ok {
		n = node
	}
	if n == nil {
		return false
	}
	for ; n != nil; n = n.parent {
		switch n.Kind {
		case KindPane:
			if !n.Active {
				return false
			}
		case KindModal:
			if !n.Shown {
				return false
			}
		case KindCollapse:
			if n.Collapsed {
				return false
			}
		}
	}
	return true
}

// ParentTab implements Document.
func (t *Tree) ParentTab(target string) (Tab, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[target]
	if !ok || n.Kind != KindPane {
		return Tab{}, false
	}
	for a := n.parent.parent; a != nil; a = a.parent {
		if a.Kind == KindPane {
			return Tab{Link: a.Link, Target: a.ID}, true
		}
	}
	return Tab{}, false
}

// Section implements Document.
func (t *Tree) Section(target string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[target]
	if !ok {
		return ""
	}
	if n.Kind == KindModal {
		return n.ID
	}
	if n.Kind != KindPane {
		return ""
	}
	group := n.parent
	for a := group.parent; a != nil; a = a.parent {
		if a.Kind == KindPane || a.Kind == KindModal {
			return a.ID
		}
	}
	return group.ID
}

// ShowTab implements Document.
func (t *Tree) ShowTab(target string) {
	t.mu.Lock()
	if t.driver != nil {
		d := t.driver
		t.mu.Unlock()
		d.Send(Command{Op: OpShowTab, ID: target})
		return
	}
	emit := t.activate(target)
	l := t.listener
	t.mu.Unlock()

	if emit && l != nil {
		l.TabShown(target)
	}
}

// activate marks target active and reports whether a shown event is due.
func (t *Tree) activate(target string) bool {
	n, ok := t.nodes[target]
	if !ok || n.Kind != KindPane {
		return false
	}
	for _, sib := range n.parent.Children {
		sib.Active = sib == n
	}
	return t.visible(n.Link)
}

// Modal implements Document.
func (t *Tree) Modal(id string) (ModalInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok || n.Kind != KindModal {
		return ModalInfo{}, false
	}
	return ModalInfo{ID: n.ID, Flavor: n.Flavor, Singleton: n.Singleton}, true
}

// IsShown implements Document.
func (t *Tree) IsShown(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[id]
	return ok && n.Kind == KindModal && n.Shown
}

// ShownModals implements Document.
func (t *Tree) ShownModals() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Kind == KindModal && n.Shown {
			out = append(out, n.ID)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// ShowModal implements Document.
func (t *Tree) ShowModal(id string) {
	t.setModal(id, true)
}

// HideModal implements Document.
func (t *Tree) HideModal(id string) {
	t.setModal(id, false)
}

func (t *Tree) setModal(id string, shown bool) {
	t.mu.Lock()
	if t.driver != nil {
		d := t.driver
		t.mu.Unlock()
		op := OpHideModal
		if shown {
			op = OpShowModal
		}
		d.Send(Command{Op: op, ID: id})
		return
	}
	changed := t.applyModal(id, shown)
	l := t.listener
	t.mu.Unlock()

	if !changed || l == nil {
		return
	}
	if shown {
		l.ModalShown(id)
	} else {
		l.ModalHidden(id)
	}
}

func (t *Tree) applyModal(id string, shown bool) bool {
	n, ok := t.nodes[id]
	if !ok || n.Kind != KindModal || n.Shown == shown {
		return false
	}
	n.Shown = shown
	return true
}

// Collapse implements Document.
func (t *Tree) Collapse(id string) {
	t.mu.Lock()
	if t.driver != nil {
		d := t.driver
		t.mu.Unlock()
		d.Send(Command{Op: OpCollapse, ID: id})
		return
	}
	changed := t.applyCollapse(id)
	l := t.listener
	t.mu.Unlock()

	if changed && l != nil {
		l.Settled(id)
	}
}

func (t *Tree) applyCollapse(id string) bool {
	n, ok := t.nodes[id]
	if !ok || n.Kind != KindCollapse || n.Collapsed {
		return false
	}
	n.Collapsed = true
	return true
}

// ScrollTo implements Document.
func (t *Tree) ScrollTo(id string) {
	t.mu.Lock()
	t.scrolledTo = append(t.scrolledTo, id)
	d := t.driver
	t.mu.Unlock()
	if d != nil {
		d.Send(Command{Op: OpScrollTo, ID: id})
	}
}

// ScrollY implements Document.
func (t *Tree) ScrollY() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrollY
}

// SetScrollY implements Document.
func (t *Tree) SetScrollY(y int) {
	t.mu.Lock()
	t.scrollY = y
	d := t.driver
	t.mu.Unlock()
	if d != nil {
		d.Send(Command{Op: OpSetScroll, Y: y})
	}
}

// =============================================================================
// Head, History, Notifier
// =============================================================================

// Title implements Head.
func (t *Tree) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// SetTitle implements Head.
func (t *Tree) SetTitle(title string) {
	t.mu.Lock()
	t.title = title
	d := t.driver
	t.mu.Unlock()
	if d != nil {
		d.Send(Command{Op: OpSetTitle, Title: title})
	}
}

// Description returns the meta description.
func (t *Tree) Description() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.description
}

// SetDescription implements Head.
func (t *Tree) SetDescription(description string) {
	t.mu.Lock()
	t.description = description
	d := t.driver
	t.mu.Unlock()
	if d != nil {
		d.Send(Command{Op: OpSetDescription, Message: description})
	}
}

// Location implements History.
func (t *Tree) Location() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[t.pos].URL
}

// PushState implements History.
func (t *Tree) PushState(title, url string) {
	t.mu.Lock()
	t.entries = append(t.entries[:t.pos+1], Entry{Title: title, URL: url})
	t.pos++
	d := t.driver
	t.mu.Unlock()
	if d != nil {
		d.Send(Command{Op: OpPushState, Title: title, URL: url})
	}
}

// ReplaceState implements History.
func (t *Tree) ReplaceState(title, url string) {
	t.mu.Lock()
	t.entries[t.pos] = Entry{Title: title, URL: url}
	d := t.driver
	t.mu.Unlock()
	if d != nil {
		d.Send(Command{Op: OpReplaceState, Title: title, URL: url})
	}
}

// Back moves one entry back, like the browser back button, and returns the
// entry now current.
func (t *Tree) Back() (Entry, bool) {
	return t.move(-1)
}

// Forward moves one entry forward.
func (t *Tree) Forward() (Entry, bool) {
	return t.move(1)
}

func (t *Tree) move(delta int) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := t.pos + delta
	if next < 0 || next >= len(t.entries) {
		return Entry{}, false
	}
	t.pos = next
	return t.entries[next], true
}

// Entries returns a copy of the browser history and the current position.
func (t *Tree) Entries() ([]Entry, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out, t.pos
}

// ScrolledTo returns every ScrollTo target in call order.
func (t *Tree) ScrolledTo() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.scrolledTo...)
}

// SetLoading implements Notifier.
func (t *Tree) SetLoading(loading bool) {
	t.mu.Lock()
	t.loading = loading
	d := t.driver
	t.mu.Unlock()
	if d != nil {
		d.Send(Command{Op: OpLoading, Value: loading})
	}
}

// Loading reports the loading indicator state.
func (t *Tree) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// ShowError implements Notifier.
func (t *Tree) ShowError(err error) {
	t.mu.Lock()
	t.errors = append(t.errors, err)
	d := t.driver
	t.mu.Unlock()
	if d != nil {
		d.Send(Command{Op: OpError, Message: err.Error()})
	}
}

// Errors returns every error shown so far.
func (t *Tree) Errors() []error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]error(nil), t.errors...)
}

// Reauthenticate implements Notifier.
func (t *Tree) Reauthenticate() {
	t.mu.Lock()
	t.reauth++
	d := t.driver
	t.mu.Unlock()
	if d != nil {
		d.Send(Command{Op: OpReauthenticate})
	}
}

// ReauthCount returns how many times re-authentication was requested.
func (t *Tree) ReauthCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reauth
}

// =============================================================================
// Remote events
// =============================================================================

// Apply records a transition reported by a remote view and notifies the
// listener. Unknown event types are rejected.
func (t *Tree) Apply(ev Event) error {
	t.mu.Lock()
	l := t.listener
	var notify func()

	switch ev.Type {
	case EventTabShown:
		t.activate(ev.ID)
		notify = func() { l.TabShown(ev.ID) }
	case EventModalShown:
		t.applyModal(ev.ID, true)
		notify = func() { l.ModalShown(ev.ID) }
	case EventModalHidden:
		t.applyModal(ev.ID, false)
		notify = func() { l.ModalHidden(ev.ID) }
	case EventCollapsed:
		t.applyCollapse(ev.ID)
		notify = func() { l.Settled(ev.ID) }
	case EventSettled:
		notify = func() { l.Settled(ev.ID) }
	case EventScroll:
		t.scrollY = ev.Y
	default:
		t.mu.Unlock()
		return fmt.Errorf("view: unknown event type %q", ev.Type)
	}
	t.mu.Unlock()

	if notify != nil && l != nil {
		notify()
	}
	return nil
}
