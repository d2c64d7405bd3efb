package view

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// NodeKind is the role of a node in the layout tree.
type NodeKind int

const (
	KindBlock NodeKind = iota
	KindGroup
	KindPane
	KindModal
	KindCollapse
)

var nodeKindNames = map[string]NodeKind{
	"block":    KindBlock,
	"group":    KindGroup,
	"pane":     KindPane,
	"modal":    KindModal,
	"collapse": KindCollapse,
}

func (k NodeKind) String() string {
	for name, v := range nodeKindNames {
		if v == k {
			return name
		}
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is an element of the layout tree.
type Node struct {
	ID   string
	Kind NodeKind

	// Pane fields. Link is the id of the tab link revealing the pane.
	Link   string
	Active bool

	// Modal fields.
	Flavor    Flavor
	Singleton bool
	Shown     bool

	// Collapse fields.
	Collapsed bool

	Children []*Node
	parent   *Node
}

// NewBlock creates a plain container.
func NewBlock(id string, children ...*Node) *Node {
	return &Node{ID: id, Kind: KindBlock, Children: children}
}

// NewGroup creates a tab group. When no pane is marked active the first one
// is.
func NewGroup(id string, panes ...*Node) *Node {
	active := false
	for _, p := range panes {
		active = active || p.Active
	}
	if !active && len(panes) > 0 {
		panes[0].Active = true
	}
	return &Node{ID: id, Kind: KindGroup, Children: panes}
}

// NewPane creates a tab pane revealed by the link "<id>-tab".
func NewPane(id string, children ...*Node) *Node {
	return &Node{ID: id, Kind: KindPane, Link: id + "-tab", Children: children}
}

// NewModal creates a hidden modal.
func NewModal(id string, flavor Flavor, singleton bool, children ...*Node) *Node {
	return &Node{ID: id, Kind: KindModal, Flavor: flavor, Singleton: singleton, Children: children}
}

// NewCollapse creates an expanded collapsible.
func NewCollapse(id string, children ...*Node) *Node {
	return &Node{ID: id, Kind: KindCollapse, Children: children}
}

// Activate marks a pane as the active one of its group.
func (n *Node) Activate() *Node {
	n.Active = true
	return n
}

// nodeSpec is the YAML form of a layout node.
type nodeSpec struct {
	ID        string     `yaml:"id"`
	Kind      string     `yaml:"kind"`
	Link      string     `yaml:"link,omitempty"`
	Active    bool       `yaml:"active,omitempty"`
	Flavor    string     `yaml:"flavor,omitempty"`
	Singleton bool       `yaml:"singleton,omitempty"`
	Shown     bool       `yaml:"shown,omitempty"`
	Collapsed bool       `yaml:"collapsed,omitempty"`
	Children  []nodeSpec `yaml:"children,omitempty"`
}

// ParseLayout reads a YAML layout description:
//
//	kind: block
//	id: page
//	children:
//	  - kind: group
//	    id: main-tabs
//	    children:
//	      - {kind: pane, id: ladder-top, active: true}
//	      - {kind: pane, id: stats}
//	  - {kind: modal, id: player-info, flavor: overlay}
func ParseLayout(r io.Reader) (*Node, error) {
	var spec nodeSpec
	if err := yaml.NewDecoder(r).Decode(&spec); err != nil {
		return nil, fmt.Errorf("view: decode layout: %w", err)
	}
	return spec.build()
}

func (s nodeSpec) build() (*Node, error) {
	kindName := s.Kind
	if kindName == "" {
		kindName = "block"
	}
	kind, ok := nodeKindNames[strings.ToLower(kindName)]
	if !ok {
		return nil, fmt.Errorf("view: node %q: unknown kind %q", s.ID, s.Kind)
	}

	children := make([]*Node, 0, len(s.Children))
	for _, c := range s.Children {
		child, err := c.build()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	switch kind {
	case KindGroup:
		for _, c := range children {
			if c.Kind != KindPane {
				return nil, fmt.Errorf("view: group %q: child %q is not a pane", s.ID, c.ID)
			}
		}
		return NewGroup(s.ID, children...), nil
	case KindPane:
		n := NewPane(s.ID, children...)
		n.Active = s.Active
		if s.Link != "" {
			n.Link = s.Link
		}
		return n, nil
	case KindModal:
		flavor := Overlay
		switch strings.ToLower(s.Flavor) {
		case "", "overlay":
		case "inline":
			flavor = Inline
		default:
			return nil, fmt.Errorf("view: modal %q: unknown flavor %q", s.ID, s.Flavor)
		}
		n := NewModal(s.ID, flavor, s.Singleton, children...)
		n.Shown = s.Shown
		return n, nil
	case KindCollapse:
		n := NewCollapse(s.ID, children...)
		n.Collapsed = s.Collapsed
		return n, nil
	}
	return NewBlock(s.ID, children...), nil
}
