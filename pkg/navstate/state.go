package navstate

import (
	"net/url"
	"strings"
)

// Reserved query keys.
const (
	// KeyType carries the discriminator.
	KeyType = "type"

	// KeyModal marks a state that belongs to an overlay ("m=1").
	KeyModal = "m"

	// KeyTab lists the targets of active tabs other than the anchored one.
	KeyTab = "t"
)

// State is the serializable description of what is on screen.
// Params never contain the discriminator or the anchor; both are carried in
// their own fields so they can be stripped and restored independently.
type State struct {
	Type   Kind
	Params Params
	Hash   string
}

// Parse parses a serialized state. raw may be a full URL, a path with a
// query, or just "?query#anchor".
func Parse(raw string) (State, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return State{}, err
	}
	params, err := ParseQuery(u.RawQuery)
	if err != nil {
		return State{}, err
	}

	st := State{Hash: u.Fragment}
	if t, ok := params.Lookup(KeyType); ok {
		st.Type = Kind(t)
	}
	st.Params = params.Without(KeyType)
	return st, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(raw string) State {
	st, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return st
}

// Query renders the query part, including the leading '?', or "" when the
// state has no discriminator and no params.
func (s State) Query() string {
	p := s.AllParams()
	if len(p) == 0 {
		return ""
	}
	return "?" + p.Encode()
}

// AllParams returns the params with the discriminator in front, the way
// they appear in the query.
func (s State) AllParams() Params {
	var p Params
	if s.Type != KindNone {
		p = append(p, Param{Key: KeyType, Value: string(s.Type)})
	}
	return append(p, s.Params...)
}

// String renders the state as "?query#anchor".
func (s State) String() string {
	var b strings.Builder
	b.WriteString(s.Query())
	if s.Hash != "" {
		b.WriteByte('#')
		b.WriteString(s.Hash)
	}
	return b.String()
}

// IsModal reports whether the state belongs to an overlay.
func (s State) IsModal() bool {
	return s.Params.Get(KeyModal) == "1"
}

// WithHash returns a copy of s anchored at hash.
func (s State) WithHash(hash string) State {
	s.Params = s.Params.Clone()
	s.Hash = hash
	return s
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	s.Params = s.Params.Clone()
	return s
}

// SectionQuery is the query string cached per section: no anchor and no
// tab-selection keys.
func (s State) SectionQuery() string {
	st := State{Type: s.Type, Params: s.Params.Without(KeyTab)}
	return st.Query()
}

// Key identifies the data a restoration of s would load. Two states with the
// same key differ only in anchor or tab selection.
func (s State) Key() string {
	st := State{Type: s.Type, Params: s.Params.Without(KeyTab, KeyModal)}
	return st.Query()
}

// Equal reports whether two states serialize identically.
func (s State) Equal(o State) bool {
	return s.Type == o.Type && s.Hash == o.Hash && s.Params.Equal(o.Params)
}

// Empty reports whether the state carries nothing at all.
func (s State) Empty() bool {
	return s.Type == KindNone && len(s.Params) == 0 && s.Hash == ""
}
