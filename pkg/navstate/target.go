package navstate

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the restoration discriminator carried by the "type" key.
type Kind string

const (
	KindNone            Kind = ""
	KindLadder          Kind = "ladder"
	KindCharacter       Kind = "character"
	KindSearch          Kind = "search"
	KindVODSearch       Kind = "vod-search"
	KindTeamMMR         Kind = "team-mmr"
	KindOnline          Kind = "online"
	KindClanSearch      Kind = "clan-search"
	KindFollowingLadder Kind = "following-ladder"
	KindVersus          Kind = "versus"
	KindGroup           Kind = "group"
	KindModal           Kind = "modal"
	KindTeamSearch      Kind = "team-search"
)

var knownKinds = map[Kind]bool{
	KindLadder:          true,
	KindCharacter:       true,
	KindSearch:          true,
	KindVODSearch:       true,
	KindTeamMMR:         true,
	KindOnline:          true,
	KindClanSearch:      true,
	KindFollowingLadder: true,
	KindVersus:          true,
	KindGroup:           true,
	KindModal:           true,
	KindTeamSearch:      true,
}

// Known reports whether k has its own restoration path.
func (k Kind) Known() bool {
	return knownKinds[k]
}

// SortingOrder is the cursor direction of paginated results.
type SortingOrder string

const (
	SortAsc  SortingOrder = "ASC"
	SortDesc SortingOrder = "DESC"
)

// Cursor keys shared by the ladder-like targets.
const (
	KeyRatingCursor = "ratingCursor"
	KeyIDCursor     = "idCursor"
	KeySortingOrder = "sortingOrder"
)

// Clan search cursor keys.
const (
	KeyCursor      = "cursor"
	KeyCursorValue = "cursorValue"
	KeySort        = "sort"
)

// Group entity keys.
const (
	KeyCharacterID = "characterId"
	KeyClanID      = "clanId"
	KeyAccountID   = "accountId"
	KeyProPlayerID = "proPlayerId"
)

// Target is a parsed restoration request. The set of implementations is
// closed: one struct per Kind plus DefaultTarget.
type Target interface {
	Kind() Kind

	// FormQuery is the query handed to the data loader: every param the
	// target did not consume itself, minus the reserved keys.
	FormQuery() string

	target()
}

// Residual holds the params a target did not consume.
type Residual struct {
	Form Params
}

// FormQuery implements Target.
func (f Residual) FormQuery() string { return f.Form.Encode() }

func (Residual) target() {}

// LadderCursor positions a ladder page. The Has fields record that the
// state carried the cursor, so an explicit zero is kept.
type LadderCursor struct {
	RatingCursor    int64
	IDCursor        int64
	SortingOrder    SortingOrder
	HasRatingCursor bool
	HasIDCursor     bool
}

// LadderTarget restores a ladder page: type=ladder.
type LadderTarget struct {
	Residual
	Cursor LadderCursor
}

// CharacterTarget opens a character profile: type=character&id=<id>.
type CharacterTarget struct {
	Residual
	ID int64
}

// SearchTarget restores a character search: type=search&name=<name>.
type SearchTarget struct {
	Residual
	Name string
}

// VODSearchTarget restores a VOD search. Every param is a filter.
type VODSearchTarget struct{ Residual }

// TeamMMRTarget opens the team MMR history overlay.
type TeamMMRTarget struct{ Residual }

// OnlineTarget restores the online statistics.
type OnlineTarget struct{ Residual }

// ClanCursor positions a clan search page. Sort names the cursor field.
type ClanCursor struct {
	Cursor       string
	CursorValue  string
	IDCursor     int64
	SortingOrder SortingOrder
}

// ClanSearchTarget restores a clan search page.
type ClanSearchTarget struct {
	Residual
	Cursor ClanCursor
	Sort   string
}

// FollowingLadderTarget restores the ladder of followed players.
type FollowingLadderTarget struct {
	Residual
	Cursor LadderCursor
}

// VersusTarget opens the versus overlay.
type VersusTarget struct{ Residual }

// GroupTarget opens the group overlay for a set of characters, clans,
// accounts and pro players. At least one id is required.
type GroupTarget struct {
	Residual
	CharacterIDs []int64
	ClanIDs      []int64
	AccountIDs   []int64
	ProPlayerIDs []int64
}

// Empty reports whether the group names no entity at all.
func (g GroupTarget) Empty() bool {
	return len(g.CharacterIDs)+len(g.ClanIDs)+len(g.AccountIDs)+len(g.ProPlayerIDs) == 0
}

// ModalTarget opens a singleton modal: type=modal&id=<id>.
type ModalTarget struct {
	Residual
	ID string
}

// TeamSearchTarget restores a team search.
type TeamSearchTarget struct{ Residual }

// DefaultTarget is used for states without a known discriminator.
type DefaultTarget struct {
	Residual
	Raw Kind
}

func (LadderTarget) Kind() Kind          { return KindLadder }
func (CharacterTarget) Kind() Kind       { return KindCharacter }
func (SearchTarget) Kind() Kind          { return KindSearch }
func (VODSearchTarget) Kind() Kind       { return KindVODSearch }
func (TeamMMRTarget) Kind() Kind         { return KindTeamMMR }
func (OnlineTarget) Kind() Kind          { return KindOnline }
func (ClanSearchTarget) Kind() Kind      { return KindClanSearch }
func (FollowingLadderTarget) Kind() Kind { return KindFollowingLadder }
func (VersusTarget) Kind() Kind          { return KindVersus }
func (GroupTarget) Kind() Kind           { return KindGroup }
func (ModalTarget) Kind() Kind           { return KindModal }
func (TeamSearchTarget) Kind() Kind      { return KindTeamSearch }
func (DefaultTarget) Kind() Kind         { return KindNone }

// ParseTarget builds the typed target for st. Consumed sub-parameters are
// stripped from the form params.
func ParseTarget(st State) (Target, error) {
	p := st.Params.Without(KeyModal, KeyTab)
	form := func(consumed ...string) Residual {
		return Residual{Form: p.Without(consumed...)}
	}

	switch st.Type {
	case KindLadder, KindFollowingLadder:
		cur, err := parseLadderCursor(p)
		if err != nil {
			return nil, err
		}
		f := form(KeyRatingCursor, KeyIDCursor, KeySortingOrder)
		if st.Type == KindFollowingLadder {
			return FollowingLadderTarget{Residual: f, Cursor: cur}, nil
		}
		return LadderTarget{Residual: f, Cursor: cur}, nil

	case KindCharacter:
		id, err := requireInt(p, "id")
		if err != nil {
			return nil, err
		}
		return CharacterTarget{Residual: form("id"), ID: id}, nil

	case KindSearch:
		name, ok := p.Lookup("name")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, &ParamError{Key: "name", Reason: "missing"}
		}
		return SearchTarget{Residual: form("name"), Name: name}, nil

	case KindVODSearch:
		return VODSearchTarget{Residual: form()}, nil

	case KindTeamMMR:
		return TeamMMRTarget{Residual: form()}, nil

	case KindOnline:
		return OnlineTarget{Residual: form()}, nil

	case KindClanSearch:
		idCursor, _, err := optionalInt(p, KeyIDCursor)
		if err != nil {
			return nil, err
		}
		order, err := parseSortingOrder(p)
		if err != nil {
			return nil, err
		}
		return ClanSearchTarget{
			Residual: form(KeyCursor, KeyCursorValue, KeyIDCursor, KeySortingOrder, KeySort),
			Cursor: ClanCursor{
				Cursor:       p.Get(KeyCursor),
				CursorValue:  p.Get(KeyCursorValue),
				IDCursor:     idCursor,
				SortingOrder: order,
			},
			Sort: p.Get(KeySort),
		}, nil

	case KindVersus:
		return VersusTarget{Residual: form()}, nil

	case KindGroup:
		g := GroupTarget{Residual: form(KeyCharacterID, KeyClanID, KeyAccountID, KeyProPlayerID)}
		var err error
		if g.CharacterIDs, err = intList(p, KeyCharacterID); err != nil {
			return nil, err
		}
		if g.ClanIDs, err = intList(p, KeyClanID); err != nil {
			return nil, err
		}
		if g.AccountIDs, err = intList(p, KeyAccountID); err != nil {
			return nil, err
		}
		if g.ProPlayerIDs, err = intList(p, KeyProPlayerID); err != nil {
			return nil, err
		}
		if g.Empty() {
			return nil, &ParamError{Key: KeyCharacterID, Reason: "group needs at least one entity id"}
		}
		return g, nil

	case KindModal:
		id, ok := p.Lookup("id")
		if !ok || id == "" {
			return nil, &ParamError{Key: "id", Reason: "missing"}
		}
		return ModalTarget{Residual: form("id"), ID: id}, nil

	case KindTeamSearch:
		return TeamSearchTarget{Residual: form()}, nil
	}

	return DefaultTarget{Residual: form(), Raw: st.Type}, nil
}

// ParamError reports a malformed or missing sub-parameter.
type ParamError struct {
	Key    string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("navstate: param %q: %s", e.Key, e.Reason)
}

func parseLadderCursor(p Params) (LadderCursor, error) {
	rating, hasRating, err := optionalInt(p, KeyRatingCursor)
	if err != nil {
		return LadderCursor{}, err
	}
	id, hasID, err := optionalInt(p, KeyIDCursor)
	if err != nil {
		return LadderCursor{}, err
	}
	order, err := parseSortingOrder(p)
	if err != nil {
		return LadderCursor{}, err
	}
	return LadderCursor{
		RatingCursor:    rating,
		IDCursor:        id,
		SortingOrder:    order,
		HasRatingCursor: hasRating,
		HasIDCursor:     hasID,
	}, nil
}

func parseSortingOrder(p Params) (SortingOrder, error) {
	v, ok := p.Lookup(KeySortingOrder)
	if !ok || v == "" {
		return SortDesc, nil
	}
	switch SortingOrder(strings.ToUpper(v)) {
	case SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	}
	return "", &ParamError{Key: KeySortingOrder, Reason: "must be ASC or DESC"}
}

func requireInt(p Params, key string) (int64, error) {
	v, ok := p.Lookup(key)
	if !ok || v == "" {
		return 0, &ParamError{Key: key, Reason: "missing"}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &ParamError{Key: key, Reason: "not an integer"}
	}
	return n, nil
}

// optionalInt reads key when present. The bool reports presence.
func optionalInt(p Params, key string) (int64, bool, error) {
	if v, ok := p.Lookup(key); !ok || v == "" {
		return 0, false, nil
	}
	n, err := requireInt(p, key)
	return n, err == nil, err
}

func intList(p Params, key string) ([]int64, error) {
	var out []int64
	for _, v := range p.GetAll(key) {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &ParamError{Key: key, Reason: "not an integer"}
		}
		out = append(out, n)
	}
	return out, nil
}
