package navstate

import (
	"testing"
)

func TestParse_SeparatesTypeAndAnchor(t *testing.T) {
	st, err := Parse("?type=character&id=42#player-stats-summary")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if st.Type != KindCharacter {
		t.Errorf("expected type character, got %q", st.Type)
	}
	if st.Hash != "player-stats-summary" {
		t.Errorf("expected anchor player-stats-summary, got %q", st.Hash)
	}
	if st.Params.Has(KeyType) {
		t.Error("params must not contain the discriminator")
	}
	if got := st.Params.Get("id"); got != "42" {
		t.Errorf("expected id 42, got %q", got)
	}
}

func TestParse_FullURL(t *testing.T) {
	st, err := Parse("https://example.com/?type=search&name=Serral#search-all")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if st.Type != KindSearch || st.Params.Get("name") != "Serral" || st.Hash != "search-all" {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestState_RoundTrip(t *testing.T) {
	tests := []string{
		"",
		"#ladder-top",
		"?type=ladder&season=46&queue=LOTV_1V1&team-type=ARRANGED&ratingCursor=99999&idCursor=0&sortingOrder=DESC#ladder-top",
		"?type=group&characterId=1&characterId=2&clanId=3",
		"?type=search&name=a+b%26c#search-all",
		"?type=modal&id=settings&m=1#settings",
		"?season=46&t=stats-race&t=stats-league#stats-global",
	}

	for _, raw := range tests {
		st, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		if got := st.String(); got != raw {
			t.Errorf("String() = %q, want %q", got, raw)
		}
		again, err := Parse(st.String())
		if err != nil {
			t.Fatalf("re-Parse(%q): %v", st.String(), err)
		}
		if !again.Equal(st) {
			t.Errorf("round trip changed state: %+v vs %+v", again, st)
		}
	}
}

func TestState_IsModal(t *testing.T) {
	if !MustParse("?type=modal&id=x&m=1").IsModal() {
		t.Error("m=1 should mark an overlay state")
	}
	if MustParse("?type=ladder").IsModal() {
		t.Error("state without m must be page level")
	}
}

func TestState_SectionQueryStripsTabsAndAnchor(t *testing.T) {
	st := MustParse("?type=ladder&season=46&t=a&t=b#ladder-top")
	if got, want := st.SectionQuery(), "?type=ladder&season=46"; got != want {
		t.Errorf("SectionQuery() = %q, want %q", got, want)
	}
}

func TestState_KeyIgnoresAnchorTabsAndModalFlag(t *testing.T) {
	a := MustParse("?type=character&id=42&m=1&t=x#player-stats-summary")
	b := MustParse("?type=character&id=42#player-stats-mmr")
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	c := MustParse("?type=character&id=43")
	if a.Key() == c.Key() {
		t.Error("different characters must not share a key")
	}
}

func TestParams_SetKeepsPosition(t *testing.T) {
	p := Params{{"a", "1"}, {"b", "2"}, {"a", "3"}, {"c", "4"}}
	p.Set("a", "9")
	want := Params{{"a", "9"}, {"b", "2"}, {"c", "4"}}
	if !p.Equal(want) {
		t.Errorf("Set: got %v, want %v", p, want)
	}

	p.Set("d", "5")
	if p[len(p)-1] != (Param{"d", "5"}) {
		t.Errorf("missing key should be appended, got %v", p)
	}
}

func TestParams_WithoutDoesNotMutate(t *testing.T) {
	p := Params{{"a", "1"}, {"b", "2"}}
	q := p.Without("a")
	if len(p) != 2 {
		t.Error("Without mutated the receiver")
	}
	if q.Has("a") || !q.Has("b") {
		t.Errorf("unexpected result %v", q)
	}
}

func TestParseQuery_Invalid(t *testing.T) {
	if _, err := ParseQuery("a=%zz"); err == nil {
		t.Error("expected an escape error")
	}
}
