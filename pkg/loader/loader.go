package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	perrors "github.com/vango-dev/ladderpulse/internal/errors"
	"github.com/vango-dev/ladderpulse/pkg/nav"
	"github.com/vango-dev/ladderpulse/pkg/navstate"
)

// Default client settings.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 8 << 20
)

// Resource names reported in Result.Resource.
const (
	ResourceLadder          = "ladder"
	ResourceLadderStats     = "ladder-stats"
	ResourceLeagueBounds    = "league-bounds"
	ResourceCharacter       = "character"
	ResourceCharacterSearch = "character-search"
	ResourceVODSearch       = "vod-search"
	ResourceTeamMMR         = "team-mmr"
	ResourceOnline          = "online"
	ResourceClanSearch      = "clan-search"
	ResourceFollowingLadder = "following-ladder"
	ResourceVersus          = "versus"
	ResourceGroup           = "group"
	ResourceTeamSearch      = "team-search"
)

// Result is one successful load.
type Result struct {
	Resource string
	Query    string
	Body     json.RawMessage
}

// Sink receives loaded payloads.
type Sink interface {
	Deliver(ctx context.Context, r Result)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Result)

// Deliver implements Sink.
func (f SinkFunc) Deliver(ctx context.Context, r Result) { f(ctx, r) }

type discard struct{}

func (discard) Deliver(context.Context, Result) {}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithSink sets where loaded payloads go.
func WithSink(s Sink) Option {
	return func(c *Client) {
		c.sink = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMaxBodySize caps the size of a response body.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		c.maxBody = n
	}
}

// Client loads restoration data over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	sink    Sink
	logger  *slog.Logger
	maxBody int64
}

var _ nav.Loader = (*Client)(nil)

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		sink:    discard{},
		logger:  slog.Default().With("component", "loader"),
		maxBody: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// nav.Loader
// =============================================================================

func (c *Client) Ladder(ctx context.Context, form string, cursor navstate.LadderCursor) error {
	return c.get(ctx, ResourceLadder, "/api/ladder", withLadderCursor(form, cursor))
}

func (c *Client) LadderStats(ctx context.Context, form string) error {
	return c.get(ctx, ResourceLadderStats, "/api/ladder/stats", form)
}

func (c *Client) LeagueBounds(ctx context.Context, form string) error {
	return c.get(ctx, ResourceLeagueBounds, "/api/ladder/league/bounds", form)
}

func (c *Client) Character(ctx context.Context, id int64) error {
	return c.get(ctx, ResourceCharacter, "/api/character/"+strconv.FormatInt(id, 10)+"/common", "")
}

func (c *Client) CharacterSearch(ctx context.Context, name string) error {
	var p navstate.Params
	p.Set("term", name)
	return c.get(ctx, ResourceCharacterSearch, "/api/character/search", p.Encode())
}

func (c *Client) VODSearch(ctx context.Context, form string) error {
	return c.get(ctx, ResourceVODSearch, "/api/vod/twitch/search", form)
}

func (c *Client) TeamMMR(ctx context.Context, form string) error {
	return c.get(ctx, ResourceTeamMMR, "/api/team/history", form)
}

func (c *Client) Online(ctx context.Context, form string) error {
	return c.get(ctx, ResourceOnline, "/api/online", form)
}

func (c *Client) ClanSearch(ctx context.Context, form string, cursor navstate.ClanCursor, sort string) error {
	p := parseForm(form)
	setNonEmpty(&p, navstate.KeyCursor, cursor.Cursor)
	setNonEmpty(&p, navstate.KeyCursorValue, cursor.CursorValue)
	if cursor.IDCursor != 0 {
		p.Set(navstate.KeyIDCursor, strconv.FormatInt(cursor.IDCursor, 10))
	}
	setNonEmpty(&p, navstate.KeySortingOrder, string(cursor.SortingOrder))
	setNonEmpty(&p, navstate.KeySort, sort)
	return c.get(ctx, ResourceClanSearch, "/api/clan/cursor", p.Encode())
}

func (c *Client) FollowingLadder(ctx context.Context, form string, cursor navstate.LadderCursor) error {
	return c.get(ctx, ResourceFollowingLadder, "/api/my/following/ladder", withLadderCursor(form, cursor))
}

func (c *Client) Versus(ctx context.Context, form string) error {
	return c.get(ctx, ResourceVersus, "/api/versus/common", form)
}

func (c *Client) Group(ctx context.Context, group navstate.GroupTarget) error {
	p := parseForm(group.FormQuery())
	addIDs(&p, navstate.KeyCharacterID, group.CharacterIDs)
	addIDs(&p, navstate.KeyClanID, group.ClanIDs)
	addIDs(&p, navstate.KeyAccountID, group.AccountIDs)
	addIDs(&p, navstate.KeyProPlayerID, group.ProPlayerIDs)
	return c.get(ctx, ResourceGroup, "/api/group", p.Encode())
}

func (c *Client) TeamSearch(ctx context.Context, form string) error {
	return c.get(ctx, ResourceTeamSearch, "/api/team/search", form)
}

// =============================================================================
// Transport
// =============================================================================

func (c *Client) get(ctx context.Context, resource, path, query string) error {
	url := c.baseURL + path
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return perrors.New("N101").WithDetailf("Could not build %s request.", resource).Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("loader: %s: %w", resource, ctx.Err())
		}
		return perrors.New("N101").
			WithDetailf("Could not load %s: %v", resource, err).
			Wrap(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return perrors.New("N102").WithDetailf("GET %s returned 401.", path)
	case resp.StatusCode != http.StatusOK:
		return perrors.New("N103").WithDetailf("GET %s returned status %d.", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return perrors.New("N101").WithDetailf("Reading %s failed.", resource).Wrap(err)
	}
	if int64(len(body)) > c.maxBody {
		return perrors.New("N103").WithDetailf("%s response exceeds %d bytes.", resource, c.maxBody)
	}
	if !json.Valid(body) {
		return perrors.New("N103").WithDetailf("%s response is not valid JSON.", resource)
	}

	c.logger.Debug("loaded",
		"resource", resource,
		"query", query,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	c.sink.Deliver(ctx, Result{Resource: resource, Query: query, Body: body})
	return nil
}

func parseForm(form string) navstate.Params {
	p, err := navstate.ParseQuery(form)
	if err != nil {
		return navstate.Params{}
	}
	return p
}

func withLadderCursor(form string, cursor navstate.LadderCursor) string {
	p := parseForm(form)
	if cursor.HasRatingCursor || cursor.RatingCursor != 0 {
		p.Set(navstate.KeyRatingCursor, strconv.FormatInt(cursor.RatingCursor, 10))
	}
	if cursor.HasIDCursor || cursor.IDCursor != 0 {
		p.Set(navstate.KeyIDCursor, strconv.FormatInt(cursor.IDCursor, 10))
	}
	setNonEmpty(&p, navstate.KeySortingOrder, string(cursor.SortingOrder))
	return p.Encode()
}

func setNonEmpty(p *navstate.Params, key, value string) {
	if value != "" {
		p.Set(key, value)
	}
}

func addIDs(p *navstate.Params, key string, ids []int64) {
	for _, id := range ids {
		p.Add(key, strconv.FormatInt(id, 10))
	}
}
