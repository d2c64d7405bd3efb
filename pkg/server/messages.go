package server

import (
	"encoding/json"

	"github.com/vango-dev/ladderpulse/pkg/view"
)

// Client message types.
const (
	MsgHello     = "hello"
	MsgEvent     = "event"
	MsgPopState  = "popstate"
	MsgNavigate  = "navigate"
	MsgSelectTab = "select-tab"
	MsgShowModal = "show-modal"
	MsgHideModal = "hide-modal"
)

// Server message types.
const (
	MsgWelcome = "welcome"
	MsgCommand = "command"
	MsgData    = "data"
	MsgError   = "error"
)

// ClientMessage is a message from the browser.
type ClientMessage struct {
	Type string `json:"type"`

	// Hello fields. Session resumes the section cache of an earlier
	// connection; Layout is the layout snapshot in the YAML/JSON form
	// accepted by view.ParseLayout.
	Session string          `json:"session,omitempty"`
	Layout  json.RawMessage `json:"layout,omitempty"`

	// URL is "?query#anchor" for hello, popstate and navigate.
	URL string `json:"url,omitempty"`

	// ID is the tab target or modal id of a user action.
	ID string `json:"id,omitempty"`

	Event *view.Event `json:"event,omitempty"`
}

// ServerMessage is a message to the browser.
type ServerMessage struct {
	Type     string          `json:"type"`
	Session  string          `json:"session,omitempty"`
	Command  *view.Command   `json:"command,omitempty"`
	Resource string          `json:"resource,omitempty"`
	Query    string          `json:"query,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
}
