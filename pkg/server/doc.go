// Package server hosts navigation engines for browser tabs over WebSocket.
//
// Each connection is a Session. The browser sends a hello carrying its
// layout snapshot and current location; the session mirrors the layout in a
// view.Tree, drives it with a nav.Engine and forwards every view command to
// the browser as JSON. The browser reports completed transitions back as
// events, which the tree hands to the engine.
//
// # Routes
//
//	GET /          document shell
//	GET /client.js browser side of the protocol
//	GET /healthz   liveness and session count
//	GET /metrics   Prometheus metrics (when enabled)
//	GET /ws        WebSocket endpoint
//
// # Protocol
//
// Client to server, one JSON object per message:
//
//	{"type":"hello","session":"","url":"?type=ladder&season=46#ladder-top","layout":{...}}
//	{"type":"event","event":{"type":"tab-shown","id":"stats"}}
//	{"type":"popstate","url":"?type=character&id=42"}
//	{"type":"navigate","url":"?type=search&name=Serral"}
//	{"type":"select-tab","id":"stats"}
//	{"type":"show-modal","id":"settings"}
//	{"type":"hide-modal"}
//
// Server to client:
//
//	{"type":"welcome","session":"3f2a..."}
//	{"type":"command","command":{"op":"push-state","title":"...","url":"..."}}
//	{"type":"data","resource":"ladder","query":"...","data":{...}}
//	{"type":"error","error":"..."}
//
// # Usage
//
//	srv := server.New(&server.ServerConfig{
//	    Address:    ":8080",
//	    Layout:     layoutYAML,
//	    APIBaseURL: "https://ladder.example.com",
//	})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
