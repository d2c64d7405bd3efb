package server

import (
	_ "embed"
	"net/http"
)

//go:embed client.js
var clientJS []byte

const shellHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="description" content="">
<title></title>
<script src="/client.js" defer></script>
</head>
<body></body>
</html>
`

// serveShell serves an empty document. Sites render their own markup and
// include /client.js; this page is only a starting point.
func (s *Server) serveShell(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(shellHTML))
}

func (s *Server) serveClient(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(clientJS)
}
