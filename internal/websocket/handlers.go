package websocket

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",  // Frontend dev server
	"https://localhost:3000", // Frontend dev server (HTTPS)
	"http://localhost",       // Nginx proxy (Docker)
	"https://localhost",      // Nginx proxy (HTTPS)
	"http://127.0.0.1:3000",  // Alternative localhost
	"http://127.0.0.1",       // Alternative localhost (Nginx)
}

// NewUpgrader returns an upgrader that accepts the given origins on top of
// the local development ones. Requests without an Origin header come from
// non-browser clients and are accepted.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	origins := append(slices.Clone(defaultAllowedOrigins), allowedOrigins...)

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if slices.Contains(origins, origin) {
				return true
			}

			// For development/testing, allow any localhost variations
			return strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
		},
	}
}
