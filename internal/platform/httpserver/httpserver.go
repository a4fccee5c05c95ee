package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server. WriteTimeout leaves room for the 15s registration
// deadline plus response encoding.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
