package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with defaults sized for the admin console:
// short header reads, generous write window for the inventory view.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
