// Package httpserver builds the API server with this service's timeout
// defaults.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a configured *http.Server. Write timeout is generous because
// export downloads can carry a full card dump in one response.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
