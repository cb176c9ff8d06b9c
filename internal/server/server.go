// Package server implements the HTTP API, middleware, and request handlers for the application.
package server

import (
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/woozymasta/mcmotd/internal/config"
	"github.com/woozymasta/mcmotd/internal/report"
)

// New creates a new Server instance with the provided resolver, binding store, and configuration.
func New(resolver StatusResolver, bindings BindingStore, cfg *config.Config) *Server {
	groups := make(map[uint64]struct{})
	for _, group := range cfg.Server.Groups {
		if group == "" {
			continue
		}
		groups[xxhash.Sum64String(group)] = struct{}{}
	}

	return &Server{
		resolver:       resolver,
		bindings:       bindings,
		allowedGroups:  groups,
		lang:           report.ParseLang(cfg.Report.Lang, report.DefaultLang),
		maxBody:        cfg.Server.MaxBodySize,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,

		shutdown: make(chan struct{}),
	}
}

// Stop signals background routines started by the handler chain and waits for them.
func (s *Server) Stop() {
	close(s.shutdown)
	s.wg.Wait()
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/motd", s.handleMotd)
	mux.HandleFunc("GET /api/groups/{group}/motd", s.handleGroupMotd)
	mux.HandleFunc("GET /api/groups/{group}/server", s.handleGetBinding)
	mux.HandleFunc("PUT /api/groups/{group}/server", s.handleBind)
	mux.HandleFunc("DELETE /api/groups/{group}/server", s.handleUnbind)
	mux.HandleFunc("GET /api/version", s.handleVersion)

	return s.RequestIDMiddleware(s.LoggingMiddleware(s.RateLimitMiddleware(mux)))
}

// groupServed reports whether the group filter admits groupID.
func (s *Server) groupServed(groupID string) bool {
	if len(s.allowedGroups) == 0 {
		return true
	}
	_, ok := s.allowedGroups[xxhash.Sum64String(groupID)]

	return ok
}
