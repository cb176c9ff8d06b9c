package server

import (
	"context"
	"sync"
	"time"

	"github.com/woozymasta/mcmotd/internal/models"
	"github.com/woozymasta/mcmotd/internal/report"
)

// StatusResolver produces a report or a classified failure for an address.
type StatusResolver interface {
	Resolve(ctx context.Context, addr models.ServerAddress) models.Result
}

// BindingStore persists group to server bindings. *storage.Repository implements it.
type BindingStore interface {
	GetBinding(ctx context.Context, groupID string) (*models.GroupBinding, error)
	PutBinding(ctx context.Context, b models.GroupBinding) error
	DeleteBinding(ctx context.Context, groupID string) (bool, error)
}

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests.
type Server struct {
	// resolver performs the provider fallback chain for each status query.
	resolver StatusResolver

	// bindings stores the server address each group has bound.
	bindings BindingStore

	// allowedGroups is a set of hashed group IDs (using xxhash) served by this instance.
	// An empty set serves every group.
	allowedGroups map[uint64]struct{}

	// shutdown broadcasts a stop signal to background routines.
	shutdown chan struct{}

	// lang is the report language used when the request does not ask for one.
	lang report.Lang

	// wg waits for background routines on shutdown.
	wg sync.WaitGroup

	// maxBody specifies the maximum allowed size (in bytes) for incoming HTTP request bodies.
	maxBody int64

	// hardLimitCount is the maximum number of requests allowed per IP address
	// within the hardLimitWin duration. Zero disables the limiter.
	hardLimitCount int

	// hardLimitWin is the time window duration for the hard rate limiter.
	hardLimitWin time.Duration

	// trustProxy indicates whether the server should trust headers like X-Forwarded-For
	// or CF-Connecting-IP when determining the client's real IP address.
	trustProxy bool
}
