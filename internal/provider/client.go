package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcmotd/internal/config"
	"github.com/woozymasta/mcmotd/internal/models"
	"github.com/woozymasta/mcmotd/internal/vars"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single lookup when the configuration leaves it unset.
	DefaultTimeout = 8 * time.Second

	maxBodySize = 1 << 20
)

// Client issues provider lookups. It is safe for concurrent use.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	endpoints map[ID]Endpoint
	userAgent string
	timeout   time.Duration
}

// New creates a Client for the primary and secondary endpoints described by cfg.
func New(cfg config.Provider) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		http:    &http.Client{},
		limiter: rate.NewLimiter(limit, burst),
		endpoints: map[ID]Endpoint{
			BlackBE: {ID: BlackBE, BaseURL: cfg.PrimaryURL, Edition: models.EditionAuto},
			MCAPI:   {ID: MCAPI, BaseURL: cfg.SecondaryURL, Edition: models.EditionJava},
		},
		userAgent: vars.UserAgent(),
		timeout:   timeout,
	}
}

// Fetch performs one GET against provider id for addr.
// Failures are wrapped with ErrTransport, except a readable JSON body of the wrong shape which
// is wrapped with ErrMalformed. A provider answering "offline" is not a failure.
func (c *Client) Fetch(ctx context.Context, id ID, addr models.ServerAddress) (Payload, error) {
	ep, ok := c.endpoints[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", ErrTransport, id)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: rate limit wait: %w", ErrTransport, id, err)
	}

	target, err := ep.URL(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: build request: %w", ErrTransport, id, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.Ctx(ctx).Trace().
		Str("provider", string(id)).
		Str("edition", string(ep.Edition)).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Provider responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: unexpected status %d", ErrTransport, id, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %w", ErrTransport, id, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: %s: body exceeds %d bytes", ErrTransport, id, maxBodySize)
	}

	payload, err := decode(id, body)
	if errors.Is(err, ErrMalformed) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	return payload, nil
}
