// Package resolver turns a server address into a status report by walking an ordered chain
// of status providers and normalizing the winning payload.
package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcmotd/internal/models"
	"github.com/woozymasta/mcmotd/internal/provider"
)

// Fetcher performs one provider lookup. *provider.Client implements it.
// Errors wrapping provider.ErrMalformed end the chain, any other error moves on.
type Fetcher interface {
	Fetch(ctx context.Context, id provider.ID, addr models.ServerAddress) (provider.Payload, error)
}

// Locator resolves a host to an ISO country code, returning "" when unknown.
type Locator interface {
	CountryCode(ctx context.Context, host string) string
}

// Resolver walks the primary then the secondary provider. It holds no mutable state
// and is safe for concurrent use.
type Resolver struct {
	fetcher       Fetcher
	locator       Locator
	primary       provider.ID
	secondary     provider.ID
	locateTimeout time.Duration
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLocator attaches a country locator to online reports.
func WithLocator(l Locator) Option {
	return func(r *Resolver) { r.locator = l }
}

// WithLocateTimeout bounds a single country lookup. Non-positive values keep the default.
func WithLocateTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.locateTimeout = d
		}
	}
}

// WithChain overrides the provider order.
func WithChain(primary, secondary provider.ID) Option {
	return func(r *Resolver) {
		r.primary = primary
		r.secondary = secondary
	}
}

// New creates a Resolver querying BlackBE first and mcapi second.
func New(f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:       f,
		primary:       provider.BlackBE,
		secondary:     provider.MCAPI,
		locateTimeout: provider.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// attempt is the classified outcome of a single provider lookup.
type attempt int

const (
	attemptOnline attempt = iota
	attemptOffline
	attemptTransport
	attemptMalformed
)

// Resolve never returns an error: every outcome is either a report or a classified failure.
//
// The primary provider is asked first. A transport failure or a "not online" answer moves on
// to the secondary provider, since one provider may misreport an edition the other handles.
// The secondary's transport failure is AllProvidersFailed and its "not online" answer is
// ServerOffline. A malformed payload ends the chain at whichever step produced it.
func (r *Resolver) Resolve(ctx context.Context, addr models.ServerAddress) models.Result {
	logger := log.Ctx(ctx).With().Str("address", addr.String()).Logger()

	for step, id := range []provider.ID{r.primary, r.secondary} {
		if ctx.Err() != nil {
			logger.Debug().Err(ctx.Err()).Msg("Resolution abandoned, caller context done")
			return failure(models.ReasonUnreachable, addr)
		}

		report, outcome := r.try(ctx, id, addr)
		last := step == 1

		switch outcome {
		case attemptOnline:
			if r.locator != nil {
				if cc := r.locate(ctx, addr.Host); cc != "" {
					report.Country = &cc
				}
			}
			logger.Debug().Str("provider", string(id)).Msg("Server online")
			return models.Result{Report: report}

		case attemptMalformed:
			return failure(models.ReasonMalformedResponse, addr)

		case attemptOffline:
			if last {
				logger.Debug().Str("provider", string(id)).Msg("Server offline")
				return failure(models.ReasonServerOffline, addr)
			}

		case attemptTransport:
			if last {
				if ctx.Err() != nil {
					return failure(models.ReasonUnreachable, addr)
				}
				return failure(models.ReasonAllProvidersFailed, addr)
			}
		}
	}

	// unreachable with a two step chain
	return failure(models.ReasonAllProvidersFailed, addr)
}

func (r *Resolver) try(ctx context.Context, id provider.ID, addr models.ServerAddress) (*models.StatusReport, attempt) {
	logger := log.Ctx(ctx).With().
		Str("provider", string(id)).
		Str("address", addr.String()).
		Logger()

	payload, err := r.fetcher.Fetch(ctx, id, addr)
	if errors.Is(err, provider.ErrMalformed) {
		logger.Warn().Err(err).Msg("Provider returned malformed payload")
		return nil, attemptMalformed
	}
	if err != nil {
		logger.Debug().Err(err).Msg("Provider lookup failed")
		return nil, attemptTransport
	}

	online, err := payload.Online()
	if err != nil {
		logger.Warn().Err(err).Msg("Provider returned malformed payload")
		return nil, attemptMalformed
	}
	if !online {
		logger.Debug().Msg("Provider reports server not online")
		return nil, attemptOffline
	}

	report, err := Normalize(payload, addr)
	if err != nil {
		logger.Warn().Err(err).Msg("Provider payload failed normalization")
		return nil, attemptMalformed
	}

	return report, attemptOnline
}

// locate runs the country lookup under its own deadline.
func (r *Resolver) locate(ctx context.Context, host string) string {
	ctx, cancel := context.WithTimeout(ctx, r.locateTimeout)
	defer cancel()

	return r.locator.CountryCode(ctx, host)
}

func failure(reason models.FailureReason, addr models.ServerAddress) models.Result {
	return models.Result{Failure: &models.ResolutionFailure{Reason: reason, Address: addr}}
}
