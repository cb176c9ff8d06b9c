// main is the entry point of the mcmotd application.
// It initializes the configuration, logger, status providers, database, GeoIP locator, and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcmotd/internal/address"
	"github.com/woozymasta/mcmotd/internal/config"
	"github.com/woozymasta/mcmotd/internal/fake"
	"github.com/woozymasta/mcmotd/internal/geoip"
	"github.com/woozymasta/mcmotd/internal/logger"
	"github.com/woozymasta/mcmotd/internal/maintenance"
	"github.com/woozymasta/mcmotd/internal/provider"
	"github.com/woozymasta/mcmotd/internal/report"
	"github.com/woozymasta/mcmotd/internal/resolver"
	"github.com/woozymasta/mcmotd/internal/server"
	"github.com/woozymasta/mcmotd/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Parse()

	logCloser := logger.Setup(cfg.Logger)
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Status resolver
	opts := []resolver.Option{resolver.WithLocateTimeout(cfg.Provider.Timeout)}
	if cfg.GeoIP.Enable {
		if geoProvider := openGeoIP(ctx, cfg.GeoIP); geoProvider != nil {
			defer func() {
				if err := geoProvider.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing GeoIP provider")
				}
			}()
			opts = append(opts, resolver.WithLocator(geoProvider))
		}
	}
	statusResolver := resolver.New(provider.New(cfg.Provider), opts...)

	// One-shot query
	if cfg.Query != "" {
		return query(ctx, statusResolver, cfg)
	}

	log.Info().Msg("Starting mcmotd service...")

	// Database
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// data generation or database maintenance
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateBindings(ctx, store, cfg.Storage.GenerateCount)
		return 0
	} else if maintenance.Run(ctx, cfg, store, statusResolver) {
		return 0
	}

	// Init server
	srvHandler := server.New(statusResolver, store, cfg)

	httpServer := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     srvHandler.Run(),
		ReadTimeout: 5 * time.Second,
		// Two provider lookups may run back to back
		WriteTimeout: 2*cfg.Provider.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Graceful Shutdown
	code := 0
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		log.Error().Err(err).Msg("Server failed")
		code = 1
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop rate limiter housekeeping
	srvHandler.Stop()

	log.Info().Msg("Server exited")

	return code
}

// query resolves cfg.Query, prints the rendered report to stdout and returns the exit code.
func query(ctx context.Context, r *resolver.Resolver, cfg *config.Config) int {
	lang := report.ParseLang(cfg.Report.Lang, report.DefaultLang)

	addr, err := address.Parse(cfg.Query)
	if err != nil {
		log.Debug().Err(err).Msg("Invalid address")
		fmt.Fprintln(os.Stderr, report.RenderInvalidAddress(lang))
		return 1
	}

	res := r.Resolve(ctx, addr)
	fmt.Println(report.Render(res, lang))

	return 0
}

// openGeoIP refreshes and opens the MMDB file, returning nil when country lookup is unavailable.
func openGeoIP(ctx context.Context, cfg config.GeoIP) *geoip.Provider {
	log.Info().Msg("Checking GeoIP database...")
	if err := geoip.EnsureDB(ctx, cfg.Path, cfg.URL, cfg.Interval); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
	}

	geoProvider, err := geoip.Open(cfg.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		return nil
	}

	return geoProvider
}
