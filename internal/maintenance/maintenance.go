// Package maintenance provide one-shot tasks to check, clean and fill the binding database
package maintenance

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcmotd/internal/address"
	"github.com/woozymasta/mcmotd/internal/config"
	"github.com/woozymasta/mcmotd/internal/models"
	"gopkg.in/yaml.v3"
)

const workers = 10

// Store is the part of the binding repository the tasks need.
type Store interface {
	ListBindings(ctx context.Context) ([]models.GroupBinding, error)
	PutBinding(ctx context.Context, b models.GroupBinding) error
	DeleteBinding(ctx context.Context, groupID string) (bool, error)
}

// Resolver resolves a bound address during checks.
type Resolver interface {
	Resolve(ctx context.Context, addr models.ServerAddress) models.Result
}

// ImportEntry is one item of a binding import file.
type ImportEntry struct {
	Group  string `yaml:"group"`
	Server string `yaml:"server"`
}

// Run checks if any maintenance flags are set and executes the corresponding task.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(ctx context.Context, cfg *config.Config, store Store, resolver Resolver) bool {
	switch {
	case cfg.Storage.Import != "":
		log.Info().Str("file", cfg.Storage.Import).Msg("Importing group bindings...")
		imported, skipped, err := ImportFile(ctx, store, cfg.Storage.Import)
		if err != nil {
			log.Error().Err(err).Msg("Import failed")
		} else {
			log.Info().Int("imported", imported).Int("skipped", skipped).Msg("Import finished")
		}

	case cfg.Storage.PruneInvalid:
		log.Info().Msg("Pruning invalid bindings...")
		count, err := PruneInvalid(ctx, store)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune bindings")
		} else {
			log.Info().Int("deleted", count).Msg("Prune finished")
		}

	case cfg.Storage.PruneOffline, cfg.Storage.Check:
		prune := cfg.Storage.PruneOffline
		log.Info().Bool("prune_offline", prune).Msgf("Starting check task with %d workers...", workers)
		stats, err := Check(ctx, store, resolver, prune)
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch bindings")
		} else {
			log.Info().
				Int("online", stats.Online).
				Int("failed", stats.Failed).
				Int("deleted", stats.Deleted).
				Msg("Maintenance task completed")
		}

	default:
		return false
	}

	return true
}

// CheckStats summarizes a Check run.
type CheckStats struct {
	Online  int
	Failed  int
	Deleted int
}

// Check resolves every bound server and logs the outcome. With prune set, bindings whose
// server is reported offline are deleted; other failures keep the binding.
func Check(ctx context.Context, store Store, resolver Resolver, prune bool) (CheckStats, error) {
	var stats CheckStats

	bindings, err := store.ListBindings(ctx)
	if err != nil {
		return stats, err
	}
	if len(bindings) == 0 {
		log.Info().Msg("No bindings found for maintenance")
		return stats, nil
	}

	jobs := make(chan models.GroupBinding, len(bindings))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				online, deleted := checkBinding(ctx, b, store, resolver, prune)

				mu.Lock()
				if online {
					stats.Online++
				} else {
					stats.Failed++
				}
				if deleted {
					stats.Deleted++
				}
				mu.Unlock()
			}
		}()
	}

	for _, b := range bindings {
		jobs <- b
	}
	close(jobs)

	wg.Wait()

	return stats, nil
}

func checkBinding(ctx context.Context, b models.GroupBinding, store Store, resolver Resolver, prune bool) (online, deleted bool) {
	logCtx := log.With().
		Str("group", b.GroupID).
		Str("address", b.Address.String()).
		Logger()

	res := resolver.Resolve(ctx, b.Address)
	if res.OK() {
		logCtx.Info().Str("provider", res.Report.Provider).Msg("Server online")
		return true, false
	}

	reason := models.ReasonAllProvidersFailed
	if res.Failure != nil {
		reason = res.Failure.Reason
	}
	logCtx.Warn().Str("reason", string(reason)).Msg("Server check failed")

	if !prune || reason != models.ReasonServerOffline {
		return false, false
	}

	ok, err := store.DeleteBinding(ctx, b.GroupID)
	if err != nil {
		logCtx.Error().Err(err).Msg("Failed to delete offline binding")
		return false, false
	}
	if ok {
		logCtx.Debug().Msg("Offline binding deleted")
	}

	return false, ok
}

// PruneInvalid deletes bindings whose stored address no longer passes address validation.
func PruneInvalid(ctx context.Context, store Store) (int, error) {
	bindings, err := store.ListBindings(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	for _, b := range bindings {
		if err := address.Validate(b.Address); err == nil {
			continue
		}

		ok, err := store.DeleteBinding(ctx, b.GroupID)
		if err != nil {
			return count, fmt.Errorf("delete binding %q: %w", b.GroupID, err)
		}
		if ok {
			log.Debug().Str("group", b.GroupID).Str("address", b.Address.String()).Msg("Invalid binding deleted")
			count++
		}
	}

	return count, nil
}

// ImportFile reads a YAML list of ImportEntry from path and upserts every valid entry.
func ImportFile(ctx context.Context, store Store, path string) (imported, skipped int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read import file: %w", err)
	}

	var entries []ImportEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return 0, 0, fmt.Errorf("parse import file: %w", err)
	}

	return Import(ctx, store, entries)
}

// Import upserts entries; entries without a group or with an invalid server are logged and skipped.
func Import(ctx context.Context, store Store, entries []ImportEntry) (imported, skipped int, err error) {
	now := time.Now().UTC()

	for i, e := range entries {
		logCtx := log.With().Int("entry", i).Str("group", e.Group).Str("server", e.Server).Logger()

		if e.Group == "" {
			logCtx.Warn().Msg("Entry without group, skipping")
			skipped++
			continue
		}

		addr, perr := address.Parse(e.Server)
		if perr != nil {
			logCtx.Warn().Err(perr).Msg("Entry with invalid server, skipping")
			skipped++
			continue
		}

		if err := store.PutBinding(ctx, models.GroupBinding{GroupID: e.Group, Address: addr, UpdatedAt: now}); err != nil {
			return imported, skipped, fmt.Errorf("save binding %q: %w", e.Group, err)
		}
		imported++
	}

	return imported, skipped, nil
}
