package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcmotd/assets"
)

// runMigrations applies embedded SQL files that are not yet recorded in schema_migrations.
func runMigrations(ctx context.Context, db *sql.DB) error {
	const migrationTableSchema = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME
	);`

	if _, err := db.ExecContext(ctx, migrationTableSchema); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	entries, err := assets.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		if err := applyMigration(ctx, db, file); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, file string) error {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM schema_migrations WHERE version = ?", file).Scan(&exists)
	if err == nil {
		return nil // applied
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check migration status: %w", err)
	}

	log.Info().Str("file", file).Msg("Applying database migration...")

	content, err := assets.ReadFile(path.Join("migrations", file))
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", file, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to exec migration %s: %w", file, err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", file, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", file, err)
	}

	return tx.Commit()
}
