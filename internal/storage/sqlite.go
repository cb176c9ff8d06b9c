// Package storage persists group server bindings in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/woozymasta/mcmotd/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// PutBinding inserts a binding or moves an existing group to a new address.
// CreatedAt is kept from the first insert.
func (r *Repository) PutBinding(ctx context.Context, b models.GroupBinding) error {
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}

	query := `
	INSERT INTO group_bindings (group_id, host, port, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(group_id) DO UPDATE SET
		host       = excluded.host,
		port       = excluded.port,
		updated_at = excluded.updated_at;
	`

	_, err := r.db.ExecContext(ctx, query, b.GroupID, b.Address.Host, b.Address.Port, b.CreatedAt, b.UpdatedAt)
	return err
}

// GetBinding returns the binding for groupID, or nil when the group has none.
func (r *Repository) GetBinding(ctx context.Context, groupID string) (*models.GroupBinding, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT group_id, host, port, created_at, updated_at
		FROM group_bindings
		WHERE group_id = ?
	`, groupID)

	var b models.GroupBinding
	err := row.Scan(&b.GroupID, &b.Address.Host, &b.Address.Port, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// DeleteBinding removes the binding for groupID and reports whether one existed.
func (r *Repository) DeleteBinding(ctx context.Context, groupID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_bindings WHERE group_id = ?`, groupID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// ListBindings returns all bindings, most recently updated first.
func (r *Repository) ListBindings(ctx context.Context) ([]models.GroupBinding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT group_id, host, port, created_at, updated_at
		FROM group_bindings
		ORDER BY updated_at DESC, group_id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var bindings []models.GroupBinding
	for rows.Next() {
		var b models.GroupBinding
		if err := rows.Scan(&b.GroupID, &b.Address.Host, &b.Address.Port, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}
