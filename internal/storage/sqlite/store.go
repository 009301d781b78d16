// Package sqlite provides a SQLite-backed blob store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidekit/aide/internal/storage"
	"github.com/aidekit/aide/internal/storage/sqlite/migrations"
)

// Store persists documents in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) a store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}
	if err := applyMigrations(db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return body, nil
}

// Put implements storage.Store.
func (s *Store) Put(ctx context.Context, id string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		id, data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put document %s: %w", id, err)
	}
	return nil
}

// PutPublished implements storage.Store.
func (s *Store) PutPublished(ctx context.Context, slug string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO published (slug, body, published_at) VALUES (?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET body = excluded.body, published_at = excluded.published_at`,
		slug, data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", slug, err)
	}
	return nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// GetPublished returns a published copy by slug.
func (s *Store) GetPublished(ctx context.Context, slug string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, "SELECT body FROM published WHERE slug = ?", slug).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get published %s: %w", slug, err)
	}
	return body, nil
}
