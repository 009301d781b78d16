// Package boltstore provides a BoltDB-backed blob store for single-file
// embedded deployments.
package boltstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/aidekit/aide/internal/storage"
)

const (
	documentBucket  = "documents"
	publishedBucket = "published"
)

// Store persists documents in a BoltDB file.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}
	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{documentBucket, publishedBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("ensure bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		stored := tx.Bucket([]byte(documentBucket)).Get([]byte(id))
		if stored == nil {
			return storage.ErrNotFound
		}
		data = append([]byte(nil), stored...)
		return nil
	})
	return data, err
}

// Put implements storage.Store.
func (s *Store) Put(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(documentBucket)).Put([]byte(id), data)
	})
}

// PutPublished implements storage.Store.
func (s *Store) PutPublished(ctx context.Context, slug string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(publishedBucket)).Put([]byte(slug), data)
	})
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(documentBucket)).Delete([]byte(id))
	})
}

// GetPublished returns a published copy by slug.
func (s *Store) GetPublished(ctx context.Context, slug string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		stored := tx.Bucket([]byte(publishedBucket)).Get([]byte(slug))
		if stored == nil {
			return storage.ErrNotFound
		}
		data = append([]byte(nil), stored...)
		return nil
	})
	return data, err
}
