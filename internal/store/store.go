// Package store persists books and ratings in a Badger database and runs the
// match/join/aggregate pipeline behind book listings.
package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfrate/shelfrate-server/internal/domain"
	"github.com/shelfrate/shelfrate-server/internal/isbn"
)

// Key prefixes for the two record types. Ratings get bespoke transactional
// code in ratings.go because of the book back-reference invariant; books go
// through the generic Entity layer.
const (
	bookPrefix   = "book:"
	ratingPrefix = "rating:"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Books is the catalog entity with a canonical-ISBN secondary index.
	Books *Entity[domain.Book]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}
	store.initBooks()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Ping verifies the database is responsive.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("health:ping"))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// initBooks initializes the Books entity on the store.
// The ISBN index is keyed on the canonical (separator-stripped) form, so a
// lookup matches regardless of how the ISBN was formatted on either side.
func (s *Store) initBooks() {
	s.Books = NewEntity[domain.Book](s, bookPrefix).
		WithIndexTransform("isbn",
			func(b *domain.Book) []string {
				canonical := isbn.Normalize(b.ISBN)
				if canonical == "" {
					// Books without an ISBN stay out of the index.
					return nil
				}
				return []string{canonical}
			},
			isbn.Normalize, // Transform lookups to the canonical form too
		)
}

// unmarshalValue decodes a raw stored value into dest.
func unmarshalValue[T any](val []byte, dest *T) error {
	return json.Unmarshal(val, dest)
}

// getLocked reads and unmarshals a record inside an open transaction.
func getLocked[T any](txn *badger.Txn, key string, dest *T) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// setLocked marshals and writes a record inside an open transaction.
func setLocked(txn *badger.Txn, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set([]byte(key), data)
}
