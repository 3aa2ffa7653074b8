package buildcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apiarycd/gitstate/pkg/badgerfx"
	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type Repository struct {
	db      *badger.DB
	entries *badgerfx.Repository[*entryModel]
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db:      db,
		entries: badgerfx.NewRepository(func() *entryModel { return new(entryModel) }),
	}
}

// Get retrieves the entry stored under key in ns.
func (r *Repository) Get(_ context.Context, ns Namespace, key string) (*Entry, error) {
	var entry *Entry

	err := r.db.View(func(txn *badger.Txn) error {
		model, err := r.entries.Read(txn, entryKey(ns, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		if err != nil {
			return err
		}

		entry = newEntry(model)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	return entry, nil
}

// Put stores value under key in ns, replacing any previous entry.
func (r *Repository) Put(_ context.Context, ns Namespace, key string, value []byte, ttl time.Duration) (*Entry, error) {
	model := newEntryModel(ns, key, value)

	err := r.db.Update(func(txn *badger.Txn) error {
		return r.entries.Write(txn, model, ttl)
	})

	if err != nil {
		return nil, fmt.Errorf("failed to store cache entry: %w", err)
	}

	return newEntry(model), nil
}

// List retrieves every entry of repository across flags and revisions.
func (r *Repository) List(_ context.Context, repository string) ([]Entry, error) {
	var entries []Entry

	err := r.db.View(func(txn *badger.Txn) error {
		models, err := r.entries.List(txn, repositoryPrefix(repository), badger.DefaultIteratorOptions)
		if err != nil {
			return err
		}

		entries = lo.Map(models, func(m *entryModel, _ int) Entry { return *newEntry(m) })
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}

	return entries, nil
}

// Purge deletes every entry of repository and returns how many were removed.
func (r *Repository) Purge(_ context.Context, repository string) (int, error) {
	var removed int

	err := r.db.Update(func(txn *badger.Txn) error {
		models, err := r.entries.List(txn, repositoryPrefix(repository), badger.IteratorOptions{})
		if err != nil {
			return err
		}

		for _, m := range models {
			if delErr := r.entries.Delete(txn, m.StorageKey()); delErr != nil {
				return delErr
			}
		}

		removed = len(models)
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}

	return removed, nil
}
