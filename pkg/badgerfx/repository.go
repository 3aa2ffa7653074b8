package badgerfx

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type EntityFactory[T Entity] func() T

// Repository reads and writes entities inside caller-managed transactions.
type Repository[T Entity] struct {
	zero    T
	factory EntityFactory[T]
}

func NewRepository[T Entity](factory EntityFactory[T]) *Repository[T] {
	var zero T
	return &Repository[T]{
		zero:    zero,
		factory: factory,
	}
}

func (r *Repository[T]) List(txn *badger.Txn, prefix string, options badger.IteratorOptions) ([]T, error) {
	validPrefix := []byte(prefix)
	seekPrefix := []byte(prefix)
	if options.Reverse {
		seekPrefix = append(seekPrefix, SeekEnd)
	}

	it := txn.NewIterator(options)
	defer it.Close()

	var entities []T
	for it.Seek(seekPrefix); it.ValidForPrefix(validPrefix); it.Next() {
		item := it.Item()

		entity := r.factory()
		if err := item.Value(func(val []byte) error {
			return entity.UnmarshalStorage(val)
		}); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
		}

		entities = append(entities, entity)
	}

	return entities, nil
}

func (r *Repository[T]) Read(txn *badger.Txn, key string) (T, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return r.zero, fmt.Errorf("failed to get entity: %w", err)
	}

	entity := r.factory()
	if valErr := item.Value(func(val []byte) error {
		return entity.UnmarshalStorage(val)
	}); valErr != nil {
		return r.zero, fmt.Errorf("failed to unmarshal entity: %w", valErr)
	}

	return entity, nil
}

// Write stores entity under its key. A positive ttl expires it.
func (r *Repository[T]) Write(txn *badger.Txn, entity T, ttl time.Duration) error {
	data, err := entity.MarshalStorage()
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	entry := badger.NewEntry([]byte(entity.StorageKey()), data)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}

	if setErr := txn.SetEntry(entry); setErr != nil {
		return fmt.Errorf("failed to update entity: %w", setErr)
	}

	return nil
}

func (r *Repository[T]) Delete(txn *badger.Txn, key string) error {
	if delErr := txn.Delete([]byte(key)); delErr != nil {
		return fmt.Errorf("failed to delete entity: %w", delErr)
	}

	return nil
}
