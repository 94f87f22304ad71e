package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/pdsykes2512/medcrypt"
)

// BadgerStore stores documents in an embedded BadgerDB instance. Keys are
// "collection<0x00>id" and values are the JSON document, so iteration in
// Badger's native key order gives the stable per-collection ID ordering the
// migration runner relies on.
//
// Equality filters are evaluated client-side during the prefix scan; there
// is no secondary index. For collections large enough to make that matter,
// use SQLiteStore.
type BadgerStore struct {
	db *badger.DB
}

// BadgerOptions configures the Badger-backed store.
type BadgerOptions struct {
	// DataDir is the directory for data files. Ignored when InMemory is set.
	DataDir string

	// InMemory runs BadgerDB without persistence. Useful for tests.
	InMemory bool
}

// NewBadgerStore opens an embedded BadgerDB document store.
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(opts.DataDir)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func documentKey(collection, id string) []byte {
	key := make([]byte, 0, len(collection)+1+len(id))
	key = append(key, collection...)
	key = append(key, 0x00)
	key = append(key, id...)
	return key
}

func collectionPrefix(collection string) []byte {
	prefix := make([]byte, 0, len(collection)+1)
	prefix = append(prefix, collection...)
	prefix = append(prefix, 0x00)
	return prefix
}

func (s *BadgerStore) Insert(ctx context.Context, collection string, doc medcrypt.Document) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey(collection, id), raw)
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}
	return id, nil
}

func (s *BadgerStore) Get(ctx context.Context, collection, id string) (medcrypt.Document, error) {
	var doc medcrypt.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey(collection, id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("document '%s' not found in '%s'", id, collection)
		}
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			return json.Unmarshal(raw, &doc)
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *BadgerStore) Find(ctx context.Context, collection string, filter map[string]any, limit, offset int) ([]medcrypt.StoredDocument, error) {
	return s.scan(ctx, collection, limit, offset, func(doc medcrypt.Document) bool {
		for key, want := range filter {
			if doc[key] != want {
				return false
			}
		}
		return true
	})
}

func (s *BadgerStore) List(ctx context.Context, collection string, limit, offset int) ([]medcrypt.StoredDocument, error) {
	return s.scan(ctx, collection, limit, offset, func(medcrypt.Document) bool { return true })
}

// scan walks the collection prefix in key order, applying match and the
// limit/offset window.
func (s *BadgerStore) scan(ctx context.Context, collection string, limit, offset int, match func(medcrypt.Document) bool) ([]medcrypt.StoredDocument, error) {
	prefix := collectionPrefix(collection)
	var out []medcrypt.StoredDocument

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		skipped := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var doc medcrypt.Document
			err := item.Value(func(raw []byte) error {
				return json.Unmarshal(raw, &doc)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal document: %w", err)
			}
			if !match(doc) {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			id := string(item.Key()[len(prefix):])
			out = append(out, medcrypt.StoredDocument{ID: id, Doc: doc})
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := documentKey(collection, id)
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("document '%s' not found in '%s'", id, collection)
		}
		if err != nil {
			return err
		}

		var doc medcrypt.Document
		if err := item.Value(func(raw []byte) error {
			return json.Unmarshal(raw, &doc)
		}); err != nil {
			return fmt.Errorf("failed to unmarshal document: %w", err)
		}

		for k, v := range fields {
			doc[k] = v
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		return txn.Set(key, raw)
	})
}

func (s *BadgerStore) Count(ctx context.Context, collection string) (int, error) {
	prefix := collectionPrefix(collection)
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
