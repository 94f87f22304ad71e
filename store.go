package medcrypt

import (
	"context"
	"fmt"
)

// StoredDocument pairs a document with its store-assigned identifier.
type StoredDocument struct {
	ID  string
	Doc Document
}

// Store is the document store contract this package consumes. It is the
// minimal find/update-by-equality surface needed for blind-index lookups and
// batch migration; the store's own query engine is out of scope here.
//
// Implementations:
//   - SQLite: github.com/pdsykes2512/medcrypt/store.SQLiteStore
//   - BadgerDB: github.com/pdsykes2512/medcrypt/store.BadgerStore
type Store interface {
	// Insert stores doc in collection and returns its assigned ID.
	Insert(ctx context.Context, collection string, doc Document) (string, error)

	// Get returns the document with the given ID.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Find returns documents whose top-level fields equal every entry in
	// filter. Equality only; this is the surface blind-index predicates
	// are issued against.
	Find(ctx context.Context, collection string, filter map[string]any, limit, offset int) ([]StoredDocument, error)

	// List returns documents ordered by ID, paginated. Ordering must be
	// stable so batch migration can walk a collection while updating it.
	List(ctx context.Context, collection string, limit, offset int) ([]StoredDocument, error)

	// UpdateFields sets only the given top-level fields on one document,
	// leaving the rest untouched. The update of a single document is
	// atomic.
	UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error

	// Count returns the number of documents in collection.
	Count(ctx context.Context, collection string) (int, error)

	Close() error
}

// FindByField runs an exact-match blind-index lookup: it hashes rawValue
// under the index key and queries st for documents whose "<field>_hash"
// sibling equals the digest. The matched documents are returned still
// encrypted; pass them through DecryptDocument as needed.
func (k *Keyring) FindByField(ctx context.Context, st Store, collection string, field SensitiveField, rawValue string) ([]StoredDocument, error) {
	if !IsSensitiveField(string(field)) {
		return nil, NewUnknownFieldError(string(field))
	}
	if !field.IsIndexable() {
		return nil, fmt.Errorf("%w: '%s'", ErrFieldNotIndexable, field)
	}
	return st.Find(ctx, collection, k.SearchQuery(field, rawValue), 0, 0)
}
