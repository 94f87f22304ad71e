// Package store provides document store implementations for medcrypt:
// a SQLite-backed store using the JSON1 extension and an embedded
// BadgerDB-backed store. Both satisfy medcrypt.Store, the minimal
// find/update-by-equality surface needed for blind-index lookups and batch
// migration.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdsykes2512/medcrypt"
)

// SQLiteStore stores documents as JSON rows in a single SQLite table keyed
// by (collection, id). Equality filters are evaluated with json_extract, so
// blind-index predicates like {"nhs_number_hash": "..."} run inside the
// database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at '%s': %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database connection test failed for '%s': %w", path, err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			doc TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		);

		CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database schema in '%s': %w", path, err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, collection string, doc medcrypt.Document) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)`,
		collection, id, string(raw))
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (medcrypt.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("document '%s' not found in '%s'", id, collection)
		}
		return nil, err
	}
	return unmarshalDocument(raw)
}

// Find matches documents whose top-level fields equal every filter entry.
// Filter keys must be plain field names; they are interpolated into JSON
// paths, so anything else is rejected.
func (s *SQLiteStore) Find(ctx context.Context, collection string, filter map[string]any, limit, offset int) ([]medcrypt.StoredDocument, error) {
	query := `SELECT id, doc FROM documents WHERE collection = ?`
	args := []any{collection}

	for key, value := range filter {
		if !isValidFieldName(key) {
			return nil, fmt.Errorf("invalid filter field name '%s'", key)
		}
		query += fmt.Sprintf(` AND json_extract(doc, '$.%s') = ?`, key)
		args = append(args, value)
	}
	query += ` ORDER BY id`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	return s.queryDocuments(ctx, query, args...)
}

func (s *SQLiteStore) List(ctx context.Context, collection string, limit, offset int) ([]medcrypt.StoredDocument, error) {
	query := `SELECT id, doc FROM documents WHERE collection = ? ORDER BY id`
	args := []any{collection}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	return s.queryDocuments(ctx, query, args...)
}

// UpdateFields sets only the given top-level fields on one document. The
// read-modify-write runs in a transaction, so the update is atomic.
func (s *SQLiteStore) UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("document '%s' not found in '%s'", id, collection)
		}
		return err
	}

	doc, err := unmarshalDocument(raw)
	if err != nil {
		return err
	}
	for key, value := range fields {
		doc[key] = value
	}

	updated, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET doc = ? WHERE collection = ? AND id = ?`,
		string(updated), collection, id); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Count(ctx context.Context, collection string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) queryDocuments(ctx context.Context, query string, args ...any) ([]medcrypt.StoredDocument, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []medcrypt.StoredDocument
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		doc, err := unmarshalDocument(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, medcrypt.StoredDocument{ID: id, Doc: doc})
	}
	return out, rows.Err()
}

func unmarshalDocument(raw string) (medcrypt.Document, error) {
	var doc medcrypt.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// isValidFieldName reports whether s is safe to interpolate into a JSON
// path: a letter or underscore followed by alphanumerics/underscores.
func isValidFieldName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
