package medcrypt

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMigrationBatchSize is used when no batch size is configured.
const DefaultMigrationBatchSize = 100

// Migrator batch-converts an existing collection field between plaintext and
// encrypted representations. It is designed for single-writer out-of-band
// execution; concurrent runs over the same field are correct (already-tagged
// documents are skipped) but wasteful.
type Migrator struct {
	keyring *Keyring
	store   Store
	logger  zerolog.Logger
}

// NewMigrator returns a Migrator operating on st with k's keys.
func NewMigrator(k *Keyring, st Store, logger zerolog.Logger) *Migrator {
	return &Migrator{keyring: k, store: st, logger: logger}
}

// MigrationSummary reports the outcome of one migration pass.
type MigrationSummary struct {
	Collection string
	Field      string
	// Scanned is the total number of documents examined.
	Scanned int
	// Migrated is the number of documents whose field was rewritten.
	Migrated int
	// AlreadyDone is the number of documents skipped because the field was
	// already in the target representation. On a re-run, Migrated from the
	// first pass shows up here: AlreadyDone + Migrated sums to the number
	// of documents carrying the field.
	AlreadyDone int
	// Missing is the number of documents without the field.
	Missing int
	// Failed is the number of documents whose conversion errored. Failures
	// are logged (pseudonymized) and counted, never fatal to the batch.
	Failed int
}

func (s *MigrationSummary) String() string {
	return fmt.Sprintf("%s.%s: scanned=%d migrated=%d already_done=%d missing=%d failed=%d",
		s.Collection, s.Field, s.Scanned, s.Migrated, s.AlreadyDone, s.Missing, s.Failed)
}

// MigrateToEncrypted encrypts one registered field across every document in
// collection, in batches of batchSize. For each document carrying the field
// as untagged plaintext it writes the ciphertext token, the "<field>_hash"
// search hash for indexable fields, and an updated_at timestamp - nothing
// else. Re-running is idempotent: tagged documents are skipped.
//
// Cancellation is cooperative: ctx is checked between batches. Each
// per-document update is a single atomic field-set, so interruption never
// leaves partial per-document state.
func (m *Migrator) MigrateToEncrypted(ctx context.Context, collection, fieldName string, batchSize int) (*MigrationSummary, error) {
	field, ok := ParseSensitiveField(fieldName)
	if !ok {
		return nil, NewUnknownFieldError(fieldName)
	}

	return m.run(ctx, collection, fieldName, batchSize, func(id string, doc Document) (map[string]any, error) {
		value, present := doc[fieldName]
		if !present || value == nil {
			return nil, errSkipMissing
		}
		if IsEncrypted(value) {
			return nil, errSkipDone
		}
		plaintext, err := coerceString(value)
		if err != nil {
			return nil, NewEncryptionError(fieldName, err)
		}
		if plaintext == "" {
			return nil, errSkipMissing
		}

		token, err := m.keyring.seal(plaintext)
		if err != nil {
			return nil, NewEncryptionError(fieldName, err)
		}
		fields := map[string]any{
			fieldName:    token,
			"updated_at": time.Now().UTC().Format(time.RFC3339),
		}
		if field.IsIndexable() {
			fields[field.HashField()] = m.keyring.SearchHash(field, plaintext)
		}
		return fields, nil
	})
}

// MigrateFromEncrypted is the symmetric rollback: it selects tagged
// documents and rewrites the field as plaintext. Downgrading a collection to
// plaintext is a deliberate security regression, so the pass logs a warning
// before it starts. The stale "<field>_hash" sibling is left in place; it is
// a keyed one-way digest and reveals nothing on its own.
func (m *Migrator) MigrateFromEncrypted(ctx context.Context, collection, fieldName string, batchSize int) (*MigrationSummary, error) {
	if !IsSensitiveField(fieldName) {
		return nil, NewUnknownFieldError(fieldName)
	}

	m.logger.Warn().
		Str("collection", collection).
		Str("field", fieldName).
		Msg("SECURITY DOWNGRADE: rewriting encrypted field as plaintext")

	return m.run(ctx, collection, fieldName, batchSize, func(id string, doc Document) (map[string]any, error) {
		value, present := doc[fieldName]
		if !present || value == nil {
			return nil, errSkipMissing
		}
		if !IsEncrypted(value) {
			return nil, errSkipDone
		}
		plaintext, err := m.keyring.open(value.(string))
		if err != nil {
			return nil, NewDecryptionError(fieldName, err)
		}
		return map[string]any{
			fieldName:    plaintext,
			"updated_at": time.Now().UTC().Format(time.RFC3339),
		}, nil
	})
}

// RehashField decrypts each tagged value of one indexable field, recomputes
// its search hash under the current normalization rules, and updates only
// the hash sibling; ciphertext is left untouched. Documents whose stored
// hash already matches are skipped, so re-running writes nothing.
func (m *Migrator) RehashField(ctx context.Context, collection, fieldName string, batchSize int) (*MigrationSummary, error) {
	field, ok := ParseSensitiveField(fieldName)
	if !ok {
		return nil, NewUnknownFieldError(fieldName)
	}
	if !field.IsIndexable() {
		return nil, fmt.Errorf("%w: '%s'", ErrFieldNotIndexable, fieldName)
	}

	return m.run(ctx, collection, fieldName, batchSize, func(id string, doc Document) (map[string]any, error) {
		value, present := doc[fieldName]
		if !present || !IsEncrypted(value) {
			return nil, errSkipMissing
		}
		plaintext, err := m.keyring.open(value.(string))
		if err != nil {
			return nil, NewDecryptionError(fieldName, err)
		}
		digest := m.keyring.SearchHash(field, plaintext)
		if stored, ok := doc[field.HashField()].(string); ok && stored == digest {
			return nil, errSkipDone
		}
		return map[string]any{
			field.HashField(): digest,
			"updated_at":      time.Now().UTC().Format(time.RFC3339),
		}, nil
	})
}

// Sentinel skip outcomes for convert funcs. Not exported: they classify
// documents inside a pass, they are not errors callers see.
var (
	errSkipMissing = fmt.Errorf("skip: field missing")
	errSkipDone    = fmt.Errorf("skip: already in target representation")
)

// run walks the collection in stable ID order, applying convert to each
// document and writing whatever field updates it returns. convert reports
// errSkipMissing / errSkipDone for documents needing no write; any other
// error is counted as a per-document failure and logged pseudonymized.
func (m *Migrator) run(ctx context.Context, collection, fieldName string, batchSize int, convert func(id string, doc Document) (map[string]any, error)) (*MigrationSummary, error) {
	if batchSize <= 0 {
		batchSize = DefaultMigrationBatchSize
	}

	summary := &MigrationSummary{Collection: collection, Field: fieldName}
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		batch, err := m.store.List(ctx, collection, batchSize, offset)
		if err != nil {
			return summary, fmt.Errorf("%w: list %s: %v", ErrStoreUnavailable, collection, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, stored := range batch {
			summary.Scanned++
			fields, err := convert(stored.ID, stored.Doc)
			switch {
			case err == errSkipMissing:
				summary.Missing++
				continue
			case err == errSkipDone:
				summary.AlreadyDone++
				continue
			case err != nil:
				summary.Failed++
				m.logger.Error().
					Err(err).
					Str("collection", collection).
					Str("document_id", stored.ID).
					Interface("document", PseudonymizeForLogging(stored.Doc)).
					Msg("migration failed for document")
				continue
			}

			if err := m.store.UpdateFields(ctx, collection, stored.ID, fields); err != nil {
				summary.Failed++
				m.logger.Error().
					Err(err).
					Str("collection", collection).
					Str("document_id", stored.ID).
					Msg("migration update failed for document")
				continue
			}
			summary.Migrated++
		}

		m.logger.Info().
			Str("collection", collection).
			Str("field", fieldName).
			Int("scanned", summary.Scanned).
			Int("migrated", summary.Migrated).
			Msg("migration batch complete")

		if len(batch) < batchSize {
			break
		}
		offset += batchSize
	}

	m.logger.Info().
		Str("summary", summary.String()).
		Msg("migration finished")
	return summary, nil
}
