// Package s3snapshot uploads operational snapshots of document collections
// to Amazon S3 as NDJSON objects.
//
// Documents are exported exactly as stored: sensitive fields remain
// "ENC:"-tagged ciphertext, so a snapshot is no less protected than the
// store itself. Run snapshots only against migrated collections.
package s3snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/pdsykes2512/medcrypt"
)

// Uploader is the subset of the S3 API this package uses (allows mocking).
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SnapshotWriter streams collection snapshots to one S3 bucket.
type SnapshotWriter struct {
	client Uploader
	bucket string
	logger zerolog.Logger
}

// NewSnapshotWriter creates a writer for bucket using the default AWS
// credential chain.
func NewSnapshotWriter(ctx context.Context, bucket string, logger zerolog.Logger) (*SnapshotWriter, error) {
	if bucket == "" {
		return nil, fmt.Errorf("snapshot bucket is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SnapshotWriter{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		logger: logger,
	}, nil
}

// NewSnapshotWriterWithClient creates a writer with an explicit client,
// for tests.
func NewSnapshotWriterWithClient(client Uploader, bucket string, logger zerolog.Logger) *SnapshotWriter {
	return &SnapshotWriter{client: client, bucket: bucket, logger: logger}
}

// snapshotLine is one NDJSON record in the uploaded object.
type snapshotLine struct {
	ID  string            `json:"id"`
	Doc medcrypt.Document `json:"doc"`
}

// Snapshot streams every document in collection to s3://bucket/key as
// NDJSON and returns the number of documents written. The upload runs
// concurrently over a pipe, so the whole collection is never held in
// memory.
func (w *SnapshotWriter) Snapshot(ctx context.Context, st medcrypt.Store, collection, key string) (int, error) {
	reader, writer := io.Pipe()

	uploadDone := make(chan error, 1)
	go func() {
		_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(w.bucket),
			Key:         aws.String(key),
			Body:        reader,
			ContentType: aws.String("application/x-ndjson"),
		})
		if err != nil {
			// Unblock the writer side.
			reader.CloseWithError(err)
		} else {
			reader.Close()
		}
		uploadDone <- err
	}()

	count, writeErr := w.writeCollection(ctx, st, collection, writer)

	// Closing the writer signals EOF to the upload; do it before waiting.
	if writeErr != nil {
		writer.CloseWithError(writeErr)
	} else {
		writer.Close()
	}
	uploadErr := <-uploadDone

	if writeErr != nil {
		return count, writeErr
	}
	if uploadErr != nil {
		return count, fmt.Errorf("failed to upload snapshot to s3://%s/%s: %w", w.bucket, key, uploadErr)
	}

	w.logger.Info().
		Str("bucket", w.bucket).
		Str("key", key).
		Str("collection", collection).
		Int("documents", count).
		Msg("snapshot uploaded")
	return count, nil
}

func (w *SnapshotWriter) writeCollection(ctx context.Context, st medcrypt.Store, collection string, out io.Writer) (int, error) {
	enc := json.NewEncoder(out)
	count := 0
	const batchSize = 200
	for offset := 0; ; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		batch, err := st.List(ctx, collection, batchSize, offset)
		if err != nil {
			return count, fmt.Errorf("failed to list '%s': %w", collection, err)
		}
		for _, stored := range batch {
			if err := enc.Encode(snapshotLine{ID: stored.ID, Doc: stored.Doc}); err != nil {
				return count, fmt.Errorf("failed to encode document '%s': %w", stored.ID, err)
			}
			count++
		}
		if len(batch) < batchSize {
			return count, nil
		}
	}
}
