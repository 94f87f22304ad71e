// Command medcrypt-migrate manages field-level encryption of document
// collections: encrypting legacy plaintext in place, rolling it back,
// rebuilding blind indexes, exporting snapshots and generating key material.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdsykes2512/medcrypt"
	s3snapshot "github.com/pdsykes2512/medcrypt/providers/s3"
	"github.com/pdsykes2512/medcrypt/store"
)

func main() {
	// A missing .env is fine; explicit environment wins either way.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "medcrypt-migrate",
		Short: "Encrypt, re-index and snapshot sensitive fields in document stores",
	}
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (default: environment only)")
	rootCmd.PersistentFlags().String("db", "medcrypt.db", "Path to the SQLite database file")
	rootCmd.PersistentFlags().String("badger-dir", "", "Use a Badger store at this directory instead of SQLite")
	rootCmd.PersistentFlags().Bool("pretty", false, "Human-readable console log output")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(rollbackCmd())
	rootCmd.AddCommand(rehashCmd())
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(keygenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <collection> <field>",
		Short: "Encrypt a plaintext field across a collection and write its blind index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, _ := cmd.Flags().GetInt("batch-size")
			return withMigrator(cmd, func(ctx context.Context, m *medcrypt.Migrator) error {
				summary, err := m.MigrateToEncrypted(ctx, args[0], args[1], batch)
				if summary != nil {
					fmt.Println(summary)
				}
				return err
			})
		},
	}
	cmd.Flags().Int("batch-size", medcrypt.DefaultMigrationBatchSize, "Documents per batch")
	return cmd
}

func rollbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback <collection> <field>",
		Short: "Decrypt an encrypted field back to plaintext (security downgrade)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			confirmed, _ := cmd.Flags().GetBool("yes")
			if !confirmed {
				return fmt.Errorf("rollback writes plaintext back to the store; re-run with --yes to confirm")
			}
			batch, _ := cmd.Flags().GetInt("batch-size")
			return withMigrator(cmd, func(ctx context.Context, m *medcrypt.Migrator) error {
				summary, err := m.MigrateFromEncrypted(ctx, args[0], args[1], batch)
				if summary != nil {
					fmt.Println(summary)
				}
				return err
			})
		},
	}
	cmd.Flags().Int("batch-size", medcrypt.DefaultMigrationBatchSize, "Documents per batch")
	cmd.Flags().Bool("yes", false, "Confirm writing plaintext back to the store")
	return cmd
}

func rehashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rehash <collection> <field>",
		Short: "Rebuild the blind index for a field without touching ciphertext",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, _ := cmd.Flags().GetInt("batch-size")
			return withMigrator(cmd, func(ctx context.Context, m *medcrypt.Migrator) error {
				summary, err := m.RehashField(ctx, args[0], args[1], batch)
				if summary != nil {
					fmt.Println(summary)
				}
				return err
			})
		},
	}
	cmd.Flags().Int("batch-size", medcrypt.DefaultMigrationBatchSize, "Documents per batch")
	return cmd
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot <collection>",
		Short: "Upload an NDJSON snapshot of a collection to S3 (documents stay encrypted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, _ := cmd.Flags().GetString("bucket")
			key, _ := cmd.Flags().GetString("key")
			if bucket == "" {
				return fmt.Errorf("--bucket is required")
			}
			if key == "" {
				key = fmt.Sprintf("snapshots/%s/%s.ndjson", args[0], time.Now().UTC().Format("20060102T150405Z"))
			}

			logger := newLogger(cmd)
			ctx, cancel := signalContext()
			defer cancel()

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			writer, err := s3snapshot.NewSnapshotWriter(ctx, bucket, logger)
			if err != nil {
				return err
			}
			count, err := writer.Snapshot(ctx, st, args[0], key)
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded %d document(s) to s3://%s/%s\n", count, bucket, key)
			return nil
		},
	}
	cmd.Flags().String("bucket", "", "Destination S3 bucket")
	cmd.Flags().String("key", "", "Object key (default: snapshots/<collection>/<timestamp>.ndjson)")
	return cmd
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a fresh master key and salt, printed hex-encoded",
		RunE: func(cmd *cobra.Command, args []string) error {
			keyHex, err := medcrypt.GenerateMasterKeyHex()
			if err != nil {
				return err
			}
			salt, err := medcrypt.GenerateSalt()
			if err != nil {
				return err
			}
			fmt.Printf("master_key: %s\n", keyHex)
			fmt.Printf("salt: %x\n", salt)
			fmt.Println()
			fmt.Println("Store both values in your secret manager. Losing the master key makes")
			fmt.Println("all encrypted data permanently unreadable.")
			return nil
		},
	}
}

// withMigrator assembles logger, config, key material, store and migrator,
// runs fn and tears everything down.
func withMigrator(cmd *cobra.Command, fn func(context.Context, *medcrypt.Migrator) error) error {
	logger := newLogger(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.ExtraRedactionKeys) > 0 {
		medcrypt.RegisterRedactionAliases(cfg.ExtraRedactionKeys...)
	}
	source, err := secretSource(cfg, logger)
	if err != nil {
		return err
	}
	keyring, err := medcrypt.NewKeyring(ctx, source, medcrypt.WithLogger(logger))
	if err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	migrator := medcrypt.NewMigrator(keyring, st, logger)
	return fn(ctx, migrator)
}

func newLogger(cmd *cobra.Command) zerolog.Logger {
	pretty, _ := cmd.Flags().GetBool("pretty")
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func loadConfig(cmd *cobra.Command) (*medcrypt.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return medcrypt.LoadConfig(path)
	}
	return medcrypt.ConfigFromEnv()
}

func secretSource(cfg *medcrypt.Config, logger zerolog.Logger) (medcrypt.SecretSource, error) {
	switch cfg.SecretSource {
	case medcrypt.SourceFile:
		return medcrypt.NewFileSource(cfg.KeyFile, cfg.SaltFile, logger), nil
	case medcrypt.SourceVault:
		return newVaultSource(cfg)
	case medcrypt.SourceAWS:
		return newAWSSource(cfg)
	default:
		return nil, fmt.Errorf("unsupported secret source '%s'", cfg.SecretSource)
	}
}

func openStore(cmd *cobra.Command) (medcrypt.Store, error) {
	badgerDir, _ := cmd.Flags().GetString("badger-dir")
	if badgerDir != "" {
		return store.NewBadgerStore(store.BadgerOptions{DataDir: badgerDir})
	}
	dbPath, _ := cmd.Flags().GetString("db")
	return store.NewSQLiteStore(dbPath)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
