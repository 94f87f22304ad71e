package medcrypt

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// SecretSource supplies the raw master key secret and salt that the Keyring
// stretches into working keys.
//
// Implementations:
//   - File (default): medcrypt.FileSource - owner-only files on local disk
//   - HashiCorp Vault KV v2: providers/secrets/vault.KVSource
//   - AWS Secrets Manager: providers/secrets/aws.SecretsManagerSource
//
// Remote sources load pre-provisioned material and never auto-create it;
// only the file source generates material on first run.
type SecretSource interface {
	// LoadKeyMaterial returns the master key secret (MasterKeyLength bytes)
	// and salt (SaltLength bytes). A missing or unreadable secret is an
	// error classed under ErrSecretUnavailable or ErrKeyMaterialMissing;
	// callers must treat it as fatal. There is no ephemeral-key fallback:
	// silently generating a fresh key would make previously encrypted data
	// permanently undecryptable.
	LoadKeyMaterial(ctx context.Context) (master []byte, salt []byte, err error)

	// Describe returns a log-safe description of where material comes from.
	Describe() string
}

// FileSource loads the master key secret and salt from two local files,
// creating both with fresh random material on first run.
type FileSource struct {
	keyPath  string
	saltPath string
	logger   zerolog.Logger
}

// NewFileSource returns a file-backed SecretSource. keyPath and saltPath
// fall back to DefaultKeyFile and DefaultSaltFile when empty.
func NewFileSource(keyPath, saltPath string, logger zerolog.Logger) *FileSource {
	if keyPath == "" {
		keyPath = DefaultKeyFile
	}
	if saltPath == "" {
		saltPath = DefaultSaltFile
	}
	return &FileSource{keyPath: keyPath, saltPath: saltPath, logger: logger}
}

func (s *FileSource) Describe() string {
	return fmt.Sprintf("file (%s, %s)", s.keyPath, s.saltPath)
}

// LoadKeyMaterial loads both files verbatim, generating them on first run.
// Generated files are written with mode 0600 into a 0700 directory. Creation
// logs a one-time warning: losing the files makes every encrypted field
// permanently unreadable, so operators must back them up offline.
//
// A partially provisioned pair (key without salt, or salt without key) is a
// configuration error, never a trigger for regeneration.
func (s *FileSource) LoadKeyMaterial(ctx context.Context) ([]byte, []byte, error) {
	keyExists, err := fileExists(s.keyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: stat %s: %v", ErrSecretUnavailable, s.keyPath, err)
	}
	saltExists, err := fileExists(s.saltPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: stat %s: %v", ErrSecretUnavailable, s.saltPath, err)
	}

	if keyExists != saltExists {
		return nil, nil, fmt.Errorf("%w: key file and salt file must exist together (key=%v salt=%v)",
			ErrKeyMaterialMissing, keyExists, saltExists)
	}

	if !keyExists {
		if err := s.generate(); err != nil {
			return nil, nil, err
		}
		s.logger.Warn().
			Str("key_file", s.keyPath).
			Str("salt_file", s.saltPath).
			Msg("generated new master key material - back up both files offline NOW; losing them makes all encrypted fields permanently unreadable")
	}

	master, err := os.ReadFile(s.keyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", ErrSecretUnavailable, s.keyPath, err)
	}
	salt, err := os.ReadFile(s.saltPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", ErrSecretUnavailable, s.saltPath, err)
	}

	if len(master) < MasterKeyLength {
		return nil, nil, NewKeyMaterialInvalidError("master key", MasterKeyLength, len(master))
	}
	if len(salt) != SaltLength {
		return nil, nil, NewKeyMaterialInvalidError("salt", SaltLength, len(salt))
	}
	return master, salt, nil
}

// generate writes fresh random key material to both paths with restricted
// permissions.
func (s *FileSource) generate() error {
	master := make([]byte, MasterKeyLength)
	if _, err := io.ReadFull(rand.Reader, master); err != nil {
		return fmt.Errorf("%w: generate master key: %v", ErrSecretUnavailable, err)
	}
	salt := make([]byte, SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("%w: generate salt: %v", ErrSecretUnavailable, err)
	}

	for _, path := range []string{s.keyPath, s.saltPath} {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("%w: create key directory '%s': %v", ErrSecretUnavailable, dir, err)
		}
	}
	if err := writeRestricted(s.keyPath, master); err != nil {
		return err
	}
	if err := writeRestricted(s.saltPath, salt); err != nil {
		return err
	}
	return nil
}

func writeRestricted(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrSecretUnavailable, path, err)
	}
	// WriteFile does not tighten permissions on a pre-existing file.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("%w: chmod %s: %v", ErrSecretUnavailable, path, err)
	}
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
