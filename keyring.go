package medcrypt

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// Keyring holds the derived working keys and the AEAD cipher handle for the
// process lifetime. It is constructed exactly once at startup and injected
// into every call site; it carries no mutable state after construction and
// is safe for concurrent use.
type Keyring struct {
	aead     cipher.AEAD
	indexKey []byte
	logger   zerolog.Logger
}

// Option configures a Keyring during construction.
type Option func(*keyringConfig) error

type keyringConfig struct {
	logger zerolog.Logger
}

// WithLogger sets the structured logger used for operational warnings.
// Documents are never logged raw: every document log call goes through
// PseudonymizeForLogging first.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *keyringConfig) error {
		c.logger = logger
		return nil
	}
}

// NewKeyring loads key material from source, stretches it into the working
// cipher key with PBKDF2-HMAC-SHA256 (PBKDF2Iterations iterations) and
// derives the blind-index key with HKDF-SHA256, then builds the AES-256-GCM
// handle used for every field operation.
//
// Construction failures are fatal for the host: a process without a working
// Keyring must not serve requests.
func NewKeyring(ctx context.Context, source SecretSource, options ...Option) (*Keyring, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: secret source is required", ErrInvalidConfiguration)
	}

	cfg := &keyringConfig{logger: zerolog.Nop()}
	for i, opt := range options {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option %d: %w", i+1, err)
		}
	}

	master, salt, err := source.LoadKeyMaterial(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load key material from %s: %w", source.Describe(), err)
	}

	cipherKey := pbkdf2.Key(master, salt, PBKDF2Iterations, DerivedKeyLength, sha256.New)

	indexKey := make([]byte, DerivedKeyLength)
	if err := hkdfDerive(master, salt, hkdfInfoBlindIndex, indexKey); err != nil {
		return nil, fmt.Errorf("%w: blind-index key derivation failed: %v", ErrInvalidConfiguration, err)
	}

	// Key material is held only as the derived keys from here on.
	zeroize(master)

	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create AES cipher: %v", ErrInvalidConfiguration, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create GCM: %v", ErrInvalidConfiguration, err)
	}

	cfg.logger.Info().
		Str("source", source.Describe()).
		Int("pbkdf2_iterations", PBKDF2Iterations).
		Msg("field encryption keyring initialized")

	return &Keyring{
		aead:     aead,
		indexKey: indexKey,
		logger:   cfg.logger,
	}, nil
}

// hkdfDerive fills out with HKDF-SHA256 output for the given info string.
func hkdfDerive(secret, salt []byte, info string, out []byte) error {
	r := hkdf.New(sha256.New, secret, salt, []byte(info))
	_, err := io.ReadFull(r, out)
	return err
}

func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
