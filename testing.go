package medcrypt

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/rs/zerolog"
)

// StaticSource is an in-memory SecretSource for tests and examples. It
// serves fixed key material and performs no I/O.
type StaticSource struct {
	Master []byte
	Salt   []byte
}

func (s *StaticSource) LoadKeyMaterial(ctx context.Context) ([]byte, []byte, error) {
	if len(s.Master) < MasterKeyLength {
		return nil, nil, NewKeyMaterialInvalidError("master key", MasterKeyLength, len(s.Master))
	}
	if len(s.Salt) != SaltLength {
		return nil, nil, NewKeyMaterialInvalidError("salt", SaltLength, len(s.Salt))
	}
	// Copies: NewKeyring zeroizes the master buffer it is handed.
	master := make([]byte, len(s.Master))
	copy(master, s.Master)
	salt := make([]byte, len(s.Salt))
	copy(salt, s.Salt)
	return master, salt, nil
}

func (s *StaticSource) Describe() string { return "static (in-memory)" }

// NewTestKeyring returns a Keyring backed by fresh random in-memory key
// material. Each call produces an independent keyring, so data encrypted by
// one cannot be decrypted by another - useful for wrong-key tests.
func NewTestKeyring() (*Keyring, error) {
	master := make([]byte, MasterKeyLength)
	if _, err := rand.Read(master); err != nil {
		return nil, fmt.Errorf("failed to generate test master key: %w", err)
	}
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate test salt: %w", err)
	}
	return NewKeyring(context.Background(), &StaticSource{Master: master, Salt: salt}, WithLogger(zerolog.Nop()))
}
