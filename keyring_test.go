package medcrypt_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdsykes2512/medcrypt"
)

func TestNewKeyringRequiresSource(t *testing.T) {
	keyring, err := medcrypt.NewKeyring(context.Background(), nil)
	assert.ErrorIs(t, err, medcrypt.ErrInvalidConfiguration)
	assert.Nil(t, keyring)
}

// Two keyrings built from the same master key and salt must be fully
// interchangeable: ciphertext and search hashes written by one process are
// readable and matchable by another.
func TestKeyringDerivationDeterministic(t *testing.T) {
	ctx := context.Background()
	master := bytes.Repeat([]byte{0x42}, medcrypt.MasterKeyLength)
	salt := bytes.Repeat([]byte{0x17}, medcrypt.SaltLength)

	keyringA, err := medcrypt.NewKeyring(ctx, &medcrypt.StaticSource{Master: master, Salt: salt})
	require.NoError(t, err)
	keyringB, err := medcrypt.NewKeyring(ctx, &medcrypt.StaticSource{Master: master, Salt: salt})
	require.NoError(t, err)

	encrypted, err := keyringA.EncryptField("nhs_number", "9434765919")
	require.NoError(t, err)
	decrypted, err := keyringB.DecryptField("nhs_number", encrypted)
	require.NoError(t, err)
	assert.Equal(t, "9434765919", decrypted)

	assert.Equal(t,
		keyringA.SearchHash(medcrypt.FieldNHSNumber, "9434765919"),
		keyringB.SearchHash(medcrypt.FieldNHSNumber, "9434765919"))
}

// The blind-index key is derived separately from the cipher key; a digest
// must never double as a decryption oracle, so the two keys must differ in
// effect. Changing the salt alone must change both.
func TestKeyringSaltChangesDerivedKeys(t *testing.T) {
	ctx := context.Background()
	master := bytes.Repeat([]byte{0x42}, medcrypt.MasterKeyLength)

	keyringA, err := medcrypt.NewKeyring(ctx, &medcrypt.StaticSource{
		Master: master,
		Salt:   bytes.Repeat([]byte{0x01}, medcrypt.SaltLength),
	})
	require.NoError(t, err)
	keyringB, err := medcrypt.NewKeyring(ctx, &medcrypt.StaticSource{
		Master: master,
		Salt:   bytes.Repeat([]byte{0x02}, medcrypt.SaltLength),
	})
	require.NoError(t, err)

	encrypted, err := keyringA.EncryptField("nhs_number", "9434765919")
	require.NoError(t, err)
	_, err = keyringB.DecryptField("nhs_number", encrypted)
	assert.ErrorIs(t, err, medcrypt.ErrDecryptionFailed)

	assert.NotEqual(t,
		keyringA.SearchHash(medcrypt.FieldNHSNumber, "9434765919"),
		keyringB.SearchHash(medcrypt.FieldNHSNumber, "9434765919"))
}

func TestNewKeyringSourceFailure(t *testing.T) {
	src := &failingSource{err: medcrypt.ErrKeyMaterialMissing}
	keyring, err := medcrypt.NewKeyring(context.Background(), src)
	assert.Nil(t, keyring)
	assert.ErrorIs(t, err, medcrypt.ErrKeyMaterialMissing)
	assert.True(t, medcrypt.IsConfigurationError(err))
}

type failingSource struct {
	err error
}

func (s *failingSource) LoadKeyMaterial(ctx context.Context) ([]byte, []byte, error) {
	return nil, nil, s.err
}

func (s *failingSource) Describe() string { return "failing (test)" }
