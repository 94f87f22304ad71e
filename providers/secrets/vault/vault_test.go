package vault

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdsykes2512/medcrypt"
)

func TestNewKVSourceValidation(t *testing.T) {
	_, err := NewKVSource("")
	assert.ErrorIs(t, err, medcrypt.ErrInvalidConfiguration)

	t.Setenv("VAULT_ADDR", "")
	_, err = NewKVSource("secret/data/medcrypt/surgdb")
	assert.ErrorIs(t, err, medcrypt.ErrInvalidConfiguration)
}

func TestNewKVSourceRequiresAuth(t *testing.T) {
	t.Setenv("VAULT_ADDR", "http://127.0.0.1:8200")
	t.Setenv("VAULT_TOKEN", "")
	t.Setenv("VAULT_ROLE_ID", "")
	t.Setenv("VAULT_SECRET_ID", "")

	_, err := NewKVSource("secret/data/medcrypt/surgdb")
	assert.ErrorIs(t, err, medcrypt.ErrInvalidConfiguration)
}

func TestDecodeHexField(t *testing.T) {
	data := map[string]interface{}{
		"master_key": hex.EncodeToString([]byte("0123456789abcdef")),
		"bad_hex":    "zz",
		"not_string": 42,
	}

	raw, err := decodeHexField(data, "master_key")
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef"), raw)

	_, err = decodeHexField(data, "missing")
	assert.ErrorIs(t, err, medcrypt.ErrKeyMaterialMissing)

	_, err = decodeHexField(data, "not_string")
	assert.ErrorIs(t, err, medcrypt.ErrKeyMaterialMissing)

	_, err = decodeHexField(data, "bad_hex")
	assert.ErrorIs(t, err, medcrypt.ErrSecretUnavailable)
}
