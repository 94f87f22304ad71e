package medcrypt_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdsykes2512/medcrypt"
)

func tempFileSource(t *testing.T) (*medcrypt.FileSource, string, string) {
	t.Helper()
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "keys", "master.key")
	saltPath := filepath.Join(dir, "keys", "master.salt")
	return medcrypt.NewFileSource(keyPath, saltPath, zerolog.Nop()), keyPath, saltPath
}

func TestFileSourceFirstRunGeneratesMaterial(t *testing.T) {
	source, keyPath, saltPath := tempFileSource(t)

	master, salt, err := source.LoadKeyMaterial(context.Background())
	require.NoError(t, err)
	assert.Len(t, master, medcrypt.MasterKeyLength)
	assert.Len(t, salt, medcrypt.SaltLength)

	// Both files exist with owner-only permissions.
	for _, path := range []string{keyPath, saltPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), path)
	}
}

func TestFileSourceReloadReturnsSameMaterial(t *testing.T) {
	source, _, _ := tempFileSource(t)
	ctx := context.Background()

	master1, salt1, err := source.LoadKeyMaterial(ctx)
	require.NoError(t, err)
	master2, salt2, err := source.LoadKeyMaterial(ctx)
	require.NoError(t, err)

	assert.Equal(t, master1, master2, "reload must never regenerate the master key")
	assert.Equal(t, salt1, salt2)
}

// A key file without its salt (or the reverse) means provisioning went wrong.
// Regenerating the missing half would silently orphan all existing
// ciphertext, so it must be a hard error instead.
func TestFileSourcePartialPairFails(t *testing.T) {
	tests := []struct {
		name   string
		remove func(keyPath, saltPath string) string
	}{
		{name: "salt missing", remove: func(keyPath, saltPath string) string { return saltPath }},
		{name: "key missing", remove: func(keyPath, saltPath string) string { return keyPath }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, keyPath, saltPath := tempFileSource(t)
			ctx := context.Background()

			_, _, err := source.LoadKeyMaterial(ctx)
			require.NoError(t, err)

			require.NoError(t, os.Remove(tt.remove(keyPath, saltPath)))

			_, _, err = source.LoadKeyMaterial(ctx)
			assert.ErrorIs(t, err, medcrypt.ErrKeyMaterialMissing)
			assert.True(t, medcrypt.IsConfigurationError(err))
		})
	}
}

func TestFileSourceRejectsShortMaterial(t *testing.T) {
	source, keyPath, saltPath := tempFileSource(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Dir(keyPath), 0700))
	require.NoError(t, os.WriteFile(keyPath, []byte("too short"), 0600))
	require.NoError(t, os.WriteFile(saltPath, make([]byte, medcrypt.SaltLength), 0600))

	_, _, err := source.LoadKeyMaterial(ctx)
	assert.ErrorIs(t, err, medcrypt.ErrKeyMaterialInvalid)
}

func TestFileSourceRejectsBadSaltLength(t *testing.T) {
	source, keyPath, saltPath := tempFileSource(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Dir(keyPath), 0700))
	require.NoError(t, os.WriteFile(keyPath, make([]byte, medcrypt.MasterKeyLength), 0600))
	require.NoError(t, os.WriteFile(saltPath, []byte("bad"), 0600))

	_, _, err := source.LoadKeyMaterial(ctx)
	assert.ErrorIs(t, err, medcrypt.ErrKeyMaterialInvalid)
}

// End to end: a keyring built from files decrypts data written by an earlier
// keyring built from the same files.
func TestFileSourceKeyringPersistence(t *testing.T) {
	source, _, _ := tempFileSource(t)
	ctx := context.Background()

	keyringA, err := medcrypt.NewKeyring(ctx, source)
	require.NoError(t, err)
	encrypted, err := keyringA.EncryptField("nhs_number", "9434765919")
	require.NoError(t, err)

	keyringB, err := medcrypt.NewKeyring(ctx, source)
	require.NoError(t, err)
	decrypted, err := keyringB.DecryptField("nhs_number", encrypted)
	require.NoError(t, err)
	assert.Equal(t, "9434765919", decrypted)
}
