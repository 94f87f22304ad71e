package medcrypt

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateMasterKey returns MasterKeyLength bytes of cryptographically
// secure random key material, suitable for provisioning a remote secret
// source or seeding a key file out of band.
func GenerateMasterKey() ([]byte, error) {
	key := make([]byte, MasterKeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// GenerateSalt returns SaltLength bytes of cryptographically secure random
// salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// GenerateMasterKeyHex returns a fresh master key as a hex string, the form
// expected when provisioning Vault or AWS Secrets Manager entries.
func GenerateMasterKeyHex() (string, error) {
	key, err := GenerateMasterKey()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
