package medcrypt

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// EncryptField encrypts a single scalar document value.
//
// The value passes through unchanged when it is nil or empty, when fieldName
// is not in the sensitive field registry, or when it already bears the
// EncryptedPrefix - re-encrypting an encrypted value is a no-op, which keeps
// repeated writes and migrations idempotent.
//
// Non-string values are coerced to their string form before encryption;
// decryption always yields a string and the caller re-parses typed values.
func (k *Keyring) EncryptField(fieldName string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if !IsSensitiveField(fieldName) {
		return value, nil
	}

	plaintext, err := coerceString(value)
	if err != nil {
		return nil, NewEncryptionError(fieldName, err)
	}
	if plaintext == "" {
		return value, nil
	}
	if strings.HasPrefix(plaintext, EncryptedPrefix) {
		return plaintext, nil
	}

	token, err := k.seal(plaintext)
	if err != nil {
		return nil, NewEncryptionError(fieldName, err)
	}
	return token, nil
}

// DecryptField decrypts a single scalar document value.
//
// Nil, empty, non-string, and unprefixed values pass through unchanged:
// an unprefixed string is legacy plaintext from before migration. A value
// that bears the prefix but fails base64 decoding or GCM authentication
// surfaces ErrDecryptionFailed - corrupted or tampered ciphertext is never
// returned as plausible plaintext.
func (k *Keyring) DecryptField(fieldName string, value any) (any, error) {
	s, ok := value.(string)
	if !ok || s == "" {
		return value, nil
	}
	if !strings.HasPrefix(s, EncryptedPrefix) {
		return value, nil
	}

	plaintext, err := k.open(s)
	if err != nil {
		return nil, NewDecryptionError(fieldName, err)
	}
	return plaintext, nil
}

// seal encrypts plaintext with the process AEAD and returns the tagged
// token "ENC:" + base64url(nonce || ciphertext || tag).
func (k *Keyring) seal(plaintext string) (string, error) {
	nonce := make([]byte, k.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce generation failed: %w", err)
	}
	ciphertext := k.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.URLEncoding.EncodeToString(ciphertext), nil
}

// open reverses seal. token must bear the EncryptedPrefix.
func (k *Keyring) open(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(strings.TrimPrefix(token, EncryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("malformed base64: %w", err)
	}
	nonceSize := k.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := k.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	return string(plaintext), nil
}

// IsEncrypted reports whether value is a tagged ciphertext token.
func IsEncrypted(value any) bool {
	s, ok := value.(string)
	return ok && strings.HasPrefix(s, EncryptedPrefix)
}

// coerceString converts a scalar document value to its canonical string
// form for encryption or hashing.
func coerceString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}
