package medcrypt

import (
	"errors"
	"fmt"
)

var (
	// High-level service errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrEncryptionFailed     = errors.New("encryption failed")
	ErrDecryptionFailed     = errors.New("decryption failed")
	ErrStoreUnavailable     = errors.New("document store unavailable")
	ErrSecretUnavailable    = errors.New("key material unavailable")

	// Field errors
	ErrUnknownField      = errors.New("field is not in the sensitive field registry")
	ErrFieldNotIndexable = errors.New("field has no blind index")

	// Key material errors
	ErrKeyMaterialMissing = errors.New("master key or salt not provisioned")
	ErrKeyMaterialInvalid = errors.New("master key or salt has invalid length")
)

func NewUnknownFieldError(fieldName string) error {
	return fmt.Errorf("%w: '%s'", ErrUnknownField, fieldName)
}

func NewKeyMaterialInvalidError(what string, expected, got int) error {
	return fmt.Errorf("%w: %s must be %d bytes, got %d",
		ErrKeyMaterialInvalid, what, expected, got)
}

func NewDecryptionError(fieldName string, cause error) error {
	return fmt.Errorf("%w: field '%s': %v", ErrDecryptionFailed, fieldName, cause)
}

func NewEncryptionError(fieldName string, cause error) error {
	return fmt.Errorf("%w: field '%s': %v", ErrEncryptionFailed, fieldName, cause)
}

// IsConfigurationError returns true if the error represents a configuration
// problem that must prevent the host process from serving requests.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrKeyMaterialMissing) ||
		errors.Is(err, ErrKeyMaterialInvalid) ||
		errors.Is(err, ErrSecretUnavailable)
}

// IsOperationError returns true if the error represents a failure during an
// encryption or decryption operation. These are never retried: a wrong key
// or corrupted ciphertext will not heal on retry.
func IsOperationError(err error) bool {
	return errors.Is(err, ErrEncryptionFailed) ||
		errors.Is(err, ErrDecryptionFailed)
}

// IsRetryableError returns true if the error represents a transient failure
// that might succeed on retry.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
