package medcrypt

// Key material constants
const (
	// MasterKeyLength is the required length of the master key secret in bytes.
	MasterKeyLength = 32

	// SaltLength is the required length of the PBKDF2 salt in bytes.
	SaltLength = 16

	// DerivedKeyLength is the length of the working cipher key in bytes
	// (AES-256).
	DerivedKeyLength = 32

	// PBKDF2Iterations is the iteration count used to stretch the master
	// key secret into the working cipher key. Changing it invalidates all
	// previously encrypted data, so it is fixed.
	PBKDF2Iterations = 100_000
)

// EncryptedPrefix tags every encrypted field value. A stored value lacking
// the prefix is treated as legacy plaintext and passed through unchanged by
// decryption.
const EncryptedPrefix = "ENC:"

// RedactedMarker replaces identifying values in pseudonymized documents.
const RedactedMarker = "[REDACTED]"

// Environment variable names
const (
	// EnvKeyFile is the environment variable holding the master key file path.
	// Default: .medcrypt/master.key
	EnvKeyFile = "MEDCRYPT_KEY_FILE"

	// EnvSaltFile is the environment variable holding the salt file path.
	// Default: .medcrypt/master.salt
	EnvSaltFile = "MEDCRYPT_SALT_FILE"

	// EnvSecretSource selects where master key material is loaded from:
	// "file" (default), "vault", or "aws".
	EnvSecretSource = "MEDCRYPT_SECRET_SOURCE"

	// EnvVaultSecretPath is the KV v2 path used when the source is "vault".
	EnvVaultSecretPath = "MEDCRYPT_VAULT_SECRET_PATH"

	// EnvAWSSecretID and EnvAWSRegion locate the key material when the
	// source is "aws".
	EnvAWSSecretID = "MEDCRYPT_AWS_SECRET_ID"
	EnvAWSRegion   = "MEDCRYPT_AWS_REGION"
)

// Default values
const (
	// DefaultKeyFile is the default master key file path, relative to the
	// working directory.
	DefaultKeyFile = ".medcrypt/master.key"

	// DefaultSaltFile is the default salt file path.
	DefaultSaltFile = ".medcrypt/master.salt"
)

// HKDF info strings. Distinct strings guarantee the blind-index key is
// cryptographically separate from the cipher key.
const (
	hkdfInfoBlindIndex = "medcrypt-blind-index"
)
