package medcrypt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Secret source names accepted in configuration.
const (
	SourceFile  = "file"
	SourceVault = "vault"
	SourceAWS   = "aws"
)

// Config holds the settings needed to construct a Keyring and its secret
// source. It contains only data, no behavior; it can be populated from a
// YAML file, environment variables, or code and passed explicitly.
type Config struct {
	// SecretSource selects where master key material comes from:
	// "file" (default), "vault", or "aws".
	SecretSource string `yaml:"secret_source"`

	// KeyFile and SaltFile are the master key and salt file paths used by
	// the file source. Defaults: .medcrypt/master.key, .medcrypt/master.salt.
	KeyFile  string `yaml:"key_file"`
	SaltFile string `yaml:"salt_file"`

	// VaultSecretPath is the KV v2 path holding the key material when
	// SecretSource is "vault", e.g. "secret/data/medcrypt/surgdb".
	VaultSecretPath string `yaml:"vault_secret_path"`

	// AWSSecretID and AWSRegion locate the key material in AWS Secrets
	// Manager when SecretSource is "aws".
	AWSSecretID string `yaml:"aws_secret_id"`
	AWSRegion   string `yaml:"aws_region"`

	// ExtraRedactionKeys lists additional document keys the Pseudonymizer
	// blanks, for deployment-specific PII naming. The encryptable field
	// set itself is closed and cannot be extended here.
	ExtraRedactionKeys []string `yaml:"extra_redaction_keys"`
}

// Validate checks the configuration and applies defaults to optional fields.
func (c *Config) Validate() error {
	if c.SecretSource == "" {
		c.SecretSource = SourceFile
	}
	switch c.SecretSource {
	case SourceFile:
		if c.KeyFile == "" {
			c.KeyFile = DefaultKeyFile
		}
		if c.SaltFile == "" {
			c.SaltFile = DefaultSaltFile
		}
	case SourceVault:
		if c.VaultSecretPath == "" {
			return fmt.Errorf("%w: vault_secret_path is required for the vault secret source", ErrInvalidConfiguration)
		}
	case SourceAWS:
		if c.AWSSecretID == "" {
			return fmt.Errorf("%w: aws_secret_id is required for the aws secret source", ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown secret source '%s'", ErrInvalidConfiguration, c.SecretSource)
	}
	return nil
}

// LoadConfig reads a YAML configuration file and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFromEnv builds a configuration from the MEDCRYPT_* environment
// variables and validates it.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		SecretSource:    os.Getenv(EnvSecretSource),
		KeyFile:         os.Getenv(EnvKeyFile),
		SaltFile:        os.Getenv(EnvSaltFile),
		VaultSecretPath: os.Getenv(EnvVaultSecretPath),
		AWSSecretID:     os.Getenv(EnvAWSSecretID),
		AWSRegion:       os.Getenv(EnvAWSRegion),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RegisterRedactionAliases adds document keys to the Pseudonymizer's
// redaction set. Call it during startup, before documents are logged
// concurrently; the set is not safe to mutate afterwards.
func RegisterRedactionAliases(keys ...string) {
	for _, key := range keys {
		redactedKeys[key] = true
	}
}
