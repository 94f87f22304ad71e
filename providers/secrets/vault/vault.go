// Package vault provides HashiCorp Vault KV v2 integration for medcrypt.
//
// KVSource implements medcrypt.SecretSource, loading the master key secret
// and salt from a Vault KV v2 entry. The material must be provisioned out of
// band (e.g. with medcrypt.GenerateMasterKeyHex); this source never creates
// or rotates it.
package vault

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"

	"github.com/hashicorp/vault/api"

	"github.com/pdsykes2512/medcrypt"
)

// Secret field names expected in the KV v2 entry.
const (
	masterKeyField = "master_key"
	saltField      = "salt"
)

// KVSource loads key material from a Vault KV v2 path such as
// "secret/data/medcrypt/surgdb".
type KVSource struct {
	client *api.Client
	path   string
}

// NewKVSource creates a KVSource for the given KV v2 path.
//
// The Vault client is configured from environment variables:
//   - VAULT_ADDR: Vault server address (required)
//   - VAULT_NAMESPACE: namespace for HCP Vault (optional)
//   - VAULT_TOKEN: direct token authentication
//   - VAULT_ROLE_ID / VAULT_SECRET_ID: AppRole authentication
//
// Token authentication takes priority over AppRole.
func NewKVSource(path string) (*KVSource, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: vault secret path is required", medcrypt.ErrInvalidConfiguration)
	}
	client, err := createVaultClient()
	if err != nil {
		return nil, err
	}
	return &KVSource{client: client, path: path}, nil
}

func (s *KVSource) Describe() string {
	return fmt.Sprintf("vault (%s)", s.path)
}

// LoadKeyMaterial reads the KV v2 entry and returns the hex-decoded
// master key and salt. A missing entry or field is a fatal configuration
// error; this source never falls back to generating material.
func (s *KVSource) LoadKeyMaterial(ctx context.Context) ([]byte, []byte, error) {
	secret, err := s.client.Logical().ReadWithContext(ctx, s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read key material from Vault KV: %v",
			medcrypt.ErrSecretUnavailable, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nil, fmt.Errorf("%w: no secret at Vault path '%s'",
			medcrypt.ErrKeyMaterialMissing, s.path)
	}

	// KV v2 wraps the actual data in a "data" key
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, nil, fmt.Errorf("%w: invalid KV v2 secret format at '%s'",
			medcrypt.ErrSecretUnavailable, s.path)
	}

	master, err := decodeHexField(data, masterKeyField)
	if err != nil {
		return nil, nil, err
	}
	salt, err := decodeHexField(data, saltField)
	if err != nil {
		return nil, nil, err
	}

	if len(master) < medcrypt.MasterKeyLength {
		return nil, nil, medcrypt.NewKeyMaterialInvalidError("master key", medcrypt.MasterKeyLength, len(master))
	}
	if len(salt) != medcrypt.SaltLength {
		return nil, nil, medcrypt.NewKeyMaterialInvalidError("salt", medcrypt.SaltLength, len(salt))
	}
	return master, salt, nil
}

func decodeHexField(data map[string]interface{}, field string) ([]byte, error) {
	encoded, ok := data[field].(string)
	if !ok {
		return nil, fmt.Errorf("%w: secret field '%s' not found or not a string",
			medcrypt.ErrKeyMaterialMissing, field)
	}
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: secret field '%s' is not valid hex: %v",
			medcrypt.ErrSecretUnavailable, field, err)
	}
	return raw, nil
}

// createVaultClient creates a configured Vault client using environment
// variables.
func createVaultClient() (*api.Client, error) {
	config := api.DefaultConfig()

	addr := os.Getenv("VAULT_ADDR")
	if addr != "" {
		config.Address = addr
	}
	if config.Address == "" {
		return nil, fmt.Errorf("%w: VAULT_ADDR environment variable is required", medcrypt.ErrInvalidConfiguration)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}
	config.HttpClient.Transport = transport

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Vault client: %v", medcrypt.ErrSecretUnavailable, err)
	}

	namespace := os.Getenv("VAULT_NAMESPACE")
	if namespace != "" {
		client.SetNamespace(namespace)
	}

	token := os.Getenv("VAULT_TOKEN")
	if token != "" {
		client.SetToken(token)
		return client, nil
	}

	roleID := os.Getenv("VAULT_ROLE_ID")
	secretID := os.Getenv("VAULT_SECRET_ID")
	if roleID != "" && secretID != "" {
		data := map[string]interface{}{
			"role_id":   roleID,
			"secret_id": secretID,
		}
		resp, err := client.Logical().Write("auth/approle/login", data)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to login with AppRole: %v", medcrypt.ErrSecretUnavailable, err)
		}
		if resp == nil || resp.Auth == nil {
			return nil, fmt.Errorf("%w: no auth info returned from AppRole login", medcrypt.ErrSecretUnavailable)
		}
		client.SetToken(resp.Auth.ClientToken)
		return client, nil
	}

	return nil, fmt.Errorf("%w: no Vault authentication method configured (set VAULT_TOKEN or VAULT_ROLE_ID+VAULT_SECRET_ID)",
		medcrypt.ErrInvalidConfiguration)
}
