// Package aws provides AWS Secrets Manager integration for medcrypt.
//
// SecretsManagerSource implements medcrypt.SecretSource, loading the master
// key secret and salt from one Secrets Manager entry. The material must be
// provisioned out of band; this source never creates or rotates it.
package aws

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/pdsykes2512/medcrypt"
)

// secretsManagerClient is the subset of the Secrets Manager API this source
// uses (allows mocking).
type secretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Config holds the AWS provider configuration.
type Config struct {
	// Region is the AWS region. If empty, the default credential chain's
	// region is used.
	Region string

	// AWSConfig overrides the default AWS configuration entirely.
	AWSConfig *aws.Config
}

// keyMaterialSecret is the JSON shape of the Secrets Manager entry.
type keyMaterialSecret struct {
	MasterKey string `json:"master_key"`
	Salt      string `json:"salt"`
}

// SecretsManagerSource loads key material from one AWS Secrets Manager
// secret whose value is a JSON object with hex-encoded "master_key" and
// "salt" fields.
type SecretsManagerSource struct {
	client   secretsManagerClient
	secretID string
}

// NewSecretsManagerSource creates a source reading the given secret ID.
//
//	source, err := aws.NewSecretsManagerSource(ctx, "medcrypt/surgdb/keys", aws.Config{Region: "eu-west-2"})
func NewSecretsManagerSource(ctx context.Context, secretID string, cfg Config) (*SecretsManagerSource, error) {
	if secretID == "" {
		return nil, fmt.Errorf("%w: secret ID is required", medcrypt.ErrInvalidConfiguration)
	}

	var awsConfig aws.Config
	var err error
	if cfg.AWSConfig != nil {
		awsConfig = *cfg.AWSConfig
	} else {
		opts := []func(*config.LoadOptions) error{}
		if cfg.Region != "" {
			opts = append(opts, config.WithRegion(cfg.Region))
		}
		awsConfig, err = config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load AWS config: %v", medcrypt.ErrSecretUnavailable, err)
		}
	}

	return &SecretsManagerSource{
		client:   secretsmanager.NewFromConfig(awsConfig),
		secretID: secretID,
	}, nil
}

func (s *SecretsManagerSource) Describe() string {
	return fmt.Sprintf("aws-secrets-manager (%s)", s.secretID)
}

// LoadKeyMaterial fetches and decodes the secret. Missing or malformed
// material is a fatal configuration error; there is no fallback.
func (s *SecretsManagerSource) LoadKeyMaterial(ctx context.Context) ([]byte, []byte, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read secret '%s': %v",
			medcrypt.ErrSecretUnavailable, s.secretID, err)
	}
	if out.SecretString == nil {
		return nil, nil, fmt.Errorf("%w: secret '%s' has no string value",
			medcrypt.ErrKeyMaterialMissing, s.secretID)
	}

	var material keyMaterialSecret
	if err := json.Unmarshal([]byte(*out.SecretString), &material); err != nil {
		return nil, nil, fmt.Errorf("%w: secret '%s' is not valid JSON: %v",
			medcrypt.ErrSecretUnavailable, s.secretID, err)
	}

	master, err := hex.DecodeString(material.MasterKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: master_key is not valid hex: %v",
			medcrypt.ErrSecretUnavailable, err)
	}
	salt, err := hex.DecodeString(material.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: salt is not valid hex: %v",
			medcrypt.ErrSecretUnavailable, err)
	}

	if len(master) < medcrypt.MasterKeyLength {
		return nil, nil, medcrypt.NewKeyMaterialInvalidError("master key", medcrypt.MasterKeyLength, len(master))
	}
	if len(salt) != medcrypt.SaltLength {
		return nil, nil, medcrypt.NewKeyMaterialInvalidError("salt", medcrypt.SaltLength, len(salt))
	}
	return master, salt, nil
}
