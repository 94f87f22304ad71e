package main

import (
	"context"
	"fmt"

	"github.com/pdsykes2512/medcrypt"
	awssecrets "github.com/pdsykes2512/medcrypt/providers/secrets/aws"
	vaultsecrets "github.com/pdsykes2512/medcrypt/providers/secrets/vault"
)

func newVaultSource(cfg *medcrypt.Config) (medcrypt.SecretSource, error) {
	if cfg.VaultSecretPath == "" {
		return nil, fmt.Errorf("vault secret source requires a secret path")
	}
	return vaultsecrets.NewKVSource(cfg.VaultSecretPath)
}

func newAWSSource(cfg *medcrypt.Config) (medcrypt.SecretSource, error) {
	if cfg.AWSSecretID == "" {
		return nil, fmt.Errorf("aws secret source requires a secret id")
	}
	return awssecrets.NewSecretsManagerSource(context.Background(), cfg.AWSSecretID, awssecrets.Config{
		Region: cfg.AWSRegion,
	})
}
