package secrets

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	SourceEnvironment SecretSource = "environment"
	SourceVault       SecretSource = "vault"
	// SourceAuto uses vault in staging/production, environment in development
	SourceAuto SecretSource = "auto"
)

// Key Vault secret names and their environment variable overrides
const (
	DatabaseHost     = "ESTIMATOR-DB-HOST"
	DatabaseUser     = "ESTIMATOR-DB-USER"
	DatabasePassword = "ESTIMATOR-DB-PASSWORD"
	StorageConnStr   = "ESTIMATOR-STORAGE-CONNECTION-STRING"

	DatabaseHostEnv     = "DATABASE_HOST"
	DatabaseUserEnv     = "DATABASE_USER"
	DatabasePasswordEnv = "DATABASE_PASSWORD"
	StorageConnStrEnv   = "STORAGE_CLOUDCONNECTIONSTRING"
)

// Fetcher retrieves a named secret from a backing store
type Fetcher interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Provider abstracts secret retrieval from different sources
type Provider struct {
	source      SecretSource
	vault       Fetcher
	logger      *zap.Logger
	environment string
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string // "development", "staging", "production"
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ResolveSource turns SourceAuto into a concrete source for the environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a new secrets provider, connecting to Key Vault when the source requires it
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	var vault Fetcher
	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		client, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		vault = client
	}

	logger.Info("Secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)

	return NewProviderWithFetcher(source, vault, cfg.Environment, logger), nil
}

// NewProviderWithFetcher builds a provider over an existing vault fetcher
func NewProviderWithFetcher(source SecretSource, vault Fetcher, environment string, logger *zap.Logger) *Provider {
	return &Provider{
		source:      source,
		vault:       vault,
		logger:      logger,
		environment: environment,
	}
}

// GetSecret retrieves a secret by name
// For vault source, secretName is the Key Vault secret name
// For environment source, secretName is the environment variable name
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	switch p.source {
	case SourceEnvironment:
		value := os.Getenv(secretName)
		if value == "" {
			return "", fmt.Errorf("environment variable '%s' not set", secretName)
		}
		return value, nil

	case SourceVault:
		if p.vault == nil {
			return "", fmt.Errorf("vault client not initialized")
		}
		return p.vault.GetSecret(ctx, secretName)

	default:
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
}

// GetSecretOrEnv prefers an explicitly set environment variable, then the configured source
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if envValue := os.Getenv(envName); envValue != "" {
		p.logger.Debug("Using environment variable override",
			zap.String("env_name", envName),
		)
		return envValue, nil
	}
	if p.source == SourceEnvironment {
		return "", fmt.Errorf("environment variable '%s' not set", envName)
	}
	return p.GetSecret(ctx, secretName)
}

// Source returns the current secret source
func (p *Provider) Source() SecretSource {
	return p.source
}

// IsVaultEnabled returns true if secrets are loaded from vault
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}
