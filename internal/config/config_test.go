package config

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/straye-as/bid-estimator/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir on Go < 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 296.0, cfg.Pricing.CostPerLabourDay)
	assert.Equal(t, 20.0, cfg.Pricing.SubtradeMarkupPct)
	assert.Equal(t, "0 30 2 * * *", cfg.Jobs.ReconcileSchedule)
	assert.Equal(t, 100, cfg.Jobs.BatchSize)
	assert.Equal(t, []string{"/health", "/health/db", "/health/ready"}, cfg.RateLimit.WhitelistPaths)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("PRICING_PROFITPCT", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 25.0, cfg.Pricing.ProfitPct)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.Database.Driver = DriverSQLite
		c.Pricing.CostPerLabourDay = 296
		c.Jobs.BatchSize = 10
		return c
	}

	require.NoError(t, base().Validate())

	c := base()
	c.Database.Driver = "mysql"
	assert.Error(t, c.Validate())

	c = base()
	c.Pricing.OverheadPct = -1
	assert.Error(t, c.Validate())

	c = base()
	c.Jobs.BatchSize = 0
	assert.Error(t, c.Validate())
}

type mapSource map[string]string

func (m mapSource) GetSecretOrEnv(_ context.Context, name, _ string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = DriverPostgres
	cfg.Database.Host = "localhost"

	err := applySecrets(context.Background(), cfg, mapSource{
		secrets.DatabaseHost:     "db.internal",
		secrets.DatabasePassword: "pw",
		secrets.StorageConnStr:   "DefaultEndpointsProtocol=https",
	})
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "pw", cfg.Database.Password)
	assert.Equal(t, "DefaultEndpointsProtocol=https", cfg.Storage.CloudConnectionString)
}

func TestApplySecrets_PostgresRequiresPassword(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = DriverPostgres

	err := applySecrets(context.Background(), cfg, mapSource{})
	assert.Error(t, err)

	cfg.Database.Driver = DriverSQLite
	assert.NoError(t, applySecrets(context.Background(), cfg, mapSource{}))
}
