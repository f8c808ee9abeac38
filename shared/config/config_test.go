package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 20, cfg.Oracles.Count)

	engine, err := cfg.Engine.SuretyConfig()
	require.NoError(t, err)
	assert.Equal(t, models.Units(10), engine.FundingThreshold)
	assert.Equal(t, models.Units(1), engine.MaxPolicyValue)
	assert.Equal(t, models.Units(1), engine.RegistrationFee)
	assert.True(t, decimal.RequireFromString("1.5").Equal(engine.PayoutMultiplier))
	assert.Equal(t, 3, engine.MinResponses)

	genesis, err := cfg.Genesis.SuretyGenesis()
	require.NoError(t, err)
	assert.Equal(t, "airline-owner", genesis.Owner)
	assert.Equal(t, models.Units(10), genesis.InitialFunding)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "surety.yaml", `
server:
  port: 9090
  read_timeout: 5s
engine:
  funding_threshold: "2.5"
  min_responses: 5
  index_range: 20
genesis:
  owner: airline-x
oracles:
  count: 4
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, "airline-x", cfg.Genesis.Owner)
	assert.Equal(t, 4, cfg.Oracles.Count)
	assert.Equal(t, "json", cfg.Logging.Format)

	engine, err := cfg.Engine.SuretyConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(250_000_000), engine.FundingThreshold)
	assert.Equal(t, 5, engine.MinResponses)
	assert.Equal(t, 20, engine.IndexRange)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "surety.yaml", "server:\n  port: 9090\n")
	t.Setenv("API_PORT", "7070")
	t.Setenv("SURETY_OWNER", "airline-env")
	t.Setenv("DATABASE_URL", "postgres://localhost/surety")
	t.Setenv("TEMPORAL_HOST", "temporal:7233")
	t.Setenv("ORACLE_COUNT", "30")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "airline-env", cfg.Genesis.Owner)
	assert.Equal(t, "postgres://localhost/surety", cfg.Database.URL)
	assert.Equal(t, "temporal:7233", cfg.Temporal.HostPort)
	assert.Equal(t, 30, cfg.Oracles.Count)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad amount", content: "engine:\n  max_policy_value: one\n"},
		{name: "bad multiplier", content: "engine:\n  payout_multiplier: x\n"},
		{name: "zero quorum", content: "engine:\n  min_responses: 0\n"},
		{name: "index range too small", content: "engine:\n  index_range: 2\n"},
		{name: "no owner", content: "genesis:\n  owner: \"\"\n"},
		{name: "bad port", content: "server:\n  port: 70000\n"},
		{name: "no oracles", content: "oracles:\n  count: 0\n"},
		{name: "malformed yaml", content: "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "surety.yaml", tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "SURETY_OWNER_NAME=Dotenv Air\n")
	t.Setenv("SURETY_OWNER_NAME", "")
	os.Unsetenv("SURETY_OWNER_NAME")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	t.Cleanup(func() { os.Unsetenv("SURETY_OWNER_NAME") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Dotenv Air", cfg.Genesis.OwnerName)
}
