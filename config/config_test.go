package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "verify_jobs", cfg.Queue.Key)
	assert.Equal(t, "verify_jobs:processing", cfg.Queue.ProcessingKey)
	assert.Equal(t, 5000, cfg.Queue.RecoverMax)
	assert.Equal(t, 5*time.Second, cfg.Queue.BlockTimeout)
	assert.Equal(t, "sleep", cfg.Queue.DelayMode)
	assert.Equal(t, 5, cfg.Verify.MaxAttempts)
	assert.Equal(t, "sui", cfg.Verify.Chain)
	assert.Equal(t, uint64(50_000_000), cfg.Sui.GasBudget)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("QUEUE_KEY", "anchors")
	t.Setenv("QUEUE_DELAY_MODE", "Scheduled")
	t.Setenv("QUEUE_BLOCK_TIMEOUT", "2s")
	t.Setenv("VERIFY_MAX_ATTEMPTS", "3")
	t.Setenv("SUI_GAS_BUDGET", "7000000")
	t.Setenv("PROOF_CHAIN", "SUI")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "anchors", cfg.Queue.Key)
	assert.Equal(t, "anchors:processing", cfg.Queue.ProcessingKey)
	assert.Equal(t, "scheduled", cfg.Queue.DelayMode)
	assert.Equal(t, 2*time.Second, cfg.Queue.BlockTimeout)
	assert.Equal(t, 3, cfg.Verify.MaxAttempts)
	assert.Equal(t, uint64(7_000_000), cfg.Sui.GasBudget)
	assert.Equal(t, "sui", cfg.Verify.Chain)
}

func TestLoad_IgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("VERIFY_MAX_ATTEMPTS", "many")
	t.Setenv("QUEUE_ERROR_BACKOFF", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Verify.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Queue.ErrorBackoff)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "same keys", mutate: func(c *Config) { c.Queue.ProcessingKey = c.Queue.Key }},
		{name: "unknown delay mode", mutate: func(c *Config) { c.Queue.DelayMode = "lazy" }},
		{name: "no chain", mutate: func(c *Config) { c.Verify.Chain = "" }},
		{name: "no database host", mutate: func(c *Config) { c.Database.Host = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateWorker_RequiresSuiTarget(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Error(t, cfg.ValidateWorker())

	cfg.Sui.PackageID = "0xabc"
	assert.NoError(t, cfg.ValidateWorker())
}

func TestClientOptions(t *testing.T) {
	r := RedisConfig{URL: "redis://:secret@cache:6380/2", PoolSize: 4}
	opts, err := r.ClientOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 4, opts.PoolSize)

	r = RedisConfig{Host: "localhost", Port: "6379", DB: 1}
	opts, err = r.ClientOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 1, opts.DB)

	_, err = (&RedisConfig{URL: "http://nope"}).ClientOptions()
	assert.Error(t, err)
}
