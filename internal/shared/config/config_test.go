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

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "X-User-ID", cfg.Server.UserHeader)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5*time.Second, cfg.Ledger.UnitTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
	assert.Equal(t, 50, cfg.Ledger.BillRewardPoints)
	assert.Equal(t, "Bill Payment Rewards", cfg.Ledger.BillRewardProgram)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("LEDGER_UNIT_TIMEOUT", "10s")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "3s")
	t.Setenv("REDIS_ENABLED", "yes")
	t.Setenv("ALLOWED_HOSTS", "a.example.com, b.example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Ledger.UnitTimeout)
	assert.Equal(t, 3*time.Second, cfg.Ledger.LockTimeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.Server.AllowedHosts)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad db port", map[string]string{"DB_PORT": "not-a-number"}},
		{"bad driver", map[string]string{"STORE_DRIVER": "sqlite"}},
		{"bad unit timeout", map[string]string{"LEDGER_UNIT_TIMEOUT": "soon"}},
		{"lock exceeds unit", map[string]string{"LEDGER_UNIT_TIMEOUT": "1s", "LEDGER_LOCK_TIMEOUT": "2s"}},
		{"negative reward", map[string]string{"BILL_REWARD_POINTS": "-1"}},
		{"threshold out of range", map[string]string{"BUDGET_ALERT_THRESHOLD": "1.5"}},
		{"tls without cert", map[string]string{"TLS_ENABLED": "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "bank", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=bank sslmode=disable", c.ConnectionString())
	assert.Equal(t, "postgres://u:p@db:5433/bank?sslmode=disable", c.URL())
}
