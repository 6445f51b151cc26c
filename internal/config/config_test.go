package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 25, cfg.DBMaxOpenConnections)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "mailmind", cfg.MetricsNamespace)
	assert.Equal(t, 1500*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 20, cfg.OutboxBatchSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.SyncPollInterval)
	assert.Equal(t, 5, cfg.SyncBatchSize)
	assert.Equal(t, 50, cfg.SyncFetchLimit)
	assert.Equal(t, 5*time.Minute, cfg.OutboxClaimLease)
	assert.Equal(t, 10*time.Minute, cfg.SyncClaimLease)
	assert.Empty(t, cfg.CredentialKeyURI)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("OUTBOX_BATCH_SIZE", "3")
	t.Setenv("SYNC_FETCH_LIMIT", "10")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CREDENTIAL_KEY_URI", "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4=")

	cfg := Load()

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 3, cfg.OutboxBatchSize)
	assert.Equal(t, 10, cfg.SyncFetchLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NotEmpty(t, cfg.CredentialKeyURI)
}
