package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_BACKEND", "SCYLLA_HOSTS", "CATALOG_CACHE_TTL", "LOW_STOCK_THRESHOLD", "SMTP_HOST", "MAIL_FROM"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "scylla", cfg.StoreBackend)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Scylla.Hosts)
	assert.Equal(t, 10*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.False(t, cfg.SMTP.Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Memory")
	t.Setenv("SCYLLA_HOSTS", "10.0.0.1, 10.0.0.2,")
	t.Setenv("SCYLLA_SSL_ENABLED", "TRUE")
	t.Setenv("CATALOG_CACHE_TTL", "30s")
	t.Setenv("LOW_STOCK_THRESHOLD", "pas-un-nombre")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("MAIL_FROM", "boutique@example.com")

	cfg := FromEnv()
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Scylla.Hosts)
	assert.True(t, cfg.Scylla.SSLEnabled)
	assert.Equal(t, 30*time.Second, cfg.CatalogCacheTTL)
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.True(t, cfg.SMTP.Enabled())
}
