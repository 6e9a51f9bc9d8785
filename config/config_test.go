package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "public", cfg.Storage.LocalRoot)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("STORAGE_S3_BUCKET", "recipeshare-pictures")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "recipeshare-pictures", cfg.Storage.S3Bucket)
	assert.Contains(t, cfg.DB.DSN(), "host=db.internal")
	assert.Contains(t, cfg.DB.DSN(), "password=s3cret")
}
