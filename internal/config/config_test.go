package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURLAndSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/storefront")
	_, err = Load("")
	assert.Error(t, err, "JWT_SECRET still missing")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "storefront.orders.events", cfg.KafkaTopic)
	assert.False(t, cfg.Production())
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"port: \"9090\"\ndatabase_url: postgres://file/db\njwt_secret: from-file\nenvironment: production\ncache_ttl_seconds: 120\n",
	), 0o600))

	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port, "env beats file")
	assert.Equal(t, "postgres://file/db", cfg.DatabaseURL)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.True(t, cfg.Production())
	assert.Equal(t, 120, cfg.CacheTTLSeconds)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	t.Setenv("JWT_SECRET", "x")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
}
