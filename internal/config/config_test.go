package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigUsesDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "MODEL_DIR", "LOG_FORMAT", "CORS_ORIGINS", "RISK_THRESHOLD", "PRELOAD_MODELS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 75, cfg.RiskThreshold)
	assert.True(t, cfg.PreloadModels)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, "models", filepath.Base(cfg.ModelDir))
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MODEL_DIR", "/srv/models")
	t.Setenv("LOG_FORMAT", "ECS")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PRELOAD_MODELS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/srv/models", cfg.ModelDir)
	assert.Equal(t, "ecs", cfg.LogFormat)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.PreloadModels)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("RISK_THRESHOLD", "101")
	_, err = Load()
	assert.Error(t, err)
}

func TestDetectModelDirWalksUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "models"), 0o755))
	nested := filepath.Join(root, "cmd", "server")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	got, err := filepath.EvalSymlinks(detectModelDir())
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(filepath.Join(root, "models"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadConfigRateLimit(t *testing.T) {
	t.Setenv("API_RATE_LIMIT", "5")
	t.Setenv("API_RATE_BURST", "10")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.APIRateLimit)
	assert.Equal(t, 10, cfg.APIRateBurst)

	t.Setenv("API_RATE_BURST", "0")
	_, err = Load()
	assert.Error(t, err)
}
