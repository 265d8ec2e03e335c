package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")

	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "local", cfg.ObjectStoreType)
	assert.Equal(t, "@every 6h", cfg.ReconcileSchedule)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowOrigin)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 2*time.Minute, cfg.Worker.VisibilityTimeout)
}

func TestLoadWorkerSettings(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("WORKER_CONCURRENCY", "-3")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "5")
	t.Setenv("METRICS_ADDR", ":9100")

	cfg := Load()

	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Worker.ShutdownTimeout)
	assert.Equal(t, ":9100", cfg.Worker.MetricsAddr)
}

func TestLoadReadsEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("STRIPE_PRICE_ID_PRO_MONTHLY", "price_pro")
	t.Setenv("STRIPE_PRICE_ID_PRO_PLUS_MONTHLY", "price_plus")
	t.Setenv("BASE_URL", "https://app.example/")
	t.Setenv("LLM_PROVIDER", "google")

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "s3", cfg.ObjectStoreType)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigin)
	assert.Equal(t, "price_pro", cfg.StripePriceProID)
	assert.Equal(t, "price_plus", cfg.StripePriceProPlus)
	assert.Equal(t, "https://app.example", cfg.BaseURL)
	assert.Equal(t, "gemini", cfg.LLMProvider)
}

func TestLoadReadsDotenvWithoutOverridingEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REDIS_URL=redis://from-file:6379\nPORT=9999\n"), 0o600))
	t.Setenv("PORT", "7070")
	t.Setenv("REDIS_URL", "")
	require.NoError(t, os.Unsetenv("REDIS_URL"))

	cfg := Load()

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "redis://from-file:6379", cfg.RedisURL)
}

func TestIsDevLike(t *testing.T) {
	assert.True(t, IsDevLike("dev"))
	assert.True(t, IsDevLike(" Local "))
	assert.False(t, IsDevLike("production"))
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
