package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediagate/pkg/config"

	"github.com/stretchr/testify/assert"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 15*time.Minute, cfg.Signing.TTLFloor)
	assert.Equal(t, 60*time.Minute, cfg.Signing.TTLCeiling)
	assert.Equal(t, 30*time.Minute, cfg.Signing.TTLDefault)
	assert.Equal(t, 60*time.Second, cfg.Signing.RefreshBuffer)
	assert.Equal(t, 45*time.Second, cfg.Signing.RevalidateInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_UsesDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := config.Load("non-existent-config.yaml")
	assert.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30*time.Minute, cfg.Signing.TTLDefault)
}

func TestLoad_LoadsFromYAML(t *testing.T) {
	path := writeTempConfig(t, `
server:
  address: ":9999"

signing:
  binding_secret: "test-secret"
  ttl_floor: 10m
  ttl_ceiling: 45m
  ttl_default: 20m
  refresh_buffer: 30s
  revalidate_interval: 15s

storage:
  bucket: "content"
`)

	cfg, err := config.Load(path)
	assert.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, 45*time.Minute, cfg.Signing.TTLCeiling)
	assert.Equal(t, "content", cfg.Storage.Bucket)
}

func TestLoad_RejectsInvalidYAML(t *testing.T) {
	path := writeTempConfig(t, `
signing:
  ttl_floor: 30m
  ttl_ceiling: 15m
`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestValidate_TTLBounds(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Signing.TTLCeiling = 10 * time.Minute // below floor
	assert.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.Signing.TTLDefault = 2 * time.Hour // above ceiling
	assert.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.Signing.RefreshBuffer = 20 * time.Minute // >= floor
	assert.Error(t, cfg.Validate())
}

func TestValidate_VideoSignerRequired(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Signing.VideoPrivateKey = ""
	cfg.StreamCDN.TokenEndpoint = ""
	assert.Error(t, cfg.Validate())

	cfg.Signing.VideoPrivateKey = "/etc/mediagate/video.pem"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RedisRequiresAddress(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = ""
	assert.Error(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MEDIAGATE_BINDING_SECRET", "env-secret")
	t.Setenv("MEDIAGATE_LOG_LEVEL", "debug")

	cfg, err := config.Load("non-existent-config.yaml")
	assert.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Signing.BindingSecret)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
