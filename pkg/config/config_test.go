package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Pipeline.BatchSize)
	assert.Equal(t, "tolerate", cfg.Pipeline.ItemFailurePolicy)
	assert.Equal(t, []string{"en", "vi"}, cfg.Pipeline.CaptionLanguages)
	assert.Equal(t, "course-media", cfg.Minio.BucketName)
	assert.Equal(t, 8083, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Compute.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Redis.DedupTTL)
}

func TestLoadDevConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.dev.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "course.publish.requests", cfg.Kafka.Topics.PublishRequests)
	assert.Equal(t, "http://127.0.0.1:8083", cfg.Webhook.PublicBaseURL)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: Postgres\nminio:\n  access_key: legacy\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.Kafka.Enabled)
	assert.True(t, cfg.Kafka.CommitOnDecodeError)
	assert.False(t, cfg.Kafka.CommitOnProcessError)
	assert.Equal(t, "legacy", cfg.Minio.AccessKeyID)
	assert.Equal(t, "hls", cfg.Pipeline.TranscodePrefix)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGlobalConfig(t *testing.T) {
	prev := GetGlobalConfig()
	t.Cleanup(func() { SetGlobalConfig(prev) })

	cfg := Default()
	SetGlobalConfig(cfg)
	assert.Same(t, cfg, GetGlobalConfig())
}
