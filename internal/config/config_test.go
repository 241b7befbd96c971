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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "seeker-research", cfg.Temporal.TaskQueue)
	assert.Equal(t, 2, cfg.Research.MaxIterations)
	assert.Equal(t, 3, cfg.Research.MaxSubQueries)
	assert.Equal(t, 10*time.Second, cfg.Research.SearchTimeout)
	assert.Equal(t, "tavily", cfg.Search.Provider)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seeker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  provider: brave
research:
  max_iterations: 3
  run_deadline: 40s
redis:
  enabled: true
  addr: redis.internal:6379
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "brave", cfg.Search.Provider)
	assert.Equal(t, 3, cfg.Research.MaxIterations)
	assert.Equal(t, 40*time.Second, cfg.Research.RunDeadline)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	// untouched defaults survive partial files
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seeker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  provider: altavista\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown search provider")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SEEKER_TEMPORAL_TASK_QUEUE", "queue-from-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "queue-from-env", cfg.Temporal.TaskQueue)
}
