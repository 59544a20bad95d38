package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tinysql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "tinysql", cfg.AppName)
	require.Equal(t, "value", cfg.Index.MultiwayKey)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
	require.Empty(t, cfg.Metrics.Addr)
	require.NotEmpty(t, cfg.Storage.Root)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
app_name: shop
storage:
  root: /var/lib/tinysql
index:
  multiway_key: hash
log:
  level: debug
  format: json
metrics:
  addr: 127.0.0.1:9102
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "shop", cfg.AppName)
	require.Equal(t, "/var/lib/tinysql", cfg.Storage.Root)
	require.Equal(t, "hash", cfg.Index.MultiwayKey)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, "127.0.0.1:9102", cfg.Metrics.Addr)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("TINYSQL_STORAGE_ROOT", "/tmp/from-env")
	t.Setenv("TINYSQL_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(writeConfig(t, "storage:\n  root: /from/file\n"))
	require.NoError(t, err)
	require.Equal(t, "/tmp/from-env", cfg.Storage.Root)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "index:\n  multiway_key: sorted\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "validate config")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := &TinySQLConfig{}
	cfg.Log.Level = "warn"
	cfg.Log.Format = "json"

	var buf bytes.Buffer
	log := NewLogger(cfg, &buf)
	log.Info("hidden")
	log.Warn("shown", "table", "t")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)
	require.Contains(t, buf.String(), `"table":"t"`)
}
