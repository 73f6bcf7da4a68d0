package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rpggio/uploadtrack/internal/config"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"UPLOADTRACK_CONFIG_PATH",
		"UPLOADTRACK_SERVER_HOST",
		"UPLOADTRACK_SERVER_PORT",
		"UPLOADTRACK_LOG_LEVEL",
		"UPLOADTRACK_TRANSPORT_MODE",
		"UPLOADTRACK_AUTH_ENABLED",
		"UPLOADTRACK_AUTH_TOKEN",
		"UPLOADTRACK_UPLOADS_MAX_SIZE_BYTES",
		"UPLOADTRACK_UPLOADS_ACCEPTED_TYPES",
		"UPLOADTRACK_JOURNAL_BUFFER",
	} {
		t.Setenv(key, "")
	}
	// An empty DB path is meaningful, so it must be truly unset.
	t.Setenv("UPLOADTRACK_DB_PATH", "")
	require.NoError(t, os.Unsetenv("UPLOADTRACK_DB_PATH"))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "uploadtrack.db", cfg.DB.Path)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, int64(5<<20), cfg.Uploads.MaxSizeBytes)
	require.Equal(t, config.DefaultAcceptedTypes, cfg.Uploads.AcceptedTypes)
	require.False(t, cfg.Auth.Enabled)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
db:
  path: /tmp/journal.db
auth:
  enabled: true
  token: from-file
uploads:
  max_size_bytes: 1024
  accepted_types: [text/plain]
`), 0o600))
	t.Setenv("UPLOADTRACK_CONFIG_PATH", path)
	t.Setenv("UPLOADTRACK_AUTH_TOKEN", "from-env")
	t.Setenv("UPLOADTRACK_UPLOADS_ACCEPTED_TYPES", "application/pdf, text/plain")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "/tmp/journal.db", cfg.DB.Path)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "from-env", cfg.Auth.Token)
	require.Equal(t, int64(1024), cfg.Uploads.MaxSizeBytes)
	require.Equal(t, []string{"application/pdf", "text/plain"}, cfg.Uploads.AcceptedTypes)
}

func TestLoad_EmptyDBPathDisablesJournal(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPLOADTRACK_DB_PATH", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Empty(t, cfg.DB.Path)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "port", key: "UPLOADTRACK_SERVER_PORT", val: "abc"},
		{name: "port range", key: "UPLOADTRACK_SERVER_PORT", val: "70000"},
		{name: "mode", key: "UPLOADTRACK_TRANSPORT_MODE", val: "grpc"},
		{name: "auth flag", key: "UPLOADTRACK_AUTH_ENABLED", val: "maybe"},
		{name: "auth without token", key: "UPLOADTRACK_AUTH_ENABLED", val: "true"},
		{name: "size", key: "UPLOADTRACK_UPLOADS_MAX_SIZE_BYTES", val: "big"},
		{name: "buffer", key: "UPLOADTRACK_JOURNAL_BUFFER", val: "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPLOADTRACK_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.Load()
	require.ErrorContains(t, err, "read config file")
}
