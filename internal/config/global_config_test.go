package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, DefaultServerListenAddr, cfg.ServerConfig.ListenAddr)
	assert.Equal(t, 60*time.Second, cfg.MonitorConfig.CheckInterval())
	assert.Equal(t, time.Second, cfg.MonitorConfig.WakeInterval())
	assert.Equal(t, "checkLinks", cfg.MonitorConfig.AuditName)
	assert.Equal(t, 30*time.Second, cfg.HTTPClientConfig.Timeout())
	assert.Zero(t, cfg.HTTPClientConfig.MaxRetries)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_NoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadGlobalConfig("", zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, DefaultStorageDatabasePath, cfg.StorageConfig.DatabasePath)
}

func TestLoadGlobalConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadGlobalConfig("/nonexistent/config.json", zerolog.Nop())

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadGlobalConfig_YAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	configData := `
server_config:
  listen_addr: "127.0.0.1:9999"
monitor_config:
  enabled: true
  check_interval_seconds: 300
  max_concurrent_checks: 2
log_config:
  log_level: debug
  log_format: json
`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.ServerConfig.ListenAddr)
	assert.Equal(t, 5*time.Minute, cfg.MonitorConfig.CheckInterval())
	assert.Equal(t, 2, cfg.MonitorConfig.MaxConcurrentChecks)
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
	// untouched sections keep defaults
	assert.Equal(t, DefaultStorageDatabasePath, cfg.StorageConfig.DatabasePath)
}

func TestLoadGlobalConfig_JSONFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")
	configData := `{"storage_config": {"database_path": "/tmp/links.db"}}`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, "/tmp/links.db", cfg.StorageConfig.DatabasePath)
}

func TestLoadGlobalConfig_InvalidJSON(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configFile, []byte(`{"storage_config": `), 0644))

	_, err := LoadGlobalConfig(configFile, zerolog.Nop())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config content")
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	lookuper := envconfig.MapLookuper(map[string]string{
		"PAGEWATCH_LISTEN_ADDR":            ":7000",
		"PAGEWATCH_CHECK_INTERVAL_SECONDS": "120",
		"PAGEWATCH_LOG_LEVEL":              "warn",
	})

	require.NoError(t, applyEnvOverridesFrom(cfg, lookuper))

	assert.Equal(t, ":7000", cfg.ServerConfig.ListenAddr)
	assert.Equal(t, 120, cfg.MonitorConfig.CheckIntervalSeconds)
	assert.Equal(t, "warn", cfg.LogConfig.LogLevel)
	assert.Equal(t, DefaultStorageDatabasePath, cfg.StorageConfig.DatabasePath)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *GlobalConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *GlobalConfig) {},
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *GlobalConfig) { cfg.LogConfig.LogLevel = "loud" },
			wantErr: "loglevel",
		},
		{
			name:    "bad log format",
			mutate:  func(cfg *GlobalConfig) { cfg.LogConfig.LogFormat = "xml" },
			wantErr: "logformat",
		},
		{
			name:    "negative interval",
			mutate:  func(cfg *GlobalConfig) { cfg.MonitorConfig.CheckIntervalSeconds = -10 },
			wantErr: "CheckIntervalSeconds",
		},
		{
			name:    "missing database path",
			mutate:  func(cfg *GlobalConfig) { cfg.StorageConfig.DatabasePath = "" },
			wantErr: "DatabasePath",
		},
		{
			name:    "invalid webhook",
			mutate:  func(cfg *GlobalConfig) { cfg.NotificationConfig.DiscordWebhookURL = "not a url" },
			wantErr: "DiscordWebhookURL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultGlobalConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
