package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// Server Defaults
	DefaultServerListenAddr      = ":8080"
	DefaultServerReadTimeoutSecs = 15
	DefaultServerPreviewCache    = 256

	// Monitor Defaults
	DefaultMonitorCheckIntervalSeconds = 60
	DefaultMonitorWakeIntervalMs       = 1000
	DefaultMonitorMaxConcurrentChecks  = 4
	DefaultMonitorAuditName            = "checkLinks"

	// HTTP client Defaults
	DefaultHTTPClientTimeoutSecs    = 30
	DefaultHTTPClientMaxContentSize = 5 * 1024 * 1024
	DefaultHTTPClientUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Storage Defaults
	DefaultStorageDatabasePath = "database/pagewatch.db"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Diagnostics Defaults
	DefaultDiagnosticsMaxProfiles = 5

	maxConfigFileSize = 10 * 1024 * 1024
)

type GlobalConfig struct {
	AuthConfig         AuthConfig         `json:"auth_config,omitempty" yaml:"auth_config,omitempty"`
	DiagnosticsConfig  DiagnosticsConfig  `json:"diagnostics_config,omitempty" yaml:"diagnostics_config,omitempty"`
	HTTPClientConfig   HTTPClientConfig   `json:"http_client_config,omitempty" yaml:"http_client_config,omitempty"`
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	MonitorConfig      MonitorConfig      `json:"monitor_config,omitempty" yaml:"monitor_config,omitempty"`
	NormalizerConfig   NormalizerConfig   `json:"normalizer_config,omitempty" yaml:"normalizer_config,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	ServerConfig       ServerConfig       `json:"server_config,omitempty" yaml:"server_config,omitempty"`
	StorageConfig      StorageConfig      `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
}

func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		AuthConfig:         NewDefaultAuthConfig(),
		DiagnosticsConfig:  NewDefaultDiagnosticsConfig(),
		HTTPClientConfig:   NewDefaultHTTPClientConfig(),
		LogConfig:          NewDefaultLogConfig(),
		MonitorConfig:      NewDefaultMonitorConfig(),
		NormalizerConfig:   NewDefaultNormalizerConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
		ServerConfig:       NewDefaultServerConfig(),
		StorageConfig:      NewDefaultStorageConfig(),
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath, supports both JSON and YAML formats.
// YAML is preferred if the file extension is .yaml or .yml. Environment
// overrides are applied last.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		if providedPath != "" {
			return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
		}
		logger.Debug().Msg("No config file found, using defaults")
		return cfg, applyEnvOverrides(cfg)
	}

	data, err := loadConfigFileContent(filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}
	logger.Debug().Str("path", filePath).Msg("Loaded config file")

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, common.WrapError(err, "failed to apply environment overrides")
	}

	return cfg, nil
}

func loadConfigFileContent(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigFileSize {
		return nil, common.NewValidationError("config_file", filePath, "config file too large")
	}
	return os.ReadFile(filePath)
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}
