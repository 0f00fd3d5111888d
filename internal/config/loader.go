package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
)

// ConfigPathEnv names the environment variable consulted by GetConfigPath.
const ConfigPathEnv = "PAGEWATCH_CONFIG_PATH"

// GetConfigPath determines the configuration file path.
// Priority:
// 1. --config command-line flag
// 2. PAGEWATCH_CONFIG_PATH environment variable
// 3. config.yaml / config.json in the current working directory
// 4. config.yaml / config.json in the executable's directory
func GetConfigPath(configFilePathFlag string) string {
	if configFilePathFlag != "" {
		if fileExists(configFilePathFlag) {
			return configFilePathFlag
		}
		return ""
	}

	if envPath := os.Getenv(ConfigPathEnv); envPath != "" && fileExists(envPath) {
		return envPath
	}

	cwd, errCwd := os.Getwd()
	exePath, errExe := os.Executable()
	exeDir := ""
	if errExe == nil {
		exeDir = filepath.Dir(exePath)
	}

	defaultFiles := []string{"config.yaml", "config.json"}
	locations := []string{}

	if errCwd == nil {
		locations = append(locations, cwd)
	}
	if exeDir != "" && (errCwd == nil || exeDir != cwd) {
		locations = append(locations, exeDir)
	}

	for _, loc := range locations {
		for _, file := range defaultFiles {
			path := filepath.Join(loc, file)
			if fileExists(path) {
				return path
			}
		}
	}
	return ""
}

// envOverrides lists the settings that deployments usually tweak without a file.
type envOverrides struct {
	ListenAddr           string `env:"PAGEWATCH_LISTEN_ADDR"`
	DatabasePath         string `env:"PAGEWATCH_DATABASE_PATH"`
	LogLevel             string `env:"PAGEWATCH_LOG_LEVEL"`
	CheckIntervalSeconds int    `env:"PAGEWATCH_CHECK_INTERVAL_SECONDS"`
	DiscordWebhookURL    string `env:"PAGEWATCH_DISCORD_WEBHOOK_URL"`
}

func applyEnvOverrides(cfg *GlobalConfig) error {
	return applyEnvOverridesFrom(cfg, envconfig.OsLookuper())
}

func applyEnvOverridesFrom(cfg *GlobalConfig, lookuper envconfig.Lookuper) error {
	var env envOverrides
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &env,
		Lookuper: lookuper,
	}); err != nil {
		return err
	}

	if env.ListenAddr != "" {
		cfg.ServerConfig.ListenAddr = env.ListenAddr
	}
	if env.DatabasePath != "" {
		cfg.StorageConfig.DatabasePath = env.DatabasePath
	}
	if env.LogLevel != "" {
		cfg.LogConfig.LogLevel = env.LogLevel
	}
	if env.CheckIntervalSeconds > 0 {
		cfg.MonitorConfig.CheckIntervalSeconds = env.CheckIntervalSeconds
	}
	if env.DiscordWebhookURL != "" {
		cfg.NotificationConfig.DiscordWebhookURL = env.DiscordWebhookURL
	}
	return nil
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
