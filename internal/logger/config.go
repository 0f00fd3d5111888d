package logger

import (
	"strings"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
)

// LoggerConfig holds configuration for logger setup
type LoggerConfig struct {
	Level         zerolog.Level
	Format        LogFormat
	EnableConsole bool
	EnableFile    bool
	FilePath      string
	MaxSizeMB     int
	MaxBackups    int
}

// LogFormat represents available log formats
type LogFormat int

const (
	FormatJSON LogFormat = iota
	FormatConsole
	FormatText
)

// String returns string representation of LogFormat
func (lf LogFormat) String() string {
	switch lf {
	case FormatJSON:
		return "json"
	case FormatConsole:
		return "console"
	case FormatText:
		return "text"
	default:
		return "console"
	}
}

// DefaultLoggerConfig returns default logger configuration
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:         zerolog.InfoLevel,
		Format:        FormatConsole,
		EnableConsole: true,
		EnableFile:    false,
		MaxSizeMB:     config.DefaultMaxLogSizeMB,
		MaxBackups:    config.DefaultMaxLogBackups,
	}
}

// ParseLevel parses string log level to zerolog.Level
func ParseLevel(levelStr string) (zerolog.Level, error) {
	if levelStr == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return zerolog.InfoLevel, common.WrapError(err, "invalid log level")
	}
	return level, nil
}

// ParseFormat parses string format to LogFormat
func ParseFormat(formatStr string) LogFormat {
	switch strings.ToLower(formatStr) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}

// ConvertConfig converts application config to logger config
func ConvertConfig(cfg config.LogConfig) LoggerConfig {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	maxSize := cfg.MaxLogSizeMB
	if maxSize <= 0 {
		maxSize = config.DefaultMaxLogSizeMB
	}
	maxBackups := cfg.MaxLogBackups
	if maxBackups <= 0 {
		maxBackups = config.DefaultMaxLogBackups
	}

	return LoggerConfig{
		Level:         level,
		Format:        ParseFormat(cfg.LogFormat),
		EnableConsole: true,
		EnableFile:    cfg.LogFile != "",
		FilePath:      cfg.LogFile,
		MaxSizeMB:     maxSize,
		MaxBackups:    maxBackups,
	}
}
