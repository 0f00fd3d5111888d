package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// WriterStrategy defines interface for creating log writers
type WriterStrategy interface {
	CreateWriter(output io.Writer) io.Writer
}

// JSONWriterStrategy creates JSON formatted writers
type JSONWriterStrategy struct{}

// CreateWriter creates a JSON writer
func (jws *JSONWriterStrategy) CreateWriter(output io.Writer) io.Writer {
	return output
}

// ConsoleWriterStrategy creates console formatted writers
type ConsoleWriterStrategy struct {
	NoColor bool
}

// CreateWriter creates a console writer
func (cws *ConsoleWriterStrategy) CreateWriter(output io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
		NoColor:    cws.NoColor,
	}
}

// WriterFactory creates writers based on format
type WriterFactory struct {
	strategies map[LogFormat]WriterStrategy
	console    io.Writer
}

// NewWriterFactory creates a new writer factory
func NewWriterFactory() *WriterFactory {
	return &WriterFactory{
		strategies: map[LogFormat]WriterStrategy{
			FormatJSON:    &JSONWriterStrategy{},
			FormatConsole: &ConsoleWriterStrategy{NoColor: false},
			FormatText:    &ConsoleWriterStrategy{NoColor: true},
		},
		console: os.Stderr,
	}
}

// CreateConsoleWriter creates a console writer
func (wf *WriterFactory) CreateConsoleWriter(format LogFormat) io.Writer {
	strategy, exists := wf.strategies[format]
	if !exists {
		strategy = &ConsoleWriterStrategy{NoColor: false}
	}
	return strategy.CreateWriter(wf.console)
}

// CreateFileWriter creates a size-rotated file writer
func (wf *WriterFactory) CreateFileWriter(config LoggerConfig) io.Writer {
	_ = os.MkdirAll(filepath.Dir(config.FilePath), 0755)

	rotating := &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSizeMB,
		LocalTime:  true,
		MaxBackups: config.MaxBackups,
	}

	// Files never get ANSI colors.
	if config.Format == FormatConsole || config.Format == FormatText {
		return (&ConsoleWriterStrategy{NoColor: true}).CreateWriter(rotating)
	}
	return (&JSONWriterStrategy{}).CreateWriter(rotating)
}
