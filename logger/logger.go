// Package logger builds the process zap logger: a rotated file plus an optional stderr tee.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Stderr modes
const (
	StderrAuto   = "auto"   // Tee to stderr only when it is a terminal
	StderrAlways = "always" // Always tee
	StderrNever  = "never"
)

// Config controls logger construction
type Config struct {
	Level      string `toml:"level"`  // debug, info, warn, error
	Format     string `toml:"format"` // console or json
	File       string `toml:"file"`   // Empty disables file output
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
	Stderr     string `toml:"stderr"`
}

// DefaultConfig writes info-level console logs to logs/textray.log
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		File:       "logs/textray.log",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Stderr:     StderrAuto,
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// New builds a logger from cfg; with no sink enabled it returns a no-op logger
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig())
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var cores []zapcore.Core
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(lj), level))
	}
	if teeStderr(cfg.Stderr) {
		// Console output stays human readable regardless of file format
		console := zapcore.NewConsoleEncoder(encoderConfig())
		cores = append(cores, zapcore.NewCore(console, zapcore.Lock(os.Stderr), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func teeStderr(mode string) bool {
	switch strings.ToLower(mode) {
	case StderrAlways:
		return true
	case StderrNever:
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
