package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogLevel = "info"

// NewApplicationLogger constructs a zap logger configured for human-readable console output on
// standard error. Verbose forces debug level; otherwise levelName ("debug", "info", "warn", "error")
// applies, defaulting to info.
func NewApplicationLogger(levelName string, verbose bool) (*zap.Logger, error) {
	level, levelErr := parseLogLevel(levelName)
	if levelErr != nil {
		return nil, levelErr
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	return config.Build()
}

func parseLogLevel(levelName string) (zapcore.Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(levelName))
	if trimmed == "" {
		trimmed = defaultLogLevel
	}
	var level zapcore.Level
	if unmarshalErr := level.UnmarshalText([]byte(trimmed)); unmarshalErr != nil {
		return zapcore.InfoLevel, fmt.Errorf("unsupported log level %q", levelName)
	}
	return level, nil
}
