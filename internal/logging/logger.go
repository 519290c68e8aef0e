// Package logging builds the analyzer's zap logger: a rotated JSON file
// plus a stdout stream whose encoding follows the runtime environment.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFile        = "logs/analyzer.log"
	fileMaxSizeMB  = 50
	fileMaxBackups = 10
	fileMaxAgeDays = 30
)

// Build creates the logger for the given environment and level. The file
// sink is always JSON and rotated; stdout is human-readable console output
// in development and JSON elsewhere.
func Build(env, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		return nil, fmt.Errorf("creating logs directory: %w", err)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
		MaxAge:     fileMaxAgeDays,
		Compress:   true,
	}

	fileCfg := zap.NewProductionEncoderConfig()
	fileCfg.TimeKey = "ts"
	fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var stdoutEncoder zapcore.Encoder
	if isDevelopment(env) {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stdoutEncoder = zapcore.NewConsoleEncoder(consoleCfg)
	} else {
		stdoutEncoder = zapcore.NewJSONEncoder(fileCfg)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			zapcore.AddSync(fileWriter),
			lvl,
		),
		zapcore.NewCore(
			stdoutEncoder,
			zapcore.AddSync(os.Stdout),
			lvl,
		),
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func isDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
