// Package logger wraps zap for the driver's structured log lines. Unlike a
// long-running server, this CLI has no config file to read a log level
// from — the package's init calls InitLogger once at info level, and the
// driver does not reconfigure it.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var defaultLogger *zap.Logger

func init() {
	InitLogger(InfoLevel)
}

// InitLogger (re)configures the package-level logger to write to stderr
// at the given level, so stdout stays reserved for the grep-stable
// benchmark output lines the driver contract requires.
func InitLogger(level string) {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case DebugLevel:
		zapLevel = zapcore.DebugLevel
	case WarnLevel:
		zapLevel = zapcore.WarnLevel
	case ErrorLevel:
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		zapLevel,
	)

	defaultLogger = zap.New(core, zap.AddCaller())
}

func Debug(msg string, fields ...interface{}) { defaultLogger.Sugar().Debugw(msg, fields...) }
func Info(msg string, fields ...interface{})  { defaultLogger.Sugar().Infow(msg, fields...) }
func Warn(msg string, fields ...interface{})  { defaultLogger.Sugar().Warnw(msg, fields...) }
func Error(msg string, fields ...interface{}) { defaultLogger.Sugar().Errorw(msg, fields...) }
func Fatal(msg string, fields ...interface{}) { defaultLogger.Sugar().Fatalw(msg, fields...) }

// Sync flushes any buffered log entries; call before process exit.
func Sync() error { return defaultLogger.Sync() }
