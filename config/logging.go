package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It discards everything until InitLogger
// enables debug logging.
var Log = zap.NewNop()

func CheckDebug() bool {
	debug := os.Getenv("DESKMATE_DEBUG")
	return debug == "true" || debug == "1"
}

// InitLogger points Log at <dataDir>/debug.log when debugging is enabled by
// force or by DESKMATE_DEBUG. Log entries never go to the terminal, which
// belongs to the UI.
func InitLogger(dataDir string, force bool) {
	if !force && !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - may contain user messages
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	Log = newFileLogger(zapcore.AddSync(f), zapcore.DebugLevel)
	Log.Info("debug logging enabled", zap.String("path", logPath))
}

func newFileLogger(w zapcore.WriteSyncer, level zapcore.Level) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), w, level)
	return zap.New(core, zap.AddCaller())
}
