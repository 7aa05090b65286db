// Package logging configures the application logger. The TUI owns the
// terminal, so all logs go to a file under the state directory.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a file-backed logger writing to cicada.log in dir. If the file
// cannot be opened the returned logger is a no-op; the client stays usable
// without logs.
func New(dir string, debug bool) *zap.Logger {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return zap.NewNop()
	}

	f, err := os.OpenFile(filepath.Join(dir, "cicada.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return zap.NewNop()
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level)
	return zap.New(core)
}
