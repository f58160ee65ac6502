// Package obslog constructs the zap logger used across the engine bootstrap and CLI, and
// tags every run with a correlation id the way the teacher's session.ClientRegistry mints an
// identifier per registered client.
package obslog

import (
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger writing structured, leveled output to stderr (so passthrough
// stdout stays clean for the guest's own writes, per spec section 4.5). verbose selects
// debug-level output; otherwise info-level and above.
func New(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

// NewRunID mints a fresh correlation id for one engine run, attached to every log line the
// engine and interception layer emit for that run.
func NewRunID() string {
	return uuid.NewString()
}

// WithRun returns logger scoped with the run id and mode ("record" or "replay") fields.
func WithRun(logger *zap.Logger, runID, mode string) *zap.Logger {
	return logger.With(zap.String("run_id", runID), zap.String("mode", mode))
}
