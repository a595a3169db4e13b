// Package logging builds the zap logger shared by the engine, lifecycle,
// and both transports, the way fyrsmithlabs-contextd wires zap in its
// examples (zap.NewDevelopment() for interactive runs, a configured
// production core otherwise).
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap.Logger writing to stderr, or to
// debugPath if non-empty. STDIO transports must never log to stdout —
// that stream is reserved for NDJSON protocol responses.
func New(debugPath string) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	writer := zapcore.AddSync(os.Stderr)
	if debugPath != "" {
		f, err := os.OpenFile(debugPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening debug log %s: %w", debugPath, err)
		}
		writer = zapcore.AddSync(f)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, zapcore.InfoLevel)
	return zap.New(core), nil
}
