package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/tree-sampler/internal/config"
)

// FileName is the diagnostic log inside .sampler/logs.
const FileName = "sampler.log"

// New returns a JSON zap logger appending to .sampler/logs/sampler.log under
// projectDir. The terminal stays free for the TUI; users can inspect the file
// after the session closes.
func New(projectDir string, verbose bool) (*zap.Logger, error) {
	logDir := filepath.Join(projectDir, config.SamplerDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{filepath.Join(logDir, FileName)}
	cfg.ErrorOutputPaths = []string{filepath.Join(logDir, FileName)}
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger.Named("sampler"), nil
}
