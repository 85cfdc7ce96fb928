// Package logging builds the zap loggers used by fincoach.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// New returns a production JSON logger. An empty path logs to stderr;
// otherwise entries are appended to the file at path.
func New(path string, debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// Window is the log field naming a budget month, e.g. "MAR 2024".
func Window(label string) zap.Field {
	return zap.String("window", label)
}

// Endpoint is the log field naming a backend path.
func Endpoint(path string) zap.Field {
	return zap.String("endpoint", path)
}

// Epoch is the log field carrying a month cursor epoch.
func Epoch(e uint64) zap.Field {
	return zap.Uint64("epoch", e)
}
