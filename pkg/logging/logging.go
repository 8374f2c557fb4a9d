// Package logging points the standard logger at stdout and, when configured,
// a rotating log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/CNES/opensand-sub000/pkg/config"
)

// Setup configures the standard logger for the binary named app. The
// returned closer releases the log file.
func Setup(app string, cfg *config.LogConfig) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix(app + " ")

	if cfg == nil || cfg.File == "" {
		log.SetOutput(os.Stdout)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	log.SetOutput(io.MultiWriter(os.Stdout, w))

	return w, nil
}
