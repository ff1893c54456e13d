package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"profily/internal/gateway/config"
)

// Init configures the standard logrus logger from cfg and returns it.
func Init(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.StandardLogger()
	Configure(logger, cfg)
	return logger
}

// Configure applies level, format and output settings to logger.
func Configure(logger *logrus.Logger, cfg config.LogConfig) {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", cfg.Level, err)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	var output io.Writer
	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			logger.Warnf("Failed to open log file '%s', using 'stdout' instead. Error: %v", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}
	logger.SetOutput(output)
}
