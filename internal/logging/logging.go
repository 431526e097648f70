// Package logging builds the service's loggers.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
)

// New returns a colored debug logger in development and a JSON logger
// otherwise.
func New(w io.Writer, development bool) *slog.Logger {
	var handler slog.Handler = slog.NewJSONHandler(w, nil)
	if development {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.TimeOnly,
		})
	}
	return slog.New(handler)
}

// SetupEngine configures a logrus logger such as the board engine's. When
// path is not empty its entries also go to a size-rotated JSON file.
func SetupEngine(log *logrus.Logger, development bool, path string) error {
	level := logrus.InfoLevel
	if development {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{ForceColors: development})

	if path == "" {
		return nil
	}

	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     7, // days
		Level:      level,
		Formatter:  &logrus.JSONFormatter{TimestampFormat: time.RFC3339},
	})
	if err != nil {
		return fmt.Errorf("unable to create log file hook: %w", err)
	}
	log.AddHook(hook)
	return nil
}
