// Package logging - slog setup shared by the CLI and the exporter.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const (
	// LevelTrace is below debug and logs every written file.
	LevelTrace = slog.Level(-8)
	// LevelFatal is reserved for errors that abort the run.
	LevelFatal = slog.Level(12)
)

// Format names accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// ParseLevel maps a level name onto a slog.Level. Matching is case-insensitive.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "fatal":
		return LevelFatal, nil
	}
	return 0, errors.Errorf("unknown log level %q", name)
}

// New creates a logger writing to w.
//
// Arguments:
//   - w: The destination, usually os.Stderr.
//   - level: The minimum level to log.
//   - format: FormatText for humans or FormatJSON for machines.
//
// Returns:
//   - *slog.Logger: The logger.
//   - error: If the format is unknown.
func New(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	}

	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, errors.Errorf("unknown log format %q", format)
}

// Init builds a stderr logger from level and format names and installs it as
// the slog default.
func Init(level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger, err := New(os.Stderr, lvl, format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: LevelFatal + 1}))
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	if label, exists := levelNames[level]; exists {
		a.Value = slog.StringValue(label)
	}
	return a
}
