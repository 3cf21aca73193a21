package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"fatal", LevelFatal},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewJSONRenamesCustomLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, LevelTrace, FormatJSON)
	require.NoError(t, err)

	logger.Log(t.Context(), LevelTrace, "wrote file", "path", "gtFine/train/ds/a_gtFine_labelIds.png")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "TRACE", record["level"])
	assert.Equal(t, "wrote file", record["msg"])
	assert.Equal(t, "gtFine/train/ds/a_gtFine_labelIds.png", record["path"])
}

func TestNewTextFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, slog.LevelWarn, FormatText)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "kind", "hole_loss")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "kind=hole_loss")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, slog.LevelInfo, "xml")
	assert.Error(t, err)
}
