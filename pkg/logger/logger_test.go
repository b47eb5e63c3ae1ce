package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWithWriterEmitsJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "info", "")
	log.Info("loaded", "rows", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "survey-dashboard", entry["service"])
	require.Equal(t, "loaded", entry["msg"])
	require.EqualValues(t, 3, entry["rows"])
}

func TestNewWithWriterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "warn", "text")
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.True(t, strings.Contains(out, "shown"))
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
}
