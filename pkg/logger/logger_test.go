package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mangasaver/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "test.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	u, _ := url.Parse("file:///tmp/cover.jpg")
	l.WithField("component", "saver").
		WithError(errors.New("disk full")).
		InfoWithFields("Image saved", map[string]interface{}{
			"size": 42,
			"uri":  u,
		})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Image saved", entry["message"])
	assert.Equal(t, "mangasaver", entry["app"])
	assert.Equal(t, "saver", entry["component"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, float64(42), entry["size"])
	assert.Equal(t, "file:///tmp/cover.jpg", entry["uri"])
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, zerolog.DebugLevel)
	_ = parent.WithField("child", true)

	parent.Info("plain")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	_, ok := entries[0]["child"]
	assert.False(t, ok)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["message"])
}

func TestLogSave(t *testing.T) {
	tl := NewTestLogger()
	u, _ := url.Parse("content://media/external/images/media/1")

	LogSave(tl, "media_store", "cover.jpg", u, nil)
	LogSave(tl, "direct", "page.png", nil, errors.New("boom"))

	info := tl.GetMessagesByLevel("INFO")
	require.Len(t, info, 1)
	assert.Equal(t, "Image saved", info[0].Message)
	assert.Equal(t, "content://media/external/images/media/1", info[0].Fields["uri"])

	errs := tl.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0].Error, "boom")
	assert.Equal(t, "direct", errs[0].Fields["strategy"])
}

func TestTestLoggerDerivedShareSink(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("a", 1).WithFields(map[string]interface{}{"b": 2})

	child.Warn("careful")

	assert.True(t, tl.HasMessage("careful"))
	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, msgs[0].Fields)

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
	assert.False(t, tl.HasError())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithField("k", "v").WithError(errors.New("x")).Error("ignored")
	assert.NotNil(t, l.GetZerolog())
}
