package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CustomWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})
	logger.Info("shelf created", "shelf_id", "shelf-1")

	assert.Contains(t, buf.String(), "shelf created")
	assert.Contains(t, buf.String(), `"level":"INFO"`)
	assert.Contains(t, buf.String(), `"shelf_id":"shelf-1"`)
	assert.NoError(t, logger.Close())
}

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			New(Config{Environment: tt.environment, Writer: &buf}).Info("hello")

			isJSON := json.Valid(bytes.TrimSpace(buf.Bytes()))
			assert.Equal(t, tt.wantJSON, isJSON, buf.String())
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	var stdout bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "shelfwise.log")

	logger := New(Config{
		Writer:     &stdout,
		Format:     "pretty",
		Level:      slog.LevelInfo,
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
	})
	logger.With("request_id", "r-1").Info("set operation computed", "operation", "union")
	logger.Debug("filtered out")
	require.NoError(t, logger.Close())

	assert.Contains(t, stdout.String(), "set operation computed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "set operation computed", record["msg"])
	assert.Equal(t, "union", record["operation"])
	assert.Equal(t, "r-1", record["request_id"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	ctx := context.Background()

	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))

	assert.True(t, NewPrettyHandler(&bytes.Buffer{}, nil).Enabled(ctx, slog.LevelInfo))
	assert.False(t, NewPrettyHandler(&bytes.Buffer{}, nil).Enabled(ctx, slog.LevelDebug))
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil))
	logger.Warn("access denied", "requester_id", "user-1", "count", 3)

	out := buf.String()
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "access denied")
	assert.Contains(t, out, "requester_id=user-1")
	assert.Contains(t, out, "count=3")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, nil)

	assert.Same(t, handler, handler.WithGroup(""))

	logger := slog.New(handler.WithAttrs([]slog.Attr{slog.String("service", "shelves")}).WithGroup("req"))
	logger.Info("handled", "status", 200)

	out := buf.String()
	assert.Contains(t, out, "service=shelves")
	assert.Contains(t, out, "req.status=200")
}

func TestPrettyHandler_WithSource(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{AddSource: true}))
	logger.Info("test message")
	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestFormatLevel(t *testing.T) {
	tests := []struct {
		level     slog.Level
		wantStr   string
		wantColor string
	}{
		{slog.LevelDebug, "DBG", colorMagenta},
		{slog.LevelInfo, "INF", colorGreen},
		{slog.LevelWarn, "WRN", colorYellow},
		{slog.LevelError, "ERR", colorRed},
		{slog.LevelError + 4, "ERROR+4", colorGray},
	}

	for _, tt := range tests {
		t.Run(tt.wantStr, func(t *testing.T) {
			str, color := formatLevel(tt.level)
			assert.Equal(t, tt.wantStr, str)
			assert.Equal(t, tt.wantColor, color)
		})
	}
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value slog.Value
		want  string
	}{
		{"plain string", slog.StringValue("genres"), "genres"},
		{"string with space", slog.StringValue("Want to Read"), `"Want to Read"`},
		{"empty string", slog.StringValue(""), `""`},
		{"int", slog.IntValue(42), "42"},
		{"bool", slog.BoolValue(true), "true"},
		{"duration", slog.DurationValue(1500 * time.Millisecond), "1.5s"},
		{"time", slog.TimeValue(ts), "2026-03-01T12:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.value))
		})
	}
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Writer: &buf})
	logger.WithError(errors.New("disk full")).Error("commit failed")

	assert.Contains(t, buf.String(), `"error":"disk full"`)
}

func TestFanout_RespectsLevels(t *testing.T) {
	var info, debug bytes.Buffer
	h := fanout{
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
	logger := slog.New(h)
	logger.Debug("only debug")
	logger.Info("both")

	assert.NotContains(t, info.String(), "only debug")
	assert.Contains(t, info.String(), "both")
	assert.Contains(t, debug.String(), "only debug")
	assert.Contains(t, debug.String(), "both")
}
