package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// logEntry is one slog JSON line split into its standard keys and the rest.
type logEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

func parseEntry(t *testing.T, data []byte) logEntry {
	t.Helper()
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Failed to unmarshal log entry: %v", err)
	}
	entry := logEntry{Fields: raw}
	entry.Level, _ = raw["level"].(string)
	entry.Message, _ = raw["msg"].(string)
	return entry
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	t.Run("debug not logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if buf.Len() > 0 {
			t.Error("Debug message should not be logged at Info level")
		}
	})

	t.Run("info logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message")
		if buf.Len() == 0 {
			t.Fatal("Info message should be logged at Info level")
		}

		entry := parseEntry(t, buf.Bytes())
		if entry.Level != "INFO" {
			t.Errorf("Expected level INFO, got %s", entry.Level)
		}
		if entry.Message != "info message" {
			t.Errorf("Expected message 'info message', got %s", entry.Message)
		}
	})

	t.Run("warn logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Warn("warn message")
		if buf.Len() == 0 {
			t.Error("Warn message should be logged at Info level")
		}
	})

	t.Run("error logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Error("error message")
		if buf.Len() == 0 {
			t.Error("Error message should be logged at Info level")
		}
	})
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithFields(map[string]interface{}{
		"module": "System",
		"index":  7,
	}).WithField("version", "v14").Info("reduced")

	entry := parseEntry(t, buf.Bytes())
	if entry.Fields["module"] != "System" {
		t.Errorf("Expected field 'module' to be 'System', got %v", entry.Fields["module"])
	}
	if entry.Fields["index"] != float64(7) {
		t.Errorf("Expected field 'index' to be 7, got %v", entry.Fields["index"])
	}
	if entry.Fields["version"] != "v14" {
		t.Errorf("Expected field 'version' to be 'v14', got %v", entry.Fields["version"])
	}
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(errors.New("boom")).Error("something went wrong")

	entry := parseEntry(t, buf.Bytes())
	if entry.Fields["error"] != "boom" {
		t.Errorf("Expected error field 'boom', got %v", entry.Fields["error"])
	}

	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestLogger_Formatters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"Debugf", func() { logger.Debugf("type %d unresolved", 42) }, "type 42 unresolved"},
		{"Infof", func() { logger.Infof("reduced %d modules", 3) }, "reduced 3 modules"},
		{"Warnf", func() { logger.Warnf("warning %s", "test") }, "warning test"},
		{"Errorf", func() { logger.Errorf("error %v", "test") }, "error test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log()
			entry := parseEntry(t, buf.Bytes())
			if entry.Message != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, entry.Message)
			}
		})
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithFormat(InfoLevel, FormatText, &buf)

	logger.WithField("module", "Balances").Warn("unresolved type")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("Expected text output with level=WARN, got %q", out)
	}
	if !strings.Contains(out, "module=Balances") {
		t.Errorf("Expected module field in text output, got %q", out)
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Error("dropped")
	logger.WithField("k", "v").Infof("dropped %d", 1)
	if logger.Level() != ErrorLevel {
		t.Errorf("Expected ErrorLevel, got %v", logger.Level())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{" error ", ErrorLevel, false},
		{"trace", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestContextHelpers(t *testing.T) {
	t.Run("RunID", func(t *testing.T) {
		ctx := WithRunID(context.Background(), "run-123")
		if got := GetRunID(ctx); got != "run-123" {
			t.Errorf("Expected run ID 'run-123', got %s", got)
		}
		if got := GetRunID(context.Background()); got != "" {
			t.Errorf("Expected empty run ID, got %s", got)
		}
	})

	t.Run("Logger", func(t *testing.T) {
		logger := NewLogger(InfoLevel, nil)
		ctx := WithLogger(context.Background(), logger)

		if GetLogger(ctx) != logger {
			t.Error("Expected to retrieve logger from context")
		}
		if GetLogger(context.Background()) == nil {
			t.Error("Expected a default logger")
		}
	})

	t.Run("FromContext", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(InfoLevel, &buf)

		ctx := WithLogger(context.Background(), logger)
		ctx = WithRunID(ctx, "run-123")

		FromContext(ctx).Info("test message")

		entry := parseEntry(t, buf.Bytes())
		if entry.Fields["run_id"] != "run-123" {
			t.Errorf("Expected run_id 'run-123', got %v", entry.Fields["run_id"])
		}
	})
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{LogLevel(9), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
