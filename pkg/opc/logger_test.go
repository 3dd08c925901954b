package opc

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name        string
		level       LogLevel
		expected    []string
		notExpected []string
	}{
		{
			name:     "debug level shows all messages",
			level:    LogDebug,
			expected: []string{"debug message", "info message", "warn message", "error message"},
		},
		{
			name:        "info level hides debug messages",
			level:       LogInfo,
			expected:    []string{"info message", "warn message", "error message"},
			notExpected: []string{"debug message"},
		},
		{
			name:        "error level shows only errors",
			level:       LogError,
			expected:    []string{"error message"},
			notExpected: []string{"debug message", "info message", "warn message"},
		},
		{
			name:        "off hides everything",
			level:       LogOff,
			notExpected: []string{"debug message", "info message", "warn message", "error message"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)
			logger.Debug("debug %s", "message")
			logger.Info("info %s", "message")
			logger.Warn("warn %s", "message")
			logger.Error("error %s", "message")

			output := buf.String()
			for _, want := range tt.expected {
				if !strings.Contains(output, want) {
					t.Errorf("expected output to contain %q\nOutput: %s", want, output)
				}
			}
			for _, unwanted := range tt.notExpected {
				if strings.Contains(output, unwanted) {
					t.Errorf("expected output not to contain %q\nOutput: %s", unwanted, output)
				}
			}
		})
	}
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogError)
	logger.Info("hidden")
	logger.SetLevel(LogDebug)
	logger.Debug("visible")

	if !logger.IsDebugMode() {
		t.Error("IsDebugMode() = false after SetLevel(LogDebug)")
	}
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "visible") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogDebug)

	logger.
		WithField("package", "report.docx").
		WithFields(Fields{"part": "/word/document.xml"}).
		Info("saved part")

	output := buf.String()
	for _, field := range []string{"package=report.docx", "part=/word/document.xml", "saved part"} {
		if !strings.Contains(output, field) {
			t.Errorf("Expected output to contain %q, but it didn't.\nOutput: %s", field, output)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogDebug,
		"INFO":    LogInfo,
		"warning": LogWarn,
		" error ": LogError,
		"none":    LogOff,
		"bogus":   LogInfo,
	}
	for input, want := range tests {
		if got := parseLogLevel(input); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
