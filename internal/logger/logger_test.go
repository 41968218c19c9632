package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func captureCore(buf *bytes.Buffer) zapcore.Core {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)
}

// Feature: pricing-settlement, Property 16: Log entries are structured JSON
// with level, timestamp and message
func TestProperty_LogEntriesAreStructuredJSON(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every entry decodes as JSON and carries the required fields", prop.ForAll(
		func(message string, level string) bool {
			var buf bytes.Buffer
			logger := zap.New(captureCore(&buf))
			defer logger.Sync()

			switch level {
			case "debug":
				logger.Debug(message)
			case "warn":
				logger.Warn(message)
			case "error":
				logger.Error(message)
			default:
				logger.Info(message)
			}

			var logEntry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Logf("FAIL: entry is not valid JSON: %v", err)
				return false
			}

			for _, field := range []string{"level", "timestamp", "message"} {
				if _, ok := logEntry[field]; !ok {
					t.Logf("FAIL: entry missing %q field", field)
					return false
				}
			}

			return logEntry["message"] == message
		},
		gen.AnyString(),
		gen.OneConstOf("debug", "info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: pricing-settlement, Property 17: Error logs carry their attached
// context fields
func TestProperty_ErrorLogsCarryContextFields(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("fields attached to an error entry appear in the output", prop.ForAll(
		func(message string, merchantOID string) bool {
			var buf bytes.Buffer
			logger := zap.New(captureCore(&buf), zap.AddStacktrace(zapcore.ErrorLevel))
			defer logger.Sync()

			logger.Error(message, zap.String("merchant_oid", merchantOID))

			var logEntry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Logf("FAIL: entry is not valid JSON: %v", err)
				return false
			}

			return logEntry["merchant_oid"] == merchantOID
		},
		gen.AnyString(),
		gen.RegexMatch(`KP[A-Z0-9]{8,14}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNew_ProductionLoggerBuilds(t *testing.T) {
	logger, err := New("production")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	if logger == nil {
		t.Fatal("logger should not be nil")
	}
}

func TestNewWithDefaults_NeverNil(t *testing.T) {
	logger := NewWithDefaults()
	defer logger.Sync()

	if logger == nil {
		t.Fatal("logger should not be nil")
	}
}
