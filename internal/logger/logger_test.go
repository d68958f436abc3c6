package logger

import (
	"bytes"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestEnvLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		expectLog bool
	}{
		{name: "logs when AIDASH_DEBUG is set", envValue: "1", expectLog: true},
		{name: "logs for any non-empty value", envValue: "true", expectLog: true},
		{name: "silent when AIDASH_DEBUG is empty", envValue: "", expectLog: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			t.Setenv(DebugEnv, tt.envValue)

			l := NewEnvLogger("[test]")
			l.Debug("poll %s", "latest")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "[test] poll latest")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestEnvLogger_Levels(t *testing.T) {
	tests := []struct {
		name   string
		logFn  func(Logger)
		expect string
	}{
		{
			name:   "info has no level tag",
			logFn:  func(l Logger) { l.Info("refreshed %d streams", 2) },
			expect: "[sync] refreshed 2 streams",
		},
		{
			name:   "warn is tagged",
			logFn:  func(l Logger) { l.Warn("mark-read failed") },
			expect: "[sync] WARN: mark-read failed",
		},
		{
			name:   "error is tagged",
			logFn:  func(l Logger) { l.Error("boom") },
			expect: "[sync] ERROR: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			tt.logFn(NewEnvLogger("[sync]"))
			assert.Contains(t, buf.String(), tt.expect)
		})
	}
}

func TestEnvLogger_NoPrefix(t *testing.T) {
	buf := captureLog(t)
	NewEnvLogger("").Warn("plain")
	assert.Equal(t, "WARN: plain\n", buf.String())
}

func TestWithPrefix(t *testing.T) {
	buf := NewBufferLogger()
	l := WithPrefix(buf, "[api]")

	l.Debug("GET %s", "/api/servers/")
	l.Warn("slow")

	msgs := buf.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "[api] GET /api/servers/", msgs[0].Message)
	assert.Equal(t, "warn", msgs[1].Level)
	assert.Equal(t, "[api] slow", msgs[1].Message)
}

func TestNoopLogger(t *testing.T) {
	buf := captureLog(t)

	l := Noop()
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	assert.Empty(t, buf.String(), "noop logger should not produce any output")
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %s", "msg")
	l.Info("info %s", "msg")
	l.Warn("warn %s", "msg")
	l.Error("error %s", "msg")

	msgs := l.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, LogMessage{Level: "debug", Message: "debug msg"}, msgs[0])
	assert.Equal(t, LogMessage{Level: "info", Message: "info msg"}, msgs[1])
	assert.Equal(t, LogMessage{Level: "warn", Message: "warn msg"}, msgs[2])
	assert.Equal(t, LogMessage{Level: "error", Message: "error msg"}, msgs[3])
}

func TestBufferLogger_Queries(t *testing.T) {
	l := NewBufferLogger()

	assert.False(t, l.HasLevel("warn"))
	assert.Equal(t, 0, l.Count("debug"))

	l.Debug("discarded stale response for %s", "latest")
	l.Debug("second")
	l.Warn("mark-read failed: %s", "timeout")

	assert.True(t, l.HasLevel("warn"))
	assert.Equal(t, 2, l.Count("debug"))
	assert.True(t, l.Contains("warn", "timeout"))
	assert.False(t, l.Contains("debug", "timeout"))

	l.Clear()
	assert.Empty(t, l.Messages())
}

func TestBufferLogger_Concurrent(t *testing.T) {
	l := NewBufferLogger()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Debug("worker %d", n)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, l.Count("debug"))
}

func TestDefault(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	assert.NotNil(t, Default())

	buf := NewBufferLogger()
	SetDefault(buf)
	assert.Equal(t, buf, Default())
}
