package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(level LogLevel) (*MemLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = buf
	cfg.AddSource = false
	return NewLogger(cfg), buf
}

func TestMemLogger_LevelGating(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelWarn)

	logger.Info("should be suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info leaked through warn gate: %s", buf.String())
	}

	logger.Warn("capacity approaching")
	if !strings.Contains(buf.String(), "capacity approaching") {
		t.Fatalf("warn not logged: %s", buf.String())
	}
}

func TestMemLogger_ContextCloning(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	scoped := logger.WithComponent("store").WithSession("s1", "r1").WithContext("tenant", "acme")
	scoped.Info("entry stored")

	out := buf.String()
	for _, want := range []string{`"component":"store"`, `"session_id":"s1"`, `"request_id":"r1"`, `"tenant":"acme"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}

	buf.Reset()
	logger.Info("no scope")
	if strings.Contains(buf.String(), "acme") {
		t.Fatalf("scope leaked into parent logger: %s", buf.String())
	}
}

func TestMemLogger_DomainHelpers(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.LogStore("id-1", "semantic", time.Millisecond)
	logger.LogSearch("database", 3, time.Millisecond, map[string]int{"entry_store": 2, "vector_index": 1})
	logger.LogEviction(2, 18)
	logger.LogSession("start", "s1", 0, true)
	logger.LogSession("restore", "s1", 0, false)

	out := buf.String()
	for _, want := range []string{
		"Memory stored", `"entry_id":"id-1"`,
		"Memory search completed", `"results_entry_store":2`,
		"Entries evicted", `"removed":2`,
		"Session event", `"event":"start"`,
		"Session event failed",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}

func TestMemLogger_ErrorWithStack(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.ErrorWithStack(errors.New("index corrupted"), "rebuild failed")

	out := buf.String()
	if !strings.Contains(out, "index corrupted") || !strings.Contains(out, "stack_trace") {
		t.Fatalf("error with stack incomplete: %s", out)
	}
}

func TestNoOpLogger(t *testing.T) {
	var logger Logger = NoOpLogger{}
	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")
}
