package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func newTestLogger() (*Logger, *bytes.Buffer, *bytes.Buffer) {
	var outBuf, errBuf bytes.Buffer
	l := &Logger{
		prefix: "test",
		out:    log.New(&outBuf, "[test] ", 0),
		err:    log.New(&errBuf, "[test] ", 0),
	}
	return l, &outBuf, &errBuf
}

func TestInfoAndDebugGoToOut(t *testing.T) {
	l, out, errBuf := newTestLogger()
	l.Info("starting", "threads", 4)
	l.Debug("detail")
	if !strings.Contains(out.String(), "INFO") || !strings.Contains(out.String(), "threads=4") {
		t.Fatalf("out = %q, missing INFO/threads=4", out.String())
	}
	if !strings.Contains(out.String(), "DEBUG") {
		t.Fatalf("out = %q, missing DEBUG", out.String())
	}
	if errBuf.Len() != 0 {
		t.Fatalf("expected no stderr output, got %q", errBuf.String())
	}
}

func TestWarnAndErrorGoToErr(t *testing.T) {
	l, out, errBuf := newTestLogger()
	l.Warn("degraded", "reason", "timeout")
	l.Error("failed")
	if !strings.Contains(errBuf.String(), "WARN") || !strings.Contains(errBuf.String(), "reason=timeout") {
		t.Fatalf("err = %q, missing WARN/reason=timeout", errBuf.String())
	}
	if !strings.Contains(errBuf.String(), "ERROR") {
		t.Fatalf("err = %q, missing ERROR", errBuf.String())
	}
	if out.Len() != 0 {
		t.Fatalf("expected no stdout output, got %q", out.String())
	}
}

func TestWithSourceAddsPersistentField(t *testing.T) {
	l, out, _ := newTestLogger()
	scoped := l.WithSource("intake.pdf")
	scoped.Info("processing page", "page", 1)

	line := out.String()
	if !strings.Contains(line, "source=intake.pdf") {
		t.Fatalf("line = %q, missing source=intake.pdf", line)
	}
	if !strings.Contains(line, "page=1") {
		t.Fatalf("line = %q, missing page=1", line)
	}

	// The parent logger must not be mutated by WithSource.
	l.Info("unscoped")
	if strings.Contains(out.String()[len(line):], "source=") {
		t.Fatalf("parent logger leaked scoped field: %q", out.String())
	}
}
