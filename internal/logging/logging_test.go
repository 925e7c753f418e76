package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesLogfmtLine(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Debug).(*logfmtLogger)
	logger.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	logger.With(F("session", "s1")).Info("batch committed", F("added", 2), F("err", errors.New("bad value")))

	want := `ts=2026-01-02T03:04:05Z level=info msg="batch committed" session=s1 added=2 err="bad value"` + "\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Warn)
	logger.Info("hidden")
	logger.Error("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "msg=shown") {
		t.Fatalf("expected only the error line, got %q", buf.String())
	}
	if logger.Enabled(Debug) || !logger.Enabled(Error) {
		t.Fatalf("expected Enabled to follow the level")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	cases := map[string]Level{"DEBUG": Debug, " warning ": Warn, "error": Error, "": Info, "loud": Info}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("expected %s for %q, got %s", want, raw, got)
		}
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ui.log")
	for i := 0; i < 2; i++ {
		logger, closer, err := OpenFile(path, Info)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		logger.Info("started")
		closer.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Count(string(data), "msg=started") != 2 {
		t.Fatalf("expected two lines, got %q", string(data))
	}
}

func TestNopLoggerIsDisabled(t *testing.T) {
	logger := Nop().With(F("k", "v"))
	if logger.Enabled(Error) {
		t.Fatalf("expected nop logger to be disabled")
	}
	logger.Error("ignored")
}
