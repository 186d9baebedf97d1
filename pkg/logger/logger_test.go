package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLogger_BasicLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.Debug("dbg", String("k", "v"))
	log.Info("info", Int("n", 42))
	log.Warn("warn", Bool("ok", true))
	log.Error("err", Error(errors.New("boom")))

	out := buf.String()
	for _, s := range []string{
		`"msg":"dbg"`, `"k":"v"`,
		`"msg":"info"`, `"n":42`,
		`"msg":"warn"`, `"ok":true`,
		`"msg":"err"`, `"error":"boom"`,
	} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected output to contain %q, got: %s", s, out)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("should not appear")
	log.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("info message should have been filtered at warn level, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("expected warn message in output, got: %s", out)
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: "info", Format: "json", Output: &buf})
	comp := base.WithComponent("dispatch")

	comp.Info("started")

	out := buf.String()
	if !strings.Contains(out, `"component":"dispatch"`) {
		t.Fatalf("expected component field in output, got: %s", out)
	}
	if !strings.Contains(out, `"msg":"started"`) {
		t.Fatalf("expected started message in output, got: %s", out)
	}
}
