package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNew_WritesStructuredText(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "text", "info")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.With("run_id", "abc").Info(context.Background(), "batch executed", "requests", 3)

	out := buf.String()
	for _, want := range []string{"level=INFO", `msg="batch executed"`, "run_id=abc", "requests=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "json", "warn")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Info(context.Background(), "hidden")
	log.Error(context.Background(), "shown", "err", "boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON error line, got %q", out)
	}
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "xml", "info"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := New(&bytes.Buffer{}, "text", "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
