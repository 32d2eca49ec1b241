package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewWithWriterLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewWithWriter(buf, "warn")
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("expected warn message in output: %s", out)
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewWithWriter(buf, "loud")
	l.Debug().Msg("debug")
	l.Info().Msg("info")
	if strings.Contains(buf.String(), `"level":"debug"`) || !strings.Contains(buf.String(), `"level":"info"`) {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf, "info"))
	l := FromContext(ctx)
	l.Info().Msg("from ctx")
	if !strings.Contains(buf.String(), "from ctx") {
		t.Fatalf("expected logger from context to write, got %q", buf.String())
	}
}

func TestFromContextDefaultIsSilent(t *testing.T) {
	l := FromContext(context.Background())
	l.Info().Msg("nowhere")
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	l := WithFields(NewWithWriter(buf, "info"), map[string]any{"user_id": 7})
	l.Info().Msg("x")
	if !strings.Contains(buf.String(), `"user_id":7`) {
		t.Fatalf("expected field in output: %s", buf.String())
	}
}
