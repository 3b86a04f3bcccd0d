package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: "json", Output: &buf})
	l.Debug("hidden")
	l.Info("shown", "facet", "trends")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked: %s", out)
	}
	if !strings.Contains(out, `"facet":"trends"`) {
		t.Fatalf("missing attribute: %s", out)
	}
}

func TestFromContextAddsSession(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	defer Set(prev)
	Set(New(Options{Level: "debug", Output: &buf}))

	FromContext(WithSessionID(context.Background(), "abc")).Info("hello")
	if !strings.Contains(buf.String(), "session_id=abc") {
		t.Fatalf("session id missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug || ParseLevel("bogus") != slog.LevelWarn {
		t.Fatalf("unexpected level mapping")
	}
}
