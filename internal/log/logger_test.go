package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "test"})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("session")
	l.Info().Str("tool", "propose_brain_exercise").Msg("invoked")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "session" {
		t.Fatalf("expected component=session, got %v", entry["component"])
	}
	if entry["service"] != "test" {
		t.Fatalf("expected service=test, got %v", entry["service"])
	}
	if entry["tool"] != "propose_brain_exercise" {
		t.Fatalf("expected tool field, got %v", entry["tool"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("x")
	l.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	l.Warn().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("warn should be written")
	}
}
