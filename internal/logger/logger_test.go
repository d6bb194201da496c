package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cfg := Config{
		Level:  "info",
		Format: "text",
	}
	logger := New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}

	// Test with invalid level (should default to info)
	cfg.Level = "invalid"
	logger = New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: "info", Format: "json"})

	logger.WithComponent("ugc").Info("submission stored", "ugc_id", "u-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "ugc" {
		t.Errorf("Expected component=ugc, got %v", entry["component"])
	}
	if entry["ugc_id"] != "u-1" {
		t.Errorf("Expected ugc_id=u-1, got %v", entry["ugc_id"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: "warn", Format: "text"})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected info line to be filtered at warn level, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("Expected warn line to be written, got %q", out)
	}
}

func TestWithArtist(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: "info", Format: "text"})

	logger.WithArtist("a-1", "Alpha").Info("links computed")

	out := buf.String()
	if !strings.Contains(out, "artist_id=a-1") || !strings.Contains(out, "artist_name=Alpha") {
		t.Errorf("Expected artist attributes in %q", out)
	}
}

func TestWithUGC(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: "info", Format: "text"})

	logger.WithUGC("u-9", "spotify").Info("accepted")

	out := buf.String()
	if !strings.Contains(out, "ugc_id=u-9") || !strings.Contains(out, "site_name=spotify") {
		t.Errorf("Expected ugc attributes in %q", out)
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Error("Expected default logger to not be nil")
	}
	if Discard() == nil {
		t.Error("Expected discard logger to not be nil")
	}
}
