package client

import (
	"fmt"
	"strings"
	"testing"
)

func TestParseProbeOutput(t *testing.T) {
	raw := `{
		"id": "dQw4w9WgXcQ",
		"title": "Bhai Ka Vlog",
		"duration": 300.5,
		"thumbnail": "https://i.ytimg.com/vi/x/hq.jpg",
		"description": "ek number video",
		"view_count": 12345,
		"uploader": "Bhai"
	}`

	meta, err := parseProbeOutput(raw)
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if meta.Title != "Bhai Ka Vlog" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Duration != 300.5 {
		t.Errorf("duration = %v", meta.Duration)
	}
	if meta.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("video id = %q", meta.VideoID)
	}
	if meta.ViewCount != 12345 {
		t.Errorf("view count = %d", meta.ViewCount)
	}
	if meta.Description != "ek number video" {
		t.Errorf("description = %q", meta.Description)
	}
}

func TestParseProbeOutputTruncatesDescription(t *testing.T) {
	long := strings.Repeat("x", 2*maxDescriptionLen)
	raw := fmt.Sprintf(`{"title": "t", "description": %q}`, long)

	meta, err := parseProbeOutput(raw)
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if len(meta.Description) != maxDescriptionLen {
		t.Errorf("description length = %d, want %d", len(meta.Description), maxDescriptionLen)
	}
}

func TestParseProbeOutputInvalidJSON(t *testing.T) {
	if _, err := parseProbeOutput("not json at all"); err == nil {
		t.Error("expected error for invalid metadata JSON")
	}
}
