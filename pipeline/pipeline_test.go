package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shorts-pipeline/config"
	"shorts-pipeline/overlay"
	"shorts-pipeline/types"
)

func TestCaptionFilterHookAndCaptions(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()

	vtt := filepath.Join(dir, "voice.vtt")
	body := "WEBVTT\n\n00:00:00.000 --> 00:00:01.500\nthree words here\n"
	if err := os.WriteFile(vtt, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	seg := &types.Segment{SegmentNumber: 1, HookText: "watch this", SubtitlePath: vtt}
	filter := CaptionFilter(cfg, overlay.NewBuilder(cfg), seg)

	if !strings.Contains(filter, "WATCH THIS") {
		t.Errorf("hook missing from filter: %q", filter)
	}
	if !strings.Contains(filter, "THREE WORDS HERE") {
		t.Errorf("caption group missing from filter: %q", filter)
	}
	// Hook first, captions after.
	if strings.Index(filter, "WATCH THIS") > strings.Index(filter, "THREE WORDS HERE") {
		t.Error("hook should precede caption overlays")
	}
}

func TestCaptionFilterEmpty(t *testing.T) {
	cfg := config.Default()
	seg := &types.Segment{SegmentNumber: 1}
	if filter := CaptionFilter(cfg, overlay.NewBuilder(cfg), seg); filter != "" {
		t.Errorf("no hook and no subtitles should yield no filter, got %q", filter)
	}
}

func TestCaptionFilterHookOnly(t *testing.T) {
	cfg := config.Default()
	seg := &types.Segment{SegmentNumber: 1, HookText: "hello"}
	filter := CaptionFilter(cfg, overlay.NewBuilder(cfg), seg)
	if strings.Count(filter, "drawtext=") != 1 {
		t.Errorf("expected exactly the hook overlay, got %q", filter)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	body := `{"success":true,"error":"","shorts":[{"path":"short_01.mp4","title":"t","duration":42.5}],"run_id":"abc12345"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if !m.Success || len(m.Shorts) != 1 || m.Shorts[0].Duration != 42.5 {
		t.Errorf("manifest fields: %+v", m)
	}

	if _, err := LoadManifest(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing manifest must be an error")
	}
}
