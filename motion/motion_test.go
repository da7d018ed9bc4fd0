package motion

import (
	"testing"

	"shorts-pipeline/config"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(config.Default())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestParseEffect(t *testing.T) {
	for _, name := range []string{"zoom_in", "zoom_out", "pan_up", "pan_down", "pan_left", "pan_right"} {
		if _, err := ParseEffect(name); err != nil {
			t.Errorf("ParseEffect(%q): %v", name, err)
		}
	}
	if _, err := ParseEffect("spin"); err == nil {
		t.Error("expected error for unknown effect")
	}
}

func TestForIndexRotation(t *testing.T) {
	g := newTestGenerator(t)
	if g.ForIndex(0) == g.ForIndex(1) {
		t.Error("consecutive segments should get different effects")
	}
	if g.ForIndex(1) != g.ForIndex(5) {
		t.Error("rotation should wrap around the catalog")
	}
	// Negative indices must not panic.
	_ = g.ForIndex(-3)
}

// The crop window must stay inside the source image for every frame of every
// effect.
func TestTransformBounds(t *testing.T) {
	g := newTestGenerator(t)
	const srcW, srcH = 1080.0, 1920.0
	const total = 1770 // 59s at 30fps

	for _, effect := range []Effect{ZoomIn, ZoomOut, PanUp, PanDown, PanLeft, PanRight} {
		for frame := 0; frame < total; frame += 7 {
			tr := g.At(effect, frame, total, srcW, srcH)
			if tr.Scale < 1.0 {
				t.Fatalf("%s frame %d: scale %v < 1", effect, frame, tr.Scale)
			}
			maxX := srcW - srcW/tr.Scale
			maxY := srcH - srcH/tr.Scale
			if tr.X < -1e-9 || tr.X > maxX+1e-9 {
				t.Fatalf("%s frame %d: x=%v outside [0, %v]", effect, frame, tr.X, maxX)
			}
			if tr.Y < -1e-9 || tr.Y > maxY+1e-9 {
				t.Fatalf("%s frame %d: y=%v outside [0, %v]", effect, frame, tr.Y, maxY)
			}
		}
	}
}

func TestZoomInCapsAtLimit(t *testing.T) {
	g := newTestGenerator(t)
	early := g.At(ZoomIn, 10, 10000, 1080, 1920)
	late := g.At(ZoomIn, 9999, 10000, 1080, 1920)
	if early.Scale >= late.Scale && early.Scale != 1.15 {
		t.Errorf("zoom should grow: %v then %v", early.Scale, late.Scale)
	}
	if late.Scale != 1.15 {
		t.Errorf("zoom should cap at 1.15, got %v", late.Scale)
	}
}

func TestZoompanSerialization(t *testing.T) {
	g := newTestGenerator(t)

	got := g.Zoompan(ZoomIn, 1350, 1080, 1920, 30)
	want := `zoompan=z='min(zoom+0.0008\,1.15)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=1350:s=1080x1920:fps=30`
	if got != want {
		t.Errorf("zoom_in:\n got %s\nwant %s", got, want)
	}

	got = g.Zoompan(PanDown, 300, 1080, 1920, 30)
	want = `zoompan=z='1.12':x='iw/2-(iw/zoom/2)':y='if(eq(on\,1)\,0\,min(y+1\,ih-ih/zoom))':d=300:s=1080x1920:fps=30`
	if got != want {
		t.Errorf("pan_down:\n got %s\nwant %s", got, want)
	}
}

func TestNewGeneratorRejectsUnknownEffect(t *testing.T) {
	cfg := config.Default()
	cfg.Visuals.Effects = []string{"zoom_in", "wobble"}
	if _, err := NewGenerator(cfg); err == nil {
		t.Fatal("expected error for unknown configured effect")
	}
}
