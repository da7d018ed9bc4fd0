// Package motion generates Ken Burns pan/zoom parameterizations for still
// images. The deterministic per-frame transform is the design contract; the
// zoompan expression is its serialization for the renderer.
package motion

import (
	"fmt"
	"strconv"
	"strings"

	"shorts-pipeline/config"
)

// Effect is one named pan/zoom variant.
type Effect string

const (
	ZoomIn   Effect = "zoom_in"
	ZoomOut  Effect = "zoom_out"
	PanUp    Effect = "pan_up"
	PanDown  Effect = "pan_down"
	PanLeft  Effect = "pan_left"
	PanRight Effect = "pan_right"
)

// ParseEffect validates an effect name from configuration.
func ParseEffect(s string) (Effect, error) {
	switch Effect(s) {
	case ZoomIn, ZoomOut, PanUp, PanDown, PanLeft, PanRight:
		return Effect(s), nil
	}
	return "", fmt.Errorf("unknown motion effect %q", s)
}

// Transform is the crop-window state for a single frame: the window has size
// (srcW/Scale, srcH/Scale) and its top-left corner sits at (X, Y) in source
// pixels. Scale never drops below 1.0, so the output frame is always fully
// covered.
type Transform struct {
	Scale float64
	X     float64
	Y     float64
}

// Generator produces transforms from the configured zoom increment, zoom cap
// and pan scale.
type Generator struct {
	zoomStep float64
	zoomCap  float64
	panScale float64
	catalog  []Effect
}

func NewGenerator(cfg *config.Config) (*Generator, error) {
	g := &Generator{
		zoomStep: cfg.Visuals.ZoomStep,
		zoomCap:  cfg.Visuals.ZoomCap,
		panScale: cfg.Visuals.PanScale,
	}
	for _, name := range cfg.Visuals.Effects {
		e, err := ParseEffect(name)
		if err != nil {
			return nil, err
		}
		g.catalog = append(g.catalog, e)
	}
	if len(g.catalog) == 0 {
		g.catalog = []Effect{ZoomIn, ZoomOut, PanDown, PanUp}
	}
	return g, nil
}

// ForIndex rotates through the effect catalog so consecutive segments get
// different motion.
func (g *Generator) ForIndex(i int) Effect {
	if i < 0 {
		i = -i
	}
	return g.catalog[i%len(g.catalog)]
}

// At returns the transform for one frame of the effect over a source image of
// srcW x srcH. The crop window is clamped to the image bounds for every frame
// in [0, totalFrames).
func (g *Generator) At(effect Effect, frame, totalFrames int, srcW, srcH float64) Transform {
	if frame < 0 {
		frame = 0
	}

	switch effect {
	case ZoomIn:
		scale := min(1.0+g.zoomStep*float64(frame), g.zoomCap)
		return centered(scale, srcW, srcH)
	case ZoomOut:
		scale := max(g.zoomCap-g.zoomStep*float64(frame), 1.0)
		return centered(scale, srcW, srcH)
	case PanDown:
		t := centered(g.panScale, srcW, srcH)
		t.Y = min(float64(frame), srcH-srcH/t.Scale)
		return t
	case PanUp:
		t := centered(g.panScale, srcW, srcH)
		t.Y = max(srcH-srcH/t.Scale-float64(frame), 0)
		return t
	case PanRight:
		t := centered(g.panScale, srcW, srcH)
		t.X = min(float64(frame), srcW-srcW/t.Scale)
		return t
	case PanLeft:
		t := centered(g.panScale, srcW, srcH)
		t.X = max(srcW-srcW/t.Scale-float64(frame), 0)
		return t
	}
	return centered(1.0, srcW, srcH)
}

func centered(scale, srcW, srcH float64) Transform {
	return Transform{
		Scale: scale,
		X:     (srcW - srcW/scale) / 2,
		Y:     (srcH - srcH/scale) / 2,
	}
}

// Zoompan serializes the effect as a zoompan filter covering frames output
// frames at w x h.
func (g *Generator) Zoompan(effect Effect, frames, w, h, fps int) string {
	base := fmt.Sprintf(`:d=%d:s=%dx%d:fps=%d`, frames, w, h, fps)
	centerX := `x='iw/2-(iw/zoom/2)'`
	centerY := `y='ih/2-(ih/zoom/2)'`
	pan := fmtFloat(g.panScale)

	var expr string
	switch effect {
	case ZoomIn:
		expr = fmt.Sprintf(`zoompan=z='min(zoom+%s\,%s)':%s:%s`,
			fmtFloat(g.zoomStep), fmtFloat(g.zoomCap), centerX, centerY)
	case ZoomOut:
		expr = fmt.Sprintf(`zoompan=z='if(eq(on\,1)\,%s\,max(zoom-%s\,1.0))':%s:%s`,
			fmtFloat(g.zoomCap), fmtFloat(g.zoomStep), centerX, centerY)
	case PanDown:
		expr = fmt.Sprintf(`zoompan=z='%s':%s:y='if(eq(on\,1)\,0\,min(y+1\,ih-ih/zoom))'`, pan, centerX)
	case PanUp:
		expr = fmt.Sprintf(`zoompan=z='%s':%s:y='if(eq(on\,1)\,ih-ih/zoom\,max(y-1\,0))'`, pan, centerX)
	case PanRight:
		expr = fmt.Sprintf(`zoompan=z='%s':x='if(eq(on\,1)\,0\,min(x+1\,iw-iw/zoom))':%s`, pan, centerY)
	case PanLeft:
		expr = fmt.Sprintf(`zoompan=z='%s':x='if(eq(on\,1)\,iw-iw/zoom\,max(x-1\,0))':%s`, pan, centerY)
	default:
		expr = fmt.Sprintf(`zoompan=z='1.0':%s:%s`, centerX, centerY)
	}
	return expr + base
}

// fmtFloat keeps filter expressions readable: no trailing zeros, always a
// decimal point.
func fmtFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
