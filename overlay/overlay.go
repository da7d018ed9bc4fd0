// Package overlay builds timed text-overlay descriptors from caption groups
// and serializes them to the renderer's drawtext syntax only at the boundary,
// keeping the core renderer-agnostic.
package overlay

import (
	"fmt"
	"strings"

	"shorts-pipeline/captions"
	"shorts-pipeline/config"
)

// Style holds the fixed drawtext styling shared by all caption overlays.
type Style struct {
	FontPath    string
	FontColor   string
	BorderW     int
	BorderColor string
	ShadowColor string
	ShadowX     int
	ShadowY     int
}

// Descriptor is one timed text overlay. Text is already upper-cased and
// escaped for the renderer; From/To are segment-relative seconds.
type Descriptor struct {
	Text     string
	X        string
	Y        int
	FontSize int
	Style    Style
	From     float64
	To       float64
}

// centeredX keeps every overlay horizontally centered regardless of text width.
const centeredX = "(w-text_w)/2"

type Builder struct {
	render config.RenderConfig
	caps   config.CaptionsConfig
}

func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{render: cfg.Render, caps: cfg.Captions}
}

// FromGroups builds one descriptor per caption group. Longer text gets a
// smaller font so it never overflows the frame horizontally.
func (b *Builder) FromGroups(groups []captions.Group) []Descriptor {
	yPos := int(float64(b.render.Height) * b.caps.CaptionYRatio)

	var descs []Descriptor
	for _, g := range groups {
		if strings.TrimSpace(g.Text) == "" {
			continue
		}
		descs = append(descs, Descriptor{
			Text:     Escape(strings.ToUpper(g.Text)),
			X:        centeredX,
			Y:        yPos,
			FontSize: fontSizeFor(g.Text),
			Style:    b.captionStyle(4, 0.8),
			From:     g.Start,
			To:       g.End,
		})
	}
	return descs
}

// Hook builds the large overlay shown over the opening seconds, independent of
// caption timing. ok is false when there is no hook text.
func (b *Builder) Hook(text string) (Descriptor, bool) {
	if strings.TrimSpace(text) == "" {
		return Descriptor{}, false
	}
	return Descriptor{
		Text:     Escape(strings.ToUpper(text)),
		X:        centeredX,
		Y:        int(float64(b.render.Height) * b.caps.HookYRatio),
		FontSize: b.caps.HookFontSize,
		Style:    b.captionStyle(5, 0.8),
		From:     0.2,
		To:       b.caps.HookDurationSec,
	}, true
}

func (b *Builder) captionStyle(borderW int, borderAlpha float64) Style {
	return Style{
		FontPath:    b.caps.FontPath,
		FontColor:   "white",
		BorderW:     borderW,
		BorderColor: fmt.Sprintf("black@%.1f", borderAlpha),
		ShadowColor: "black@0.5",
		ShadowX:     2,
		ShadowY:     2,
	}
}

// fontSizeFor picks the three-tier font size from the raw (pre-escape) text
// length.
func fontSizeFor(text string) int {
	switch {
	case len(text) > 18:
		return 58
	case len(text) > 14:
		return 64
	default:
		return 72
	}
}

// Escape rewrites the renderer's reserved characters so each survives the
// filter-graph and drawtext parsing passes unchanged. The ASCII apostrophe is
// swapped for a typographic one: it cannot be escaped inside a single-quoted
// filter argument.
func Escape(text string) string {
	r := strings.NewReplacer(
		`\`, `\\\\`,
		`'`, "’",
		`"`, `\"`,
		`:`, `\\:`,
		`%`, `%%%%`,
		`[`, `\\[`,
		`]`, `\\]`,
		`;`, `\\;`,
	)
	return r.Replace(text)
}

// Filter serializes descriptors into a comma-joined drawtext chain.
func Filter(descs []Descriptor) string {
	parts := make([]string, 0, len(descs))
	for _, d := range descs {
		parts = append(parts, fmt.Sprintf(
			"drawtext=text='%s'"+
				":fontfile=%s"+
				":fontsize=%d"+
				":fontcolor=%s"+
				":borderw=%d"+
				":bordercolor=%s"+
				":shadowcolor=%s"+
				":shadowx=%d:shadowy=%d"+
				":x=%s"+
				":y=%d"+
				`:enable='between(t\,%.3f\,%.3f)'`,
			d.Text,
			d.Style.FontPath,
			d.FontSize,
			d.Style.FontColor,
			d.Style.BorderW,
			d.Style.BorderColor,
			d.Style.ShadowColor,
			d.Style.ShadowX, d.Style.ShadowY,
			d.X,
			d.Y,
			d.From, d.To,
		))
	}
	return strings.Join(parts, ",")
}
