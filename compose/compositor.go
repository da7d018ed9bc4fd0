// Package compose renders a segment's visual assets into a single background
// timeline of the target duration.
package compose

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/media"
	"shorts-pipeline/motion"
	"shorts-pipeline/types"
)

type Compositor struct {
	render config.RenderConfig
	run    media.Runner
	motion *motion.Generator
}

func New(cfg *config.Config, run media.Runner, gen *motion.Generator) *Compositor {
	return &Compositor{render: cfg.Render, run: run, motion: gen}
}

// renderTimeout bounds a single background render; multi-image concats are the
// heaviest operation in the pipeline.
const renderTimeout = 5 * time.Minute

// Background builds the segment's background timeline at outPath. A single
// still gets the index's Ken Burns effect for the full duration; multiple
// stills are rendered static and concatenated (motion is intentionally dropped
// there to bound processing cost). Any multi-asset failure falls back to the
// single-asset path with the first asset; the segment is never aborted here.
func (c *Compositor) Background(ctx context.Context, assets []types.VisualAsset, duration float64, index int, outPath string) error {
	if len(assets) == 0 {
		return fmt.Errorf("no visual assets for segment %d", index)
	}
	if duration <= 0 {
		return fmt.Errorf("non-positive duration %.2f for segment %d", duration, index)
	}

	// Stock and procedural clips are already normalized to the target
	// duration and aspect; pass them through losslessly.
	if assets[0].Kind == types.AssetVideo {
		return c.passThrough(ctx, assets[0].Path, duration, outPath)
	}

	if len(assets) == 1 {
		return c.single(ctx, assets[0].Path, duration, index, outPath)
	}

	if err := c.multi(ctx, assets, duration, outPath); err != nil {
		log.Printf("[compose] Segment %d: multi-image render failed: %v — falling back to first image", index, err)
		return c.single(ctx, assets[0].Path, duration, index, outPath)
	}
	return nil
}

// single applies the rotated Ken Burns effect over one still image.
func (c *Compositor) single(ctx context.Context, imagePath string, duration float64, index int, outPath string) error {
	effect := c.motion.ForIndex(index)
	frames := int(duration * float64(c.render.FPS))
	zoompan := c.motion.Zoompan(effect, frames, c.render.Width, c.render.Height, c.render.FPS)

	err := c.run.Run(ctx, media.Command{
		Name: "ffmpeg",
		Args: []string{
			"-y", "-loop", "1", "-i", imagePath,
			"-vf", zoompan,
			"-t", fmt.Sprintf("%.2f", duration),
			"-c:v", "libx264", "-preset", c.render.Preset, "-crf", fmt.Sprintf("%d", c.render.CRF),
			"-pix_fmt", "yuv420p", "-an",
			outPath,
		},
		Timeout: renderTimeout,
	})
	if err != nil {
		return fmt.Errorf("ken burns render (%s): %w", effect, err)
	}
	return nil
}

// multi splits the duration evenly across the stills and concatenates static
// clips.
func (c *Compositor) multi(ctx context.Context, assets []types.VisualAsset, duration float64, outPath string) error {
	n := len(assets)
	segDur := duration / float64(n)

	args := []string{"-y"}
	for _, a := range assets {
		args = append(args,
			"-loop", "1",
			"-t", fmt.Sprintf("%.2f", segDur),
			"-framerate", fmt.Sprintf("%d", c.render.FPS),
			"-i", a.Path,
		)
	}

	var filters []string
	var concatInputs strings.Builder
	for i := 0; i < n; i++ {
		filters = append(filters, fmt.Sprintf(
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,setsar=1,fps=%d[v%d]",
			i, c.render.Width, c.render.Height, c.render.Width, c.render.Height, c.render.FPS, i,
		))
		fmt.Fprintf(&concatInputs, "[v%d]", i)
	}
	filters = append(filters, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[vout]", concatInputs.String(), n))

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[vout]",
		"-c:v", "libx264", "-preset", "ultrafast", "-crf", "26",
		"-pix_fmt", "yuv420p",
		outPath,
	)

	if err := c.run.Run(ctx, media.Command{Name: "ffmpeg", Args: args, Timeout: renderTimeout}); err != nil {
		return fmt.Errorf("multi-image concat: %w", err)
	}
	return nil
}

// passThrough trims an already-normalized clip to the target duration without
// re-encoding.
func (c *Compositor) passThrough(ctx context.Context, clipPath string, duration float64, outPath string) error {
	err := c.run.Run(ctx, media.Command{
		Name: "ffmpeg",
		Args: []string{
			"-y", "-i", clipPath,
			"-t", fmt.Sprintf("%.2f", duration),
			"-c", "copy",
			outPath,
		},
		Timeout: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("clip pass-through: %w", err)
	}
	return nil
}
