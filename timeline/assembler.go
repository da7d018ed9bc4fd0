// Package timeline stitches finished segment videos into one compilation and
// merges their caption tracks onto the combined clock.
package timeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shorts-pipeline/captions"
	"shorts-pipeline/media"
)

// Item is one segment placed on the timeline, in order.
type Item struct {
	Path        string
	Duration    float64
	CaptionPath string
}

type Assembler struct {
	run media.Runner
}

func New(run media.Runner) *Assembler {
	return &Assembler{run: run}
}

// Assemble concatenates the items into outPath using the concat demuxer with
// stream copy. All inputs share the same encode settings so no re-encode is
// needed.
func (a *Assembler) Assemble(ctx context.Context, items []Item, outPath string) error {
	if len(items) == 0 {
		return fmt.Errorf("nothing to assemble")
	}

	listPath := outPath + ".txt"
	var list strings.Builder
	for _, it := range items {
		abs, err := filepath.Abs(it.Path)
		if err != nil {
			abs = it.Path
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", "'\\''"))
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	err := a.run.Run(ctx, media.Command{
		Name: "ffmpeg",
		Args: []string{
			"-y", "-f", "concat", "-safe", "0",
			"-i", listPath,
			"-c", "copy",
			"-movflags", "+faststart",
			outPath,
		},
		Timeout: 5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("concat %d segments: %w", len(items), err)
	}
	log.Printf("[timeline] ✅ Assembled %d segments → %s", len(items), filepath.Base(outPath))
	return nil
}

// MergeCaptions shifts each item's cues by the accumulated duration of the
// items before it. Items without captions still advance the offset.
func (a *Assembler) MergeCaptions(ctx context.Context, items []Item) ([]captions.Cue, error) {
	var merged []captions.Cue
	var offset float64
	for _, it := range items {
		dur := it.Duration
		if dur <= 0 && it.Path != "" {
			probed, err := media.Duration(ctx, a.run, it.Path)
			if err != nil {
				return nil, fmt.Errorf("probe %s: %w", it.Path, err)
			}
			dur = probed
		}
		if it.CaptionPath != "" {
			cues := captions.ParseFile(it.CaptionPath)
			merged = append(merged, captions.Offset(cues, offset)...)
		}
		offset += dur
	}
	return merged, nil
}

// AssembleWithCaptions runs Assemble and writes the merged caption track next
// to it. A caption failure does not undo a successful video assembly.
func (a *Assembler) AssembleWithCaptions(ctx context.Context, items []Item, outPath, captionPath string) error {
	if err := a.Assemble(ctx, items, outPath); err != nil {
		return err
	}
	cues, err := a.MergeCaptions(ctx, items)
	if err != nil {
		log.Printf("[timeline] ⚠️ Caption merge failed: %v", err)
		return nil
	}
	if len(cues) == 0 {
		return nil
	}
	if err := captions.WriteVTT(captionPath, cues); err != nil {
		log.Printf("[timeline] ⚠️ Could not write merged captions: %v", err)
	}
	return nil
}
