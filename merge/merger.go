// Package merge muxes a segment's background video, narration audio, and
// caption overlay chain into the final short.
package merge

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/media"
)

type Merger struct {
	render config.RenderConfig
	limits config.LimitsConfig
	run    media.Runner
}

func New(cfg *config.Config, run media.Runner) *Merger {
	return &Merger{render: cfg.Render, limits: cfg.Limits, run: run}
}

// RequestedDuration derives the target duration from the narration length
// plus a small tail buffer, or the configured default when no audio duration
// is known.
func (m *Merger) RequestedDuration(audioDuration float64) float64 {
	if audioDuration > 0 {
		return audioDuration + m.limits.DurationBufferSec
	}
	return m.limits.DefaultDurationSec
}

// Merge combines the background at bgPath with the narration at audioPath
// (optional, may be empty) and the drawtext filter chain (optional, may be
// empty), writing the result to outPath. The requested duration is capped at
// the platform maximum. The background file is a throwaway intermediate and
// is removed whether or not the merge succeeds. Returns the final duration.
func (m *Merger) Merge(ctx context.Context, bgPath, audioPath, filter string, requested float64, outPath string) (float64, error) {
	defer os.Remove(bgPath)

	duration := requested
	if duration <= 0 {
		duration = m.limits.DefaultDurationSec
	}
	if duration > m.limits.MaxShortSec {
		log.Printf("[merge] Capping duration %.1fs to platform limit %.0fs", duration, m.limits.MaxShortSec)
		duration = m.limits.MaxShortSec
	}

	args := []string{"-y", "-i", bgPath}
	if audioPath != "" {
		args = append(args, "-i", audioPath)
	}
	if filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args, "-t", fmt.Sprintf("%.2f", duration), "-map", "0:v")
	if audioPath != "" {
		args = append(args,
			"-map", "1:a",
			"-c:a", "aac", "-b:a", "128k",
			"-shortest",
		)
	}
	args = append(args,
		"-c:v", "libx264", "-preset", m.render.Preset, "-crf", fmt.Sprintf("%d", m.render.CRF),
		"-pix_fmt", "yuv420p",
		outPath,
	)

	err := m.run.Run(ctx, media.Command{Name: "ffmpeg", Args: args, Timeout: 10 * time.Minute})
	if err != nil {
		return 0, fmt.Errorf("merge mux: %w", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return 0, fmt.Errorf("merged output missing: %w", err)
	}
	if info.Size() < m.limits.MinOutputBytes {
		os.Remove(outPath)
		return 0, fmt.Errorf("merged output suspiciously small (%d bytes)", info.Size())
	}

	final, err := media.Duration(ctx, m.run, outPath)
	if err != nil {
		// The file is valid even if probing fails; report the target.
		log.Printf("[merge] ⚠️ Could not probe final duration: %v", err)
		final = duration
	}
	return final, nil
}
