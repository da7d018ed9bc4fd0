// Package audio narrates segment text with edge-tts and produces the
// word-level subtitle track the caption stage consumes.
package audio

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/media"
	"shorts-pipeline/retry"
	"shorts-pipeline/types"
)

// Narrator synthesizes narration audio via the edge-tts CLI.
type Narrator struct {
	cfg *config.AudioConfig
	run media.Runner
}

func New(cfg *config.Config, run media.Runner) *Narrator {
	return &Narrator{cfg: &cfg.Audio, run: run}
}

// Narrate synthesizes seg.Narration into an mp3 plus a word-timed VTT file,
// both under workDir. It fills in AudioPath, SubtitlePath and AudioDuration on
// the segment. Subtitle generation is best-effort: the short can still be
// rendered without synced captions.
func (n *Narrator) Narrate(ctx context.Context, seg *types.Segment, workDir string) error {
	text := strings.TrimSpace(seg.Narration)
	if text == "" {
		return fmt.Errorf("segment %d has no narration", seg.SegmentNumber)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}

	audioPath := filepath.Join(workDir, fmt.Sprintf("seg%02d_voice.mp3", seg.SegmentNumber))
	subPath := filepath.Join(workDir, fmt.Sprintf("seg%02d_voice.vtt", seg.SegmentNumber))

	policy := retry.Policy{Attempts: 3, Delay: 2 * time.Second, Backoff: true}
	err := policy.Do(ctx, func() error {
		return n.run.Run(ctx, media.Command{
			Name: "edge-tts",
			Args: []string{
				"--voice", n.cfg.Voice,
				"--rate", n.cfg.Rate,
				"--text", text,
				"--write-media", audioPath,
				"--write-subtitles", subPath,
			},
			Timeout: 2 * time.Minute,
		})
	})
	if err != nil {
		return fmt.Errorf("edge-tts for segment %d: %w", seg.SegmentNumber, err)
	}

	info, statErr := os.Stat(audioPath)
	if statErr != nil || info.Size() == 0 {
		return fmt.Errorf("edge-tts produced no audio for segment %d", seg.SegmentNumber)
	}

	seg.AudioPath = audioPath
	if _, statErr := os.Stat(subPath); statErr == nil {
		seg.SubtitlePath = subPath
	} else {
		log.Printf("[audio] ⚠️ Segment %d: no subtitle track written, captions will be skipped", seg.SegmentNumber)
	}

	dur, err := media.Duration(ctx, n.run, audioPath)
	if err != nil {
		log.Printf("[audio] ⚠️ Segment %d: could not probe narration duration: %v", seg.SegmentNumber, err)
	} else {
		seg.AudioDuration = dur
	}

	log.Printf("[audio] Segment %d: %.2fs narration → %s", seg.SegmentNumber, seg.AudioDuration, filepath.Base(audioPath))
	return nil
}
