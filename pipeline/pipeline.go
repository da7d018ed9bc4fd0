// Package pipeline orchestrates the full run: research, scripting, narration,
// visuals, composition, merge, compilation and the final manifest.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"shorts-pipeline/audio"
	"shorts-pipeline/captions"
	"shorts-pipeline/compose"
	"shorts-pipeline/config"
	"shorts-pipeline/media"
	"shorts-pipeline/merge"
	"shorts-pipeline/motion"
	"shorts-pipeline/overlay"
	"shorts-pipeline/research"
	"shorts-pipeline/script"
	"shorts-pipeline/timeline"
	"shorts-pipeline/types"
	"shorts-pipeline/visuals"

	"github.com/google/uuid"
)

type Pipeline struct {
	cfg        *config.Config
	run        media.Runner
	narrator   *audio.Narrator
	chain      *visuals.Chain
	compositor *compose.Compositor
	merger     *merge.Merger
	overlays   *overlay.Builder
	assembler  *timeline.Assembler
}

func New(cfg *config.Config) (*Pipeline, error) {
	run := media.ExecRunner{}
	gen, err := motion.NewGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("motion config: %w", err)
	}
	return &Pipeline{
		cfg:        cfg,
		run:        run,
		narrator:   audio.New(cfg, run),
		chain:      visuals.NewDefaultChain(cfg, run),
		compositor: compose.New(cfg, run, gen),
		merger:     merge.New(cfg, run),
		overlays:   overlay.NewBuilder(cfg),
		assembler:  timeline.New(run),
	}, nil
}

// Run executes the whole pipeline. It never panics out: the returned manifest
// always reflects what happened, including total failure, and is also written
// to <output>/<runID>/manifest.json.
func (p *Pipeline) Run(ctx context.Context) *types.Manifest {
	start := time.Now()
	runID := uuid.NewString()[:8]
	manifest := &types.Manifest{RunID: runID}

	runDir := filepath.Join(p.cfg.Paths.Output, runID)
	defer func() {
		manifest.ElapsedSec = int(time.Since(start).Seconds())
		saveJSON(filepath.Join(runDir, "manifest.json"), manifest)
	}()

	for _, dir := range []string{p.cfg.Paths.Output, p.cfg.Paths.Logs, runDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			manifest.Error = fmt.Sprintf("create dir %s: %v", dir, err)
			return manifest
		}
	}

	log.Printf("🎬 Shorts pipeline starting — Run ID: %s", runID)
	log.Printf("📁 Output dir: %s", runDir)

	log.Println("━━━ STAGE 1: Research ━━━")
	scraper, err := research.New(p.cfg)
	if err != nil {
		manifest.Error = fmt.Sprintf("research init: %v", err)
		return manifest
	}
	story, err := scraper.Run(ctx)
	if err != nil {
		manifest.Error = fmt.Sprintf("research: %v", err)
		return manifest
	}
	saveJSON(filepath.Join(runDir, "story.json"), story)

	log.Println("━━━ STAGE 2: Script Writing ━━━")
	writer := script.New(p.cfg)
	scripts, err := writer.Run(ctx, story)
	if err != nil {
		manifest.Error = fmt.Sprintf("script: %v", err)
		return manifest
	}
	saveJSON(filepath.Join(runDir, "script.json"), scripts)

	log.Println("━━━ STAGE 3: Rendering shorts ━━━")
	for i := range scripts.Segments {
		seg := &scripts.Segments[i]
		record, err := p.RenderSegment(ctx, seg, scripts.ScenePrompts[seg.SegmentNumber], runDir)
		if err != nil {
			log.Printf("⚠️ Short %d failed: %v — continuing with the rest", seg.SegmentNumber, err)
			continue
		}
		record.Source = scripts.Source
		manifest.Shorts = append(manifest.Shorts, *record)
	}
	saveJSON(filepath.Join(runDir, "script.json"), scripts)

	if len(manifest.Shorts) == 0 {
		manifest.Error = "no shorts were rendered"
		return manifest
	}

	if len(manifest.Shorts) > 1 {
		log.Println("━━━ STAGE 4: Compilation ━━━")
		compPath, err := p.Compile(ctx, scripts.Segments, manifest.Shorts, runDir)
		if err != nil {
			log.Printf("⚠️ Compilation failed: %v — shorts remain individually usable", err)
		} else {
			manifest.Compilation = compPath
		}
	}

	manifest.Success = true
	log.Printf("✅ Pipeline complete: %d shorts in %s", len(manifest.Shorts), time.Since(start).Round(time.Second))
	return manifest
}

// RenderSegment takes one scripted segment through narration, visual
// acquisition, background composition and the final merge. The returned record
// points at the finished short.
func (p *Pipeline) RenderSegment(ctx context.Context, seg *types.Segment, prompts []string, runDir string) (*types.ShortRecord, error) {
	workDir := filepath.Join(runDir, fmt.Sprintf("seg%02d", seg.SegmentNumber))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create segment dir: %w", err)
	}

	if err := p.narrator.Narrate(ctx, seg, workDir); err != nil {
		return nil, fmt.Errorf("narration: %w", err)
	}

	target := p.merger.RequestedDuration(seg.AudioDuration)
	if target > p.cfg.Limits.MaxShortSec {
		target = p.cfg.Limits.MaxShortSec
	}

	assets, err := p.chain.Acquire(ctx, visuals.Request{
		Index:     seg.SegmentNumber,
		Keywords:  seg.VisualKeywords,
		Narration: seg.Narration,
		Prompts:   prompts,
		Duration:  target,
		WorkDir:   workDir,
	})
	if err != nil {
		return nil, fmt.Errorf("visuals: %w", err)
	}
	seg.VisualAssets = assets

	bgPath := filepath.Join(workDir, fmt.Sprintf("seg%02d_bg.mp4", seg.SegmentNumber))
	if err := p.compositor.Background(ctx, assets, target, seg.SegmentNumber, bgPath); err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}

	filter := p.captionFilter(seg)

	outPath := filepath.Join(runDir, fmt.Sprintf("short_%02d.mp4", seg.SegmentNumber))
	finalDur, err := p.merger.Merge(ctx, bgPath, seg.AudioPath, filter, p.merger.RequestedDuration(seg.AudioDuration), outPath)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	p.cleanupSceneImages(seg)

	log.Printf("[pipeline] ✅ Short %d ready: %s (%.1fs)", seg.SegmentNumber, filepath.Base(outPath), finalDur)
	return &types.ShortRecord{
		Path:        outPath,
		Title:       seg.Title,
		Description: seg.Description,
		Tags:        seg.Tags,
		Duration:    finalDur,
		HookText:    seg.HookText,
		ImagesUsed:  len(assets),
	}, nil
}

// captionFilter builds the drawtext chain for the segment. A missing or empty
// subtitle track yields at most the hook overlay; an empty string means no
// video filter at all.
func (p *Pipeline) captionFilter(seg *types.Segment) string {
	return CaptionFilter(p.cfg, p.overlays, seg)
}

// CaptionFilter is the shared caption-to-filter path, also used by the
// standalone assemble command.
func CaptionFilter(cfg *config.Config, overlays *overlay.Builder, seg *types.Segment) string {
	var descs []overlay.Descriptor
	if hook, ok := overlays.Hook(seg.HookText); ok {
		descs = append(descs, hook)
	}
	if seg.SubtitlePath != "" {
		cues := captions.ParseFile(seg.SubtitlePath)
		words := captions.DistributeWords(cues)
		groups := captions.GroupWords(words, cfg.Captions.ChunkSize)
		descs = append(descs, overlays.FromGroups(groups)...)
	}
	if len(descs) == 0 {
		return ""
	}
	return overlay.Filter(descs)
}

// LoadManifest reads a previously written run manifest.
func LoadManifest(path string) (*types.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m types.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// cleanupSceneImages removes still images once the short is rendered; stock
// and procedural clips are kept for the compilation pass.
func (p *Pipeline) cleanupSceneImages(seg *types.Segment) {
	for _, a := range seg.VisualAssets {
		if a.Kind == types.AssetImage {
			_ = os.Remove(a.Path)
		}
	}
}

// Compile stitches the rendered shorts into one compilation video with a
// merged caption track.
func (p *Pipeline) Compile(ctx context.Context, segments []types.Segment, shorts []types.ShortRecord, runDir string) (string, error) {
	subtitles := make(map[string]string, len(segments))
	for _, seg := range segments {
		key := fmt.Sprintf("short_%02d.mp4", seg.SegmentNumber)
		subtitles[key] = seg.SubtitlePath
	}

	items := make([]timeline.Item, 0, len(shorts))
	for _, s := range shorts {
		items = append(items, timeline.Item{
			Path:        s.Path,
			Duration:    s.Duration,
			CaptionPath: subtitles[filepath.Base(s.Path)],
		})
	}

	outPath := filepath.Join(runDir, "compilation.mp4")
	captionPath := filepath.Join(runDir, "compilation.vtt")
	if err := p.assembler.AssembleWithCaptions(ctx, items, outPath, captionPath); err != nil {
		return "", err
	}
	return outPath, nil
}

func saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Warning: could not marshal JSON for %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("Warning: could not save %s: %v", path, err)
	}
}
