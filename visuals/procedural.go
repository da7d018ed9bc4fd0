package visuals

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/media"
	"shorts-pipeline/types"
)

// gradientPalette is the rotating set of dark gradient color pairs used for
// synthetic backgrounds, keyed by segment index.
var gradientPalette = [][2]string{
	{"0x1a1a2e", "0x16213e"},
	{"0x0f3460", "0x1a1a2e"},
	{"0x2d132c", "0x1b1b2f"},
	{"0x162447", "0x1f4068"},
}

// ProceduralProvider renders a deterministic gradient background. It is the
// guaranteed last resort: it depends on nothing external and always succeeds
// short of the transcoder itself breaking.
type ProceduralProvider struct {
	run    media.Runner
	render config.RenderConfig
}

func NewProceduralProvider(cfg *config.Config, run media.Runner) *ProceduralProvider {
	return &ProceduralProvider{run: run, render: cfg.Render}
}

func (p *ProceduralProvider) Name() string { return types.ProviderProcedural }

func (p *ProceduralProvider) Fetch(ctx context.Context, req Request) ([]types.VisualAsset, error) {
	pair := gradientPalette[abs(req.Index)%len(gradientPalette)]
	outFile := filepath.Join(req.WorkDir, fmt.Sprintf("%sgradient.mp4", assetPrefix(req.Index)))

	duration := req.Duration
	if duration <= 0 {
		duration = 5
	}

	src := fmt.Sprintf(
		"gradients=s=%dx%d:c0=%s:c1=%s:d=%.2f:speed=0.03",
		p.render.Width, p.render.Height, pair[0], pair[1], duration,
	)
	err := p.run.Run(ctx, media.Command{
		Name: "ffmpeg",
		Args: []string{
			"-y", "-f", "lavfi", "-i", src,
			"-t", fmt.Sprintf("%.2f", duration),
			"-r", fmt.Sprintf("%d", p.render.FPS),
			"-c:v", "libx264", "-preset", "ultrafast", "-crf", "28",
			"-pix_fmt", "yuv420p", "-an",
			outFile,
		},
		Timeout: time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("render gradient background: %w", err)
	}

	return []types.VisualAsset{{
		Path:     outFile,
		Kind:     types.AssetVideo,
		Provider: types.ProviderProcedural,
		Duration: duration,
	}}, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
