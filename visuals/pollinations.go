package visuals

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/retry"
	"shorts-pipeline/types"
)

// AIImageProvider generates still images via Pollinations.ai (free, key
// optional). One image per scene prompt; the segment succeeds when at least
// one image validates.
type AIImageProvider struct {
	httpClient *http.Client
	width      int
	height     int
	validate   Validator
	retry      retry.Policy
	apiKey     string
}

func NewAIImageProvider(cfg *config.Config, v Validator) *AIImageProvider {
	return &AIImageProvider{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		width:      cfg.Render.Width,
		height:     cfg.Render.Height,
		validate:   v,
		retry:      retry.Policy{Attempts: 3, Delay: 3 * time.Second, Backoff: true},
		apiKey:     os.Getenv("POLLINATIONS_API_KEY"),
	}
}

func (p *AIImageProvider) Name() string { return types.ProviderAIImage }

func (p *AIImageProvider) Fetch(ctx context.Context, req Request) ([]types.VisualAsset, error) {
	prompts := req.Prompts
	if len(prompts) == 0 {
		prompt := derivePrompt(req.Keywords, req.Narration)
		if prompt == "" {
			return nil, fmt.Errorf("segment %d has no keywords or narration to prompt from", req.Index)
		}
		prompts = []string{prompt}
	}

	var assets []types.VisualAsset
	for j, prompt := range prompts {
		outFile := filepath.Join(req.WorkDir, fmt.Sprintf("%sscene%02d.jpg", assetPrefix(req.Index), j+1))

		log.Printf("[visuals] Segment %d scene %d: generating AI image %q", req.Index, j+1, truncate(prompt, 60))
		err := p.retry.Do(ctx, func() error {
			if err := p.download(ctx, prompt, req.Index*31+j, outFile); err != nil {
				return err
			}
			return p.validate.Image(outFile)
		})
		if err != nil {
			log.Printf("[visuals] Segment %d scene %d: image failed: %v", req.Index, j+1, err)
			continue
		}
		assets = append(assets, types.VisualAsset{
			Path:     outFile,
			Kind:     types.AssetImage,
			Provider: types.ProviderAIImage,
		})
	}

	if len(assets) == 0 {
		return nil, fmt.Errorf("no AI image validated for segment %d", req.Index)
	}
	return assets, nil
}

func (p *AIImageProvider) download(ctx context.Context, prompt string, seed int, outFile string) error {
	imageURL := fmt.Sprintf(
		"https://gen.pollinations.ai/image/%s?width=%d&height=%d&model=flux&nologo=true&enhance=true&seed=%d",
		url.PathEscape(enhancePrompt(prompt)),
		p.width, p.height,
		seed*42+7,
	)

	httpReq, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ShortsPipeline/1.0)")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from image service", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) < 100 {
		return fmt.Errorf("response too small (%d bytes) — likely an error page", len(data))
	}
	return os.WriteFile(outFile, data, 0644)
}

// derivePrompt builds an image prompt from segment keywords plus the first
// narration sentence for context.
func derivePrompt(keywords []string, narration string) string {
	parts := keywords
	if len(parts) > 3 {
		parts = parts[:3]
	}
	prompt := strings.Join(parts, " ")

	if narration != "" {
		first := strings.SplitN(narration, ".", 2)[0]
		if len(first) > 100 {
			first = first[:100]
		}
		if prompt == "" {
			prompt = first
		} else {
			prompt = first + ", " + prompt
		}
	}
	return strings.TrimSpace(prompt)
}

// enhancePrompt adds cinematic style and safety modifiers to the base prompt.
func enhancePrompt(base string) string {
	return base + ", cinematic scene, professional photography, cinematic color grading, " +
		"dark moody atmosphere, dramatic lighting, no text, no watermark, no people's faces"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
