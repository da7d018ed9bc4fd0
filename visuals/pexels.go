package visuals

import (
	"context"
	"encoding/json"
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
	"shorts-pipeline/media"
	"shorts-pipeline/types"
)

// StockProvider queries Pexels for stock footage matching the segment
// keywords and normalizes the first acceptable clip to the target aspect and
// duration.
type StockProvider struct {
	httpClient *http.Client
	apiKey     string
	run        media.Runner
	render     config.RenderConfig
	perPage    int
	validate   Validator
}

// stockMinWidth is the minimum acceptable source resolution for a clip.
const stockMinWidth = 1280

func NewStockProvider(cfg *config.Config, run media.Runner, v Validator) *StockProvider {
	return &StockProvider{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     os.Getenv("PEXELS_API_KEY"),
		run:        run,
		render:     cfg.Render,
		perPage:    cfg.Visuals.PexelsPerPage,
		validate:   v,
	}
}

func (s *StockProvider) Name() string { return types.ProviderStock }

func (s *StockProvider) Fetch(ctx context.Context, req Request) ([]types.VisualAsset, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("PEXELS_API_KEY not set")
	}
	if len(req.Keywords) == 0 {
		return nil, fmt.Errorf("segment %d has no keywords to search with", req.Index)
	}

	query := strings.Join(req.Keywords[:min(2, len(req.Keywords))], " ")
	log.Printf("[visuals] Segment %d: searching stock footage for %q", req.Index, query)

	clipURL, err := s.search(ctx, query)
	if err != nil {
		return nil, err
	}

	rawFile := filepath.Join(req.WorkDir, fmt.Sprintf("%sraw.mp4", assetPrefix(req.Index)))
	outFile := filepath.Join(req.WorkDir, fmt.Sprintf("%sstock.mp4", assetPrefix(req.Index)))
	defer os.Remove(rawFile)

	if err := s.download(ctx, clipURL, rawFile); err != nil {
		return nil, fmt.Errorf("download stock clip: %w", err)
	}
	if err := s.normalize(ctx, rawFile, outFile, req.Duration); err != nil {
		return nil, fmt.Errorf("normalize stock clip: %w", err)
	}
	if err := s.validate.Video(outFile); err != nil {
		return nil, err
	}

	return []types.VisualAsset{{
		Path:     outFile,
		Kind:     types.AssetVideo,
		Provider: types.ProviderStock,
		Duration: req.Duration,
	}}, nil
}

type pexelsResponse struct {
	Videos []struct {
		Duration   int `json:"duration"`
		VideoFiles []struct {
			Link    string `json:"link"`
			Quality string `json:"quality"`
			Width   int    `json:"width"`
		} `json:"video_files"`
	} `json:"videos"`
}

// search returns the first clip URL meeting the quality threshold.
func (s *StockProvider) search(ctx context.Context, query string) (string, error) {
	reqURL := fmt.Sprintf(
		"https://api.pexels.com/videos/search?query=%s&per_page=%d&orientation=landscape&size=medium",
		url.QueryEscape(query), s.perPage,
	)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", s.apiKey)
	httpReq.Header.Set("User-Agent", "shorts-pipeline/1.0")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from stock search", resp.StatusCode)
	}

	var result pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	for _, video := range result.Videos {
		for _, vf := range video.VideoFiles {
			if vf.Quality == "hd" && vf.Width >= stockMinWidth {
				return vf.Link, nil
			}
		}
	}
	return "", fmt.Errorf("no clip meets the quality threshold for %q", query)
}

func (s *StockProvider) download(ctx context.Context, clipURL, outFile string) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", clipURL, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("User-Agent", "shorts-pipeline/1.0")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d downloading clip", resp.StatusCode)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

// normalize scales and pads the clip to the target aspect and loops/trims it
// to the target duration, dropping the source audio.
func (s *StockProvider) normalize(ctx context.Context, inFile, outFile string, duration float64) error {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,setsar=1",
		s.render.Width, s.render.Height, s.render.Width, s.render.Height,
	)
	return s.run.Run(ctx, media.Command{
		Name: "ffmpeg",
		Args: []string{
			"-y", "-stream_loop", "-1", "-i", inFile,
			"-t", fmt.Sprintf("%.2f", duration),
			"-vf", vf,
			"-c:v", "libx264", "-preset", s.render.Preset, "-crf", "26",
			"-an", "-r", fmt.Sprintf("%d", s.render.FPS),
			outFile,
		},
		Timeout: 2 * time.Minute,
	})
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
