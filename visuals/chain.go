// Package visuals guarantees every segment ends up with a valid background
// asset despite unreliable upstream generators, by walking a fixed fallback
// chain of providers.
package visuals

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
	"shorts-pipeline/types"
)

// Request describes one segment's visual needs.
type Request struct {
	Index     int
	Keywords  []string
	Narration string
	// Prompts are optional per-scene image prompts; when empty the AI
	// provider derives a single prompt from keywords and narration.
	Prompts  []string
	Duration float64
	WorkDir  string
}

// Provider is one visual-asset source. Fetch returns at least one validated
// asset or an error; an error never aborts the pipeline, it advances the
// chain.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]types.VisualAsset, error)
}

// Acquisition state machine. Transitions occur strictly in this order; DONE is
// reached on first success, FAILED only if even the procedural tier errors.
type state int

const (
	stateNeedVisual state = iota
	stateTryAIImage
	stateTryStock
	stateTryProcedural
	stateDone
	stateFailed
)

// Chain walks AI image -> stock footage -> procedural until one provider
// yields a valid asset.
type Chain struct {
	aiImage    Provider
	stock      Provider
	procedural Provider
	validate   Validator
	delay      time.Duration
	timeout    time.Duration
}

// NewChain wires an explicit provider set; tests substitute fakes here.
func NewChain(ai, stock, procedural Provider, v Validator, delay, timeout time.Duration) *Chain {
	return &Chain{
		aiImage:    ai,
		stock:      stock,
		procedural: procedural,
		validate:   v,
		delay:      delay,
		timeout:    timeout,
	}
}

// NewDefaultChain builds the production chain from configuration: Pollinations
// AI images, Pexels stock footage, procedural gradients.
func NewDefaultChain(cfg *config.Config, run media.Runner) *Chain {
	v := Validator{
		MinImageBytes: cfg.Limits.MinImageBytes,
		MinVideoBytes: cfg.Limits.MinOutputBytes,
	}
	return NewChain(
		NewAIImageProvider(cfg, v),
		NewStockProvider(cfg, run, v),
		NewProceduralProvider(cfg, run),
		v,
		time.Duration(cfg.Visuals.ProviderDelaySec*float64(time.Second)),
		time.Duration(cfg.Visuals.AttemptTimeoutSec*float64(time.Second)),
	)
}

// Acquire runs the fallback state machine for one segment. Previously acquired
// assets that still validate are reused without invoking any provider.
func (c *Chain) Acquire(ctx context.Context, req Request) ([]types.VisualAsset, error) {
	st := stateNeedVisual
	var assets []types.VisualAsset
	var lastErr error

	for {
		switch st {
		case stateNeedVisual:
			if cached, ok := c.reuseExisting(req); ok {
				log.Printf("[visuals] Segment %d: reusing %d existing asset(s)", req.Index, len(cached))
				return cached, nil
			}
			st = stateTryAIImage

		case stateTryAIImage:
			assets, lastErr = c.attempt(ctx, c.aiImage, req, true)
			st = advance(lastErr, stateDone, stateTryStock)

		case stateTryStock:
			assets, lastErr = c.attempt(ctx, c.stock, req, true)
			st = advance(lastErr, stateDone, stateTryProcedural)

		case stateTryProcedural:
			assets, lastErr = c.attempt(ctx, c.procedural, req, false)
			st = advance(lastErr, stateDone, stateFailed)

		case stateDone:
			return assets, nil

		case stateFailed:
			return nil, fmt.Errorf("segment %d: all visual providers failed: %w", req.Index, lastErr)
		}
	}
}

func advance(err error, onSuccess, onFailure state) state {
	if err == nil {
		return onSuccess
	}
	return onFailure
}

// attempt wraps one provider call with the inter-call rate-limit delay (for
// external providers) and the per-attempt timeout. A timeout or provider
// error is a validation failure, never a pipeline failure.
func (c *Chain) attempt(ctx context.Context, p Provider, req Request, external bool) ([]types.VisualAsset, error) {
	if p == nil {
		return nil, fmt.Errorf("provider not configured")
	}
	if external && c.delay > 0 {
		time.Sleep(c.delay)
	}

	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	assets, err := p.Fetch(attemptCtx, req)
	if err != nil {
		log.Printf("[visuals] Segment %d: provider %s failed: %v", req.Index, p.Name(), err)
		return nil, err
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("provider %s returned no assets", p.Name())
	}
	log.Printf("[visuals] Segment %d: %s provided %d asset(s)", req.Index, p.Name(), len(assets))
	return assets, nil
}

// reuseExisting scans the segment's deterministic asset paths and reuses them
// when they still pass validation.
func (c *Chain) reuseExisting(req Request) ([]types.VisualAsset, bool) {
	prefix := assetPrefix(req.Index)
	entries, err := os.ReadDir(req.WorkDir)
	if err != nil {
		return nil, false
	}

	var assets []types.VisualAsset
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		path := filepath.Join(req.WorkDir, e.Name())
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			if c.validate.Image(path) == nil {
				assets = append(assets, types.VisualAsset{
					Path: path, Kind: types.AssetImage, Provider: types.ProviderCached,
				})
			}
		case ".mp4":
			if c.validate.Video(path) == nil {
				assets = append(assets, types.VisualAsset{
					Path: path, Kind: types.AssetVideo, Provider: types.ProviderCached,
					Duration: req.Duration,
				})
			}
		}
	}
	return assets, len(assets) > 0
}

// assetPrefix keys every asset filename to its segment so reruns find them and
// parallel segments never collide.
func assetPrefix(index int) string {
	return fmt.Sprintf("seg%02d_", index)
}
