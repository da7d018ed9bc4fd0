package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Render   RenderConfig   `yaml:"render"`
	Captions CaptionsConfig `yaml:"captions"`
	Visuals  VisualsConfig  `yaml:"visuals"`
	Limits   LimitsConfig   `yaml:"limits"`
	Audio    AudioConfig    `yaml:"audio"`
	Research ResearchConfig `yaml:"research"`
	Script   ScriptConfig   `yaml:"script"`
	Upload   UploadConfig   `yaml:"upload"`
	Paths    PathsConfig    `yaml:"paths"`
}

// RenderConfig fixes the target resolution and frame rate per artifact class.
type RenderConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	FPS    int    `yaml:"fps"`
	Preset string `yaml:"preset"`
	CRF    int    `yaml:"crf"`
}

type CaptionsConfig struct {
	ChunkSize       int     `yaml:"chunk_size"`
	FontPath        string  `yaml:"font_path"`
	CaptionYRatio   float64 `yaml:"caption_y_ratio"`
	HookYRatio      float64 `yaml:"hook_y_ratio"`
	HookFontSize    int     `yaml:"hook_font_size"`
	HookDurationSec float64 `yaml:"hook_duration_sec"`
}

type VisualsConfig struct {
	Effects           []string `yaml:"effects"`
	ZoomCap           float64  `yaml:"zoom_cap"`
	ZoomStep          float64  `yaml:"zoom_step"`
	PanScale          float64  `yaml:"pan_scale"`
	ProviderDelaySec  float64  `yaml:"provider_delay_sec"`
	AttemptTimeoutSec float64  `yaml:"attempt_timeout_sec"`
	PexelsPerPage     int      `yaml:"pexels_per_page"`
}

// LimitsConfig holds the platform constraints honored at the boundary.
type LimitsConfig struct {
	MaxShortSec        float64 `yaml:"max_short_sec"`
	DefaultDurationSec float64 `yaml:"default_duration_sec"`
	DurationBufferSec  float64 `yaml:"duration_buffer_sec"`
	MinOutputBytes     int64   `yaml:"min_output_bytes"`
	MinImageBytes      int64   `yaml:"min_image_bytes"`
}

type AudioConfig struct {
	Voice string `yaml:"voice"`
	Rate  string `yaml:"rate"`
}

type ResearchConfig struct {
	Subreddits   []string `yaml:"subreddits"`
	MinScore     int      `yaml:"min_score"`
	MinComments  int      `yaml:"min_comments"`
	LookbackDays int      `yaml:"lookback_days"`
	MaxStories   int      `yaml:"max_stories"`
}

type ScriptConfig struct {
	GroqModel   string  `yaml:"groq_model"`
	Temperature float64 `yaml:"temperature"`
	MaxShorts   int     `yaml:"max_shorts"`
}

type UploadConfig struct {
	Visibility        string `yaml:"visibility"`
	CategoryID        string `yaml:"category_id"`
	DefaultLanguage   string `yaml:"default_language"`
	MadeForKids       bool   `yaml:"made_for_kids"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
	Logs   string `yaml:"logs"`
}

// Default returns the built-in configuration, matching the original pipeline's
// constants (1080x1920 @ 30fps vertical shorts, 59s platform cap).
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:  1080,
			Height: 1920,
			FPS:    30,
			Preset: "fast",
			CRF:    23,
		},
		Captions: CaptionsConfig{
			ChunkSize:       3,
			FontPath:        "/usr/share/fonts/truetype/msttcorefonts/Arial_Bold.ttf",
			CaptionYRatio:   0.68,
			HookYRatio:      0.28,
			HookFontSize:    90,
			HookDurationSec: 2.5,
		},
		Visuals: VisualsConfig{
			Effects:           []string{"zoom_in", "zoom_out", "pan_down", "pan_up"},
			ZoomCap:           1.15,
			ZoomStep:          0.0008,
			PanScale:          1.12,
			ProviderDelaySec:  2.0,
			AttemptTimeoutSec: 120,
			PexelsPerPage:     3,
		},
		Limits: LimitsConfig{
			MaxShortSec:        59,
			DefaultDurationSec: 45,
			DurationBufferSec:  0.5,
			MinOutputBytes:     10000,
			MinImageBytes:      5000,
		},
		Audio: AudioConfig{
			Voice: "en-US-AndrewMultilingualNeural",
			Rate:  "+0%",
		},
		Research: ResearchConfig{
			Subreddits:   []string{"nosleep", "LetsNotMeet", "UnresolvedMysteries"},
			MinScore:     500,
			MinComments:  50,
			LookbackDays: 7,
			MaxStories:   25,
		},
		Script: ScriptConfig{
			GroqModel:   "llama-3.3-70b-versatile",
			Temperature: 0.7,
			MaxShorts:   3,
		},
		Upload: UploadConfig{
			Visibility:        "public",
			CategoryID:        "24",
			DefaultLanguage:   "en",
			MadeForKids:       false,
			NotifySubscribers: true,
		},
		Paths: PathsConfig{
			Output: "output",
			Logs:   "logs",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error: the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render dimensions must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.Render.FPS)
	}
	if c.Captions.ChunkSize <= 0 {
		return fmt.Errorf("caption chunk size must be positive, got %d", c.Captions.ChunkSize)
	}
	if c.Limits.MaxShortSec <= 0 {
		return fmt.Errorf("max short duration must be positive, got %.1f", c.Limits.MaxShortSec)
	}
	return nil
}
