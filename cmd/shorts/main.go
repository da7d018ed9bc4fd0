package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"shorts-pipeline/compose"
	"shorts-pipeline/config"
	"shorts-pipeline/media"
	"shorts-pipeline/merge"
	"shorts-pipeline/motion"
	"shorts-pipeline/overlay"
	"shorts-pipeline/pipeline"
	"shorts-pipeline/timeline"
	"shorts-pipeline/types"
	"shorts-pipeline/upload"
	"shorts-pipeline/visuals"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	// Local dev only; CI injects secrets through the environment.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "shorts",
		Short:         "Automated vertical shorts pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	root.AddCommand(runCmd(), visualsCmd(), assembleCmd(), compileCmd(), uploadCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: research, script, render, compile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, err := pipeline.New(cfg)
			if err != nil {
				return err
			}
			manifest := p.Run(cmd.Context())
			if !manifest.Success {
				return fmt.Errorf("pipeline failed: %s", manifest.Error)
			}
			return nil
		},
	}
}

func visualsCmd() *cobra.Command {
	var keywords string
	var duration float64
	var dir string

	cmd := &cobra.Command{
		Use:   "visuals",
		Short: "Acquire background assets for a set of keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			chain := visuals.NewDefaultChain(cfg, media.ExecRunner{})
			assets, err := chain.Acquire(cmd.Context(), visuals.Request{
				Index:    1,
				Keywords: strings.Split(keywords, ","),
				Duration: duration,
				WorkDir:  dir,
			})
			if err != nil {
				return err
			}
			for _, a := range assets {
				log.Printf("%s (%s): %s", a.Kind, a.Provider, a.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keywords, "keywords", "", "comma-separated visual keywords")
	cmd.Flags().Float64Var(&duration, "duration", 10, "target clip duration in seconds")
	cmd.Flags().StringVar(&dir, "dir", "visuals_out", "directory to place assets in")
	cmd.MarkFlagRequired("keywords")
	return cmd
}

func assembleCmd() *cobra.Command {
	var imagesDir string
	var audioPath string
	var captionPath string
	var hook string
	var out string

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Render one short from local images, narration audio and captions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			run := media.ExecRunner{}
			gen, err := motion.NewGenerator(cfg)
			if err != nil {
				return err
			}

			assets, err := collectImages(imagesDir, cfg.Limits.MinImageBytes)
			if err != nil {
				return err
			}

			var audioDur float64
			if audioPath != "" {
				audioDur, err = media.Duration(cmd.Context(), run, audioPath)
				if err != nil {
					return fmt.Errorf("probe audio: %w", err)
				}
			}

			merger := merge.New(cfg, run)
			target := merger.RequestedDuration(audioDur)
			if target > cfg.Limits.MaxShortSec {
				target = cfg.Limits.MaxShortSec
			}

			bgPath := out + ".bg.mp4"
			compositor := compose.New(cfg, run, gen)
			if err := compositor.Background(cmd.Context(), assets, target, 1, bgPath); err != nil {
				return err
			}

			seg := &types.Segment{SegmentNumber: 1, SubtitlePath: captionPath, HookText: hook}
			filter := pipeline.CaptionFilter(cfg, overlay.NewBuilder(cfg), seg)

			dur, err := merger.Merge(cmd.Context(), bgPath, audioPath, filter, merger.RequestedDuration(audioDur), out)
			if err != nil {
				return err
			}
			log.Printf("✅ %s (%.1fs)", out, dur)
			return nil
		},
	}
	cmd.Flags().StringVar(&imagesDir, "images", "", "directory of background images")
	cmd.Flags().StringVar(&audioPath, "audio", "", "narration audio file")
	cmd.Flags().StringVar(&captionPath, "captions", "", "WebVTT cue file for word-synced captions")
	cmd.Flags().StringVar(&hook, "hook", "", "on-screen hook text")
	cmd.Flags().StringVar(&out, "out", "short.mp4", "output video path")
	cmd.MarkFlagRequired("images")
	return cmd
}

func compileCmd() *cobra.Command {
	var dir string
	var out string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Concatenate rendered shorts into one compilation",
		RunE: func(cmd *cobra.Command, args []string) error {
			run := media.ExecRunner{}
			paths, err := filepath.Glob(filepath.Join(dir, "short_*.mp4"))
			if err != nil || len(paths) == 0 {
				return fmt.Errorf("no short_*.mp4 files in %s", dir)
			}
			sort.Strings(paths)

			items := make([]timeline.Item, 0, len(paths))
			for _, p := range paths {
				vtt := strings.TrimSuffix(p, ".mp4") + ".vtt"
				if _, err := os.Stat(vtt); err != nil {
					vtt = ""
				}
				items = append(items, timeline.Item{Path: p, CaptionPath: vtt})
			}
			assembler := timeline.New(run)
			return assembler.AssembleWithCaptions(cmd.Context(), items, out, strings.TrimSuffix(out, ".mp4")+".vtt")
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory containing short_*.mp4 files")
	cmd.Flags().StringVar(&out, "out", "compilation.mp4", "output video path")
	return cmd
}

func uploadCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the shorts listed in a run manifest to YouTube",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			manifest, err := pipeline.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			if !manifest.Success {
				return fmt.Errorf("manifest reports failure: %s", manifest.Error)
			}

			uploader := upload.New(cfg)
			var failed int
			for i := range manifest.Shorts {
				short := &manifest.Shorts[i]
				id, url, err := uploader.Run(cmd.Context(), short)
				if err != nil {
					log.Printf("⚠️ Upload failed for %s: %v", short.Path, err)
					failed++
					continue
				}
				_ = upload.LogUpload(id, url, short, cfg.Paths.Logs)
			}
			if failed == len(manifest.Shorts) {
				return fmt.Errorf("all %d uploads failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "path to a run manifest.json")
	cmd.MarkFlagRequired("manifest")
	return cmd
}

func collectImages(dir string, minBytes int64) ([]types.VisualAsset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read images dir: %w", err)
	}
	var assets []types.VisualAsset
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() < minBytes {
			continue
		}
		assets = append(assets, types.VisualAsset{
			Path:     filepath.Join(dir, e.Name()),
			Kind:     types.AssetImage,
			Provider: types.ProviderCached,
		})
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("no usable images in %s", dir)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })
	return assets, nil
}
