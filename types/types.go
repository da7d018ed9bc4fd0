package types

// AssetKind distinguishes still images from video clips.
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetVideo AssetKind = "video"
)

// Visual asset provider tags, in the order the fallback chain tries them.
const (
	ProviderAIImage    = "ai_image"
	ProviderStock      = "stock_footage"
	ProviderProcedural = "procedural"
	// ProviderCached marks an asset reused from a previous run without
	// re-invoking any external provider.
	ProviderCached = "cached"
)

// VisualAsset is one validated background asset owned by a segment.
type VisualAsset struct {
	Path     string    `json:"path"`
	Kind     AssetKind `json:"kind"`
	Provider string    `json:"provider"`
	Duration float64   `json:"duration"`
}

// Segment is one narrated unit of the timeline. A segment is complete once it
// owns at least one valid visual asset and an audio file (or is deliberately
// silent).
type Segment struct {
	SegmentNumber  int      `json:"segment_number"`
	Narration      string   `json:"narration"`
	VisualKeywords []string `json:"visual_keywords"`
	AudioDuration  float64  `json:"audio_duration"`
	AudioPath      string   `json:"audio_path"`
	SubtitlePath   string   `json:"subtitle_path"`

	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	HookText    string   `json:"hook_text,omitempty"`

	VisualAssets []VisualAsset `json:"visual_assets,omitempty"`
}

// ShortRecord describes one finished vertical artifact in the manifest.
type ShortRecord struct {
	Path        string   `json:"path"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Duration    float64  `json:"duration"`
	HookText    string   `json:"hook_text"`
	ImagesUsed  int      `json:"images_used"`
	Source      string   `json:"source,omitempty"`
}

// Manifest is the pipeline's sole externally visible result. It is always
// written as valid JSON, even on total failure.
type Manifest struct {
	Success     bool          `json:"success"`
	Error       string        `json:"error"`
	Shorts      []ShortRecord `json:"shorts"`
	Compilation string        `json:"compilation,omitempty"`
	RunID       string        `json:"run_id,omitempty"`
	ElapsedSec  int           `json:"elapsed_seconds,omitempty"`
}

// Story holds a scraped trending story ready for scripting.
type Story struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Source      string   `json:"source"`
	SourceURL   string   `json:"source_url"`
	Score       int      `json:"score"`
	PublishedAt string   `json:"published_at"`
	Keywords    []string `json:"keywords"`
}
