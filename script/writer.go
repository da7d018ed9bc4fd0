// Package script turns a scraped story into segment scripts with metadata,
// using the Groq chat completions API.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/retry"
	"shorts-pipeline/types"
)

const systemPrompt = `You are a scriptwriter for faceless vertical short-form video channels. You turn a source story into a small batch of self-contained 30-55 second shorts.

You MUST respond with ONLY valid JSON — no preamble, no markdown, no explanation.

Respond with a JSON object: {"shorts": [...]}. Each element must have:
- "title": a click-worthy title under 90 characters
- "hook_text": a 3-6 word on-screen hook shown at the start (ALL CAPS reads best)
- "narration": the exact words to be spoken, 80-140 words, present tense, second person where it fits
- "visual_keywords": 3-6 short keywords describing what should be on screen
- "scene_prompts": 1-3 detailed cinematic image generation prompts, one per visual beat
- "description": a 1-2 sentence video description
- "tags": 5-10 lowercase tags

Each short must stand alone. Start mid-action. No intros, no "welcome back".`

// Writer generates shorts scripts through Groq.
type Writer struct {
	cfg        *config.ScriptConfig
	httpClient *http.Client
	endpoint   string
}

func New(cfg *config.Config) *Writer {
	return &Writer{
		cfg:        &cfg.Script,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		endpoint:   "https://api.groq.com/openai/v1/chat/completions",
	}
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type batchJSON struct {
	Shorts []shortJSON `json:"shorts"`
}

type shortJSON struct {
	Title          string   `json:"title"`
	HookText       string   `json:"hook_text"`
	Narration      string   `json:"narration"`
	VisualKeywords []string `json:"visual_keywords"`
	ScenePrompts   []string `json:"scene_prompts"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
}

// ScenePrompts carries the per-segment image prompts alongside the segment
// itself; the segment type stays free of provider concerns.
type Result struct {
	Segments     []types.Segment
	ScenePrompts map[int][]string
	Source       string
}

// Run asks Groq for up to MaxShorts segment scripts based on the story.
func (w *Writer) Run(ctx context.Context, story *types.Story) (*Result, error) {
	log.Printf("[script] Generating shorts scripts via Groq (%s)...", w.cfg.GroqModel)

	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not set")
	}

	reqBody := groqRequest{
		Model: w.cfg.GroqModel,
		Messages: []groqMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(story, w.cfg.MaxShorts)},
		},
		Temperature: w.cfg.Temperature,
		MaxTokens:   4096,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var content string
	policy := retry.Policy{Attempts: 3, Delay: 3 * time.Second, Backoff: true}
	err = policy.Do(ctx, func() error {
		content, err = w.complete(ctx, apiKey, bodyBytes)
		return err
	})
	if err != nil {
		return nil, err
	}

	content = cleanJSON(content)
	var raw batchJSON
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parse script JSON: %w\nraw content: %s", err, content[:min(200, len(content))])
	}
	if len(raw.Shorts) == 0 {
		return nil, fmt.Errorf("script response contained no shorts")
	}
	if len(raw.Shorts) > w.cfg.MaxShorts {
		raw.Shorts = raw.Shorts[:w.cfg.MaxShorts]
	}

	result := &Result{
		ScenePrompts: make(map[int][]string),
		Source:       story.Source,
	}
	for i, s := range raw.Shorts {
		if strings.TrimSpace(s.Narration) == "" {
			log.Printf("[script] ⚠️ Short %d has empty narration, skipping", i+1)
			continue
		}
		seg := types.Segment{
			SegmentNumber:  len(result.Segments) + 1,
			Narration:      strings.TrimSpace(s.Narration),
			VisualKeywords: s.VisualKeywords,
			Title:          s.Title,
			Description:    s.Description,
			Tags:           s.Tags,
			HookText:       s.HookText,
		}
		result.ScenePrompts[seg.SegmentNumber] = s.ScenePrompts
		result.Segments = append(result.Segments, seg)
	}
	if len(result.Segments) == 0 {
		return nil, fmt.Errorf("no usable shorts in script response")
	}

	log.Printf("[script] ✅ Scripts ready: %d shorts", len(result.Segments))
	return result, nil
}

func (w *Writer) complete(ctx context.Context, apiKey string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", w.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var groqResp groqResponse
	if err := json.Unmarshal(respBytes, &groqResp); err != nil {
		return "", fmt.Errorf("parse groq response: %w", err)
	}
	if groqResp.Error != nil {
		return "", fmt.Errorf("groq error: %s", groqResp.Error.Message)
	}
	if len(groqResp.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}
	return groqResp.Choices[0].Message.Content, nil
}

func buildUserPrompt(story *types.Story, maxShorts int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write %d shorts based on the following story.\n\n", maxShorts)
	fmt.Fprintf(&sb, "STORY TITLE: %s\n\n", story.Title)
	fmt.Fprintf(&sb, "SOURCE: %s (%s)\n\n", story.Source, story.SourceURL)
	fmt.Fprintf(&sb, "STORY CONTENT:\n%s\n\n", story.Body)
	sb.WriteString("Respond ONLY with valid JSON. No markdown. No explanation.")
	return sb.String()
}

// cleanJSON strips markdown fences if the model wraps the response in
// ```json ... ```.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
