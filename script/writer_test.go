package script

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shorts-pipeline/config"
	"shorts-pipeline/types"
)

func TestCleanJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		if got := cleanJSON(in); got != want {
			t.Errorf("cleanJSON(%q) = %q, want %q", in, got, want)
		}
	}
}

func groqStub(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestRunParsesShorts(t *testing.T) {
	body := "```json\n" + `{"shorts":[
		{"title":"The Last Call","hook_text":"SHE NEVER CAME BACK","narration":"It starts with a phone ringing at 3am.","visual_keywords":["dark","phone","night"],"scene_prompts":["a dark hallway","an old phone"],"description":"A night that changed everything.","tags":["story","mystery"]},
		{"title":"Empty","hook_text":"","narration":"   ","visual_keywords":[],"scene_prompts":[],"description":"","tags":[]}
	]}` + "\n```"
	srv := groqStub(t, body)
	defer srv.Close()

	t.Setenv("GROQ_API_KEY", "test-key")
	w := New(config.Default())
	w.endpoint = srv.URL

	result, err := w.Run(context.Background(), &types.Story{Title: "t", Body: "b", Source: "r/nosleep"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The blank-narration short is dropped.
	if len(result.Segments) != 1 {
		t.Fatalf("expected 1 usable segment, got %d", len(result.Segments))
	}
	seg := result.Segments[0]
	if seg.SegmentNumber != 1 || seg.Title != "The Last Call" || seg.HookText != "SHE NEVER CAME BACK" {
		t.Errorf("segment fields: %+v", seg)
	}
	if len(result.ScenePrompts[1]) != 2 {
		t.Errorf("scene prompts not carried: %+v", result.ScenePrompts)
	}
	if result.Source != "r/nosleep" {
		t.Errorf("source: %q", result.Source)
	}
}

func TestRunTruncatesToMaxShorts(t *testing.T) {
	shorts := `{"shorts":[
		{"title":"a","narration":"one"},
		{"title":"b","narration":"two"},
		{"title":"c","narration":"three"},
		{"title":"d","narration":"four"}
	]}`
	srv := groqStub(t, shorts)
	defer srv.Close()

	t.Setenv("GROQ_API_KEY", "test-key")
	cfg := config.Default()
	cfg.Script.MaxShorts = 2
	w := New(cfg)
	w.endpoint = srv.URL

	result, err := w.Run(context.Background(), &types.Story{Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(result.Segments))
	}
}

func TestRunRequiresAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	w := New(config.Default())
	if _, err := w.Run(context.Background(), &types.Story{}); err == nil {
		t.Fatal("expected error without GROQ_API_KEY")
	}
}

func TestRunEmptyResponse(t *testing.T) {
	srv := groqStub(t, `{"shorts":[]}`)
	defer srv.Close()

	t.Setenv("GROQ_API_KEY", "test-key")
	cfg := config.Default()
	w := New(cfg)
	w.endpoint = srv.URL

	if _, err := w.Run(context.Background(), &types.Story{Title: "t"}); err == nil {
		t.Fatal("expected error for a response with no shorts")
	}
}
