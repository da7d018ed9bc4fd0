// Package research finds trending story material on Reddit and picks the best
// unused candidate for scripting.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/types"

	"github.com/vartanbeno/go-reddit/v2/reddit"
)

// hookKeywords boost a story's score when present.
var hookKeywords = []string{
	"missing", "disappeared", "unsolved", "unexplained", "haunted",
	"stranger", "secret", "revealed", "shocking", "warning",
	"never", "last", "found", "abandoned", "mystery",
	"confession", "witness", "vanished", "discovered", "true story",
}

type Scraper struct {
	cfg         *config.Config
	client      *reddit.Client
	usedPath    string
	usedStories map[string]bool
}

// New builds a Scraper. Reddit credentials (REDDIT_CLIENT_ID,
// REDDIT_CLIENT_SECRET, REDDIT_USERNAME, REDDIT_PASSWORD) are read from the
// environment; without them a read-only client is used, which is enough for
// public subreddit listings.
func New(cfg *config.Config) (*Scraper, error) {
	var client *reddit.Client
	var err error

	id := os.Getenv("REDDIT_CLIENT_ID")
	secret := os.Getenv("REDDIT_CLIENT_SECRET")
	if id != "" && secret != "" {
		client, err = reddit.NewClient(reddit.Credentials{
			ID:       id,
			Secret:   secret,
			Username: os.Getenv("REDDIT_USERNAME"),
			Password: os.Getenv("REDDIT_PASSWORD"),
		})
	} else {
		client, err = reddit.NewReadonlyClient()
	}
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}

	usedPath := filepath.Join(cfg.Paths.Output, "used_stories.json")
	return &Scraper{
		cfg:         cfg,
		client:      client,
		usedPath:    usedPath,
		usedStories: loadUsedStories(usedPath),
	}, nil
}

// Run fetches candidates from the configured subreddits, scores them, and
// returns the best story that has not been used in a previous run.
func (s *Scraper) Run(ctx context.Context) (*types.Story, error) {
	log.Println("[research] Scraping story candidates...")

	candidates := s.scrapeSubreddits(ctx)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no stories found from any subreddit")
	}

	for _, story := range candidates {
		story.Score = s.scoreStory(story)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	for _, story := range candidates {
		if s.usedStories[story.ID] {
			continue
		}
		log.Printf("[research] ✅ Selected story: %q (score: %d)", story.Title, story.Score)
		s.markUsed(story)
		return story, nil
	}
	return nil, fmt.Errorf("all %d candidate stories have been used already", len(candidates))
}

func (s *Scraper) scrapeSubreddits(ctx context.Context) []*types.Story {
	var stories []*types.Story
	cutoff := time.Now().AddDate(0, 0, -s.cfg.Research.LookbackDays)

	for _, sub := range s.cfg.Research.Subreddits {
		posts, _, err := s.client.Subreddit.TopPosts(ctx, sub, &reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: s.cfg.Research.MaxStories},
			Time:        "week",
		})
		if err != nil {
			log.Printf("[research] ⚠️ r/%s: %v", sub, err)
			continue
		}

		kept := 0
		for _, post := range posts {
			if post.Created != nil && post.Created.Before(cutoff) {
				continue
			}
			if post.Score < s.cfg.Research.MinScore {
				continue
			}
			if post.NumberOfComments < s.cfg.Research.MinComments {
				continue
			}
			if strings.TrimSpace(post.Body) == "" {
				continue
			}

			story := &types.Story{
				ID:        "reddit_" + post.ID,
				Title:     post.Title,
				Body:      post.Body,
				Source:    "r/" + sub,
				SourceURL: "https://reddit.com" + post.Permalink,
				Keywords:  extractKeywords(post.Title + " " + post.Body),
			}
			if post.Created != nil {
				story.PublishedAt = post.Created.Format(time.RFC3339)
			}
			stories = append(stories, story)
			kept++
		}
		log.Printf("[research] r/%s: %d candidates", sub, kept)
	}
	return stories
}

func (s *Scraper) scoreStory(story *types.Story) int {
	score := story.Score

	text := strings.ToLower(story.Title + " " + story.Body)
	for _, kw := range hookKeywords {
		if strings.Contains(text, kw) {
			score += 50
		}
	}

	if t, err := time.Parse(time.RFC3339, story.PublishedAt); err == nil {
		if time.Since(t) < 72*time.Hour {
			score += 200
		}
	}

	// Longer bodies give the scripter more material to work with.
	if len(story.Body) > 500 {
		score += 75
	}
	if len(story.Body) > 1500 {
		score += 75
	}
	return score
}

func extractKeywords(text string) []string {
	text = strings.ToLower(text)
	var found []string
	for _, kw := range hookKeywords {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	return found
}

func loadUsedStories(path string) map[string]bool {
	used := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return used
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return used
	}
	for _, id := range ids {
		used[id] = true
	}
	return used
}

func (s *Scraper) markUsed(story *types.Story) {
	s.usedStories[story.ID] = true
	ids := make([]string, 0, len(s.usedStories))
	for id := range s.usedStories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	data, _ := json.MarshalIndent(ids, "", "  ")
	if err := os.MkdirAll(filepath.Dir(s.usedPath), 0o755); err == nil {
		_ = os.WriteFile(s.usedPath, data, 0o644)
	}
}
