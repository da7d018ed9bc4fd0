package captions

import (
	"math"
	"testing"
)

func TestDistributeWordsPartition(t *testing.T) {
	cues := []Cue{
		{Text: "one two three four", Start: 0, End: 2},
		{Text: "five", Start: 2, End: 2.8},
	}
	words := DistributeWords(cues)
	if len(words) != 5 {
		t.Fatalf("expected 5 words, got %d", len(words))
	}

	// Words exactly partition each cue: contiguous intervals, first starts at
	// cue start, last ends at cue end.
	if words[0].Start != 0 {
		t.Errorf("first word starts at %v", words[0].Start)
	}
	if math.Abs(words[3].End-2) > 1e-9 {
		t.Errorf("last word of cue 0 ends at %v, want 2", words[3].End)
	}
	for i := 1; i < 4; i++ {
		if math.Abs(words[i].Start-words[i-1].End) > 1e-9 {
			t.Errorf("gap between word %d and %d: %v vs %v", i-1, i, words[i-1].End, words[i].Start)
		}
	}
	if math.Abs(words[0].End-0.5) > 1e-9 {
		t.Errorf("even split expected 0.5s per word, got %v", words[0].End)
	}
	if words[4].Start != 2 || math.Abs(words[4].End-2.8) > 1e-9 {
		t.Errorf("single-word cue spans whole cue: %+v", words[4])
	}
}

func TestDistributeWordsSkipsEmptyCues(t *testing.T) {
	words := DistributeWords([]Cue{{Text: "   ", Start: 0, End: 1}})
	if len(words) != 0 {
		t.Fatalf("whitespace cue should yield no words, got %+v", words)
	}
}

func TestGroupWords(t *testing.T) {
	words := []Word{
		{Text: "a", Start: 0, End: 1},
		{Text: "b", Start: 1, End: 2},
		{Text: "c", Start: 2, End: 3},
		{Text: "d", Start: 3, End: 4},
		{Text: "e", Start: 4, End: 5},
	}
	groups := GroupWords(words, 3)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Text != "a b c" || groups[1].Text != "d e" {
		t.Errorf("group texts: %q, %q", groups[0].Text, groups[1].Text)
	}
	if groups[0].Start != 0 || groups[0].End != 3 {
		t.Errorf("group 0 timing: %+v", groups[0])
	}
	if groups[1].Start != 3 || groups[1].End != 5 {
		t.Errorf("group 1 timing: %+v", groups[1])
	}
}

func TestGroupWordsSizeFloor(t *testing.T) {
	words := []Word{{Text: "a"}, {Text: "b"}}
	groups := GroupWords(words, 0)
	if len(groups) != 2 {
		t.Fatalf("size<1 should fall back to 1 word per group, got %d groups", len(groups))
	}
}
