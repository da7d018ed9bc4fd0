package captions

import "strings"

// Word is a single spoken word with its derived timing interval.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Group is a fixed-size chunk of consecutive words shown together on screen.
type Group struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// DistributeWords expands sentence-level cues into per-word timing by linear
// interpolation: a cue with W words is split into W equal intervals that
// exactly partition [cue.Start, cue.End]. True per-word timestamps are not
// available upstream, so this is a deliberate even-split approximation.
func DistributeWords(cues []Cue) []Word {
	var words []Word
	for _, cue := range cues {
		fields := strings.Fields(cue.Text)
		if len(fields) == 0 {
			continue
		}
		d := (cue.End - cue.Start) / float64(len(fields))
		for i, w := range fields {
			words = append(words, Word{
				Text:  w,
				Start: cue.Start + float64(i)*d,
				End:   cue.Start + float64(i+1)*d,
			})
		}
	}
	return words
}

// GroupWords partitions words into consecutive display chunks of at most size
// words each; the last group may be smaller. Order is preserved and no word is
// dropped.
func GroupWords(words []Word, size int) []Group {
	if size < 1 {
		size = 1
	}
	var groups []Group
	for i := 0; i < len(words); i += size {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunk := words[i:end]

		texts := make([]string, len(chunk))
		for j, w := range chunk {
			texts[j] = w.Text
		}
		groups = append(groups, Group{
			Text:  strings.Join(texts, " "),
			Start: chunk[0].Start,
			End:   chunk[len(chunk)-1].End,
		})
	}
	return groups
}
