// Package captions turns timed speech cues into word-level display groups.
package captions

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Cue is one timed block of spoken text. End is always after Start.
type Cue struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

var markupTags = regexp.MustCompile(`<[^>]+>`)

// ParseFile reads a WebVTT-style cue file into ordered cues. The header line,
// numeric index lines, NOTE lines and blank lines are discarded; each
// `start --> end` boundary is bound to the next non-empty text line with inline
// markup stripped. A missing or unparseable file yields no cues — downstream
// renders without captions.
func ParseFile(path string) []Cue {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var cues []Cue
	var start, end float64
	haveBoundary := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.Contains(line, "-->") {
			parts := strings.SplitN(line, "-->", 2)
			s, err1 := parseTimestamp(parts[0])
			e, err2 := parseTimestamp(parts[1])
			if err1 != nil || err2 != nil || e <= s {
				haveBoundary = false
				continue
			}
			start, end = s, e
			haveBoundary = true
			continue
		}

		if line == "" || line == "WEBVTT" || strings.HasPrefix(line, "NOTE") || isDigits(line) {
			continue
		}

		if haveBoundary {
			text := strings.TrimSpace(markupTags.ReplaceAllString(line, ""))
			if text != "" {
				cues = append(cues, Cue{Text: text, Start: start, End: end})
			}
			haveBoundary = false
		}
	}
	return cues
}

// parseTimestamp accepts HH:MM:SS.mmm or MM:SS.mmm; a comma decimal separator
// is normalized to a dot.
func parseTimestamp(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 3:
		h, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, err
		}
		m, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, err
		}
		sec, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0, err
		}
		return float64(h)*3600 + float64(m)*60 + sec, nil
	case 2:
		m, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, err
		}
		sec, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, err
		}
		return float64(m)*60 + sec, nil
	}
	return 0, fmt.Errorf("unrecognized timestamp %q", s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Offset returns a copy of cues with every timestamp shifted by delta seconds.
func Offset(cues []Cue, delta float64) []Cue {
	if len(cues) == 0 {
		return nil
	}
	shifted := make([]Cue, len(cues))
	for i, c := range cues {
		shifted[i] = Cue{Text: c.Text, Start: c.Start + delta, End: c.End + delta}
	}
	return shifted
}

// WriteVTT writes cues as a WebVTT file, the same format ParseFile reads.
func WriteVTT(path string, cues []Cue) error {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for _, c := range cues {
		sb.WriteString(formatTimestamp(c.Start))
		sb.WriteString(" --> ")
		sb.WriteString(formatTimestamp(c.End))
		sb.WriteString("\n")
		sb.WriteString(c.Text)
		sb.WriteString("\n\n")
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func formatTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int(sec*1000 + 0.5)
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
