package captions

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

const sampleVTT = `WEBVTT

1
00:00:00.000 --> 00:00:02.400
The <c>house</c> was empty

2
00:00:02.400 --> 00:00:04.000
when they arrived

NOTE this line is a comment

00:05.500 --> 00:07,250
three words here

3
00:00:09.000 --> 00:00:08.000
backwards cue is dropped
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseFile(t *testing.T) {
	cues := ParseFile(writeFile(t, "sample.vtt", sampleVTT))
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d: %+v", len(cues), cues)
	}
	if cues[0].Text != "The house was empty" {
		t.Errorf("markup not stripped: %q", cues[0].Text)
	}
	if cues[0].Start != 0 || cues[0].End != 2.4 {
		t.Errorf("cue 0 timing: %+v", cues[0])
	}
	// MM:SS form with a comma decimal separator.
	if math.Abs(cues[2].Start-5.5) > 1e-9 || math.Abs(cues[2].End-7.25) > 1e-9 {
		t.Errorf("cue 2 timing: %+v", cues[2])
	}
}

func TestParseFileMissing(t *testing.T) {
	if cues := ParseFile(filepath.Join(t.TempDir(), "nope.vtt")); cues != nil {
		t.Fatalf("missing file should yield no cues, got %+v", cues)
	}
}

func TestParseTimestampForms(t *testing.T) {
	cases := map[string]float64{
		"00:00:01.500": 1.5,
		"01:02:03.000": 3723,
		"02:30.000":    150,
		"00:10,250":    10.25,
	}
	for in, want := range cases {
		got, err := parseTimestamp(in)
		if err != nil {
			t.Errorf("parseTimestamp(%q): %v", in, err)
			continue
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("parseTimestamp(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseTimestamp("garbage"); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestOffset(t *testing.T) {
	cues := []Cue{{Text: "a", Start: 1, End: 2}, {Text: "b", Start: 2, End: 3.5}}
	shifted := Offset(cues, 10)
	if shifted[0].Start != 11 || shifted[1].End != 13.5 {
		t.Fatalf("offset wrong: %+v", shifted)
	}
	// Original untouched.
	if cues[0].Start != 1 {
		t.Fatal("Offset mutated its input")
	}
	if Offset(nil, 5) != nil {
		t.Fatal("Offset(nil) should be nil")
	}
}

func TestWriteVTTRoundTrip(t *testing.T) {
	in := []Cue{
		{Text: "first cue", Start: 0.2, End: 2.5},
		{Text: "second cue", Start: 61.25, End: 63},
	}
	path := filepath.Join(t.TempDir(), "out.vtt")
	if err := WriteVTT(path, in); err != nil {
		t.Fatalf("WriteVTT: %v", err)
	}
	out := ParseFile(path)
	if len(out) != len(in) {
		t.Fatalf("round trip lost cues: %d != %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Text != in[i].Text {
			t.Errorf("cue %d text %q != %q", i, out[i].Text, in[i].Text)
		}
		if math.Abs(out[i].Start-in[i].Start) > 0.001 || math.Abs(out[i].End-in[i].End) > 0.001 {
			t.Errorf("cue %d timing %+v != %+v", i, out[i], in[i])
		}
	}
}
