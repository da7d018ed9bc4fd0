package merge

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"shorts-pipeline/config"
	"shorts-pipeline/media"
)

// fakeRunner writes outSize bytes to the command's final argument on Run and
// answers ffprobe calls with probeOut.
type fakeRunner struct {
	commands []media.Command
	outSize  int
	probeOut string
	failRun  bool
}

func (f *fakeRunner) Run(ctx context.Context, cmd media.Command) error {
	f.commands = append(f.commands, cmd)
	if f.failRun {
		return fmt.Errorf("simulated ffmpeg failure")
	}
	out := cmd.Args[len(cmd.Args)-1]
	return os.WriteFile(out, bytes.Repeat([]byte{0x01}, f.outSize), 0o644)
}

func (f *fakeRunner) Output(ctx context.Context, cmd media.Command) (string, error) {
	f.commands = append(f.commands, cmd)
	return f.probeOut, nil
}

func hasArgPair(cmd media.Command, flag, value string) bool {
	for i, a := range cmd.Args {
		if a == flag && i+1 < len(cmd.Args) && cmd.Args[i+1] == value {
			return true
		}
	}
	return false
}

func writeBG(t *testing.T, dir string) string {
	t.Helper()
	bg := filepath.Join(dir, "bg.mp4")
	if err := os.WriteFile(bg, bytes.Repeat([]byte{0x02}, 20000), 0o644); err != nil {
		t.Fatal(err)
	}
	return bg
}

func TestRequestedDuration(t *testing.T) {
	m := New(config.Default(), &fakeRunner{})
	if got := m.RequestedDuration(30); got != 30.5 {
		t.Errorf("audio-derived duration %v, want 30.5", got)
	}
	if got := m.RequestedDuration(0); got != 45 {
		t.Errorf("default duration %v, want 45", got)
	}
}

func TestMergeCapsDuration(t *testing.T) {
	dir := t.TempDir()
	run := &fakeRunner{outSize: 50000, probeOut: "59.0\n"}
	m := New(config.Default(), run)

	out := filepath.Join(dir, "short.mp4")
	dur, err := m.Merge(context.Background(), writeBG(t, dir), "", "", 120, out)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if dur != 59 {
		t.Errorf("final duration %v, want 59", dur)
	}
	if !hasArgPair(run.commands[0], "-t", "59.00") {
		t.Errorf("duration not capped at 59s: %v", run.commands[0].Args)
	}
}

func TestMergeRemovesBackground(t *testing.T) {
	dir := t.TempDir()
	m := New(config.Default(), &fakeRunner{outSize: 50000, probeOut: "30.0\n"})

	bg := writeBG(t, dir)
	if _, err := m.Merge(context.Background(), bg, "", "", 30, filepath.Join(dir, "ok.mp4")); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if _, err := os.Stat(bg); !os.IsNotExist(err) {
		t.Error("background intermediate should be removed after success")
	}

	bg = writeBG(t, dir)
	m = New(config.Default(), &fakeRunner{failRun: true})
	if _, err := m.Merge(context.Background(), bg, "", "", 30, filepath.Join(dir, "fail.mp4")); err == nil {
		t.Fatal("expected merge failure")
	}
	if _, err := os.Stat(bg); !os.IsNotExist(err) {
		t.Error("background intermediate should be removed after failure too")
	}
}

func TestMergeRejectsTinyOutput(t *testing.T) {
	dir := t.TempDir()
	m := New(config.Default(), &fakeRunner{outSize: 500})

	out := filepath.Join(dir, "tiny.mp4")
	if _, err := m.Merge(context.Background(), writeBG(t, dir), "", "", 30, out); err == nil {
		t.Fatal("a sub-10KB output is corrupt and must be rejected")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("rejected output should be removed")
	}
}

func TestMergeAudioAndFilterWiring(t *testing.T) {
	dir := t.TempDir()
	run := &fakeRunner{outSize: 50000, probeOut: "12.5\n"}
	m := New(config.Default(), run)

	audio := filepath.Join(dir, "voice.mp3")
	if err := os.WriteFile(audio, []byte("mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := m.Merge(context.Background(), writeBG(t, dir), audio, "drawtext=text='HI'", 12.5, filepath.Join(dir, "out.mp4"))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	cmd := run.commands[0]
	if !hasArgPair(cmd, "-i", audio) {
		t.Errorf("audio input missing: %v", cmd.Args)
	}
	if !hasArgPair(cmd, "-vf", "drawtext=text='HI'") {
		t.Errorf("overlay filter missing: %v", cmd.Args)
	}
	if !hasArgPair(cmd, "-map", "1:a") || !hasArgPair(cmd, "-c:a", "aac") {
		t.Errorf("audio mapping missing: %v", cmd.Args)
	}
}

func TestMergeSilentSegment(t *testing.T) {
	dir := t.TempDir()
	run := &fakeRunner{outSize: 50000, probeOut: "45.0\n"}
	m := New(config.Default(), run)

	_, err := m.Merge(context.Background(), writeBG(t, dir), "", "", 0, filepath.Join(dir, "silent.mp4"))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	cmd := run.commands[0]
	if !hasArgPair(cmd, "-t", "45.00") {
		t.Errorf("zero request should fall back to the 45s default: %v", cmd.Args)
	}
	for _, a := range cmd.Args {
		if a == "-c:a" {
			t.Error("no audio encoder expected for a silent segment")
		}
	}
}
