package visuals

import (
	"bytes"
	"fmt"
	"os"
)

// Known error-signature markers: the image service returns placeholder PNGs
// containing these strings instead of failing the request outright.
var placeholderMarkers = [][]byte{
	[]byte("pollinations.ai"),
	[]byte("rate limit"),
	[]byte("we have moved"),
	[]byte("sign up here"),
	[]byte("enter.pollinations"),
	[]byte("anonymous tier"),
}

// pngMinBytes rejects PNGs structurally too small for the target resolution;
// real full-frame renders are considerably larger.
const pngMinBytes = 200000

// Validator decides whether a downloaded payload is a usable asset or a
// provider failure in disguise.
type Validator struct {
	MinImageBytes int64
	MinVideoBytes int64
}

// Image checks a downloaded image for emptiness, placeholder payloads and
// implausibly small PNGs. A failing file is removed so a rerun retries it.
func (v Validator) Image(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("image missing: %w", err)
	}
	if fi.Size() < v.MinImageBytes {
		os.Remove(path)
		return fmt.Errorf("image too small (%d bytes)", fi.Size())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lower := bytes.ToLower(raw)
	for _, marker := range placeholderMarkers {
		if bytes.Contains(lower, marker) {
			os.Remove(path)
			return fmt.Errorf("placeholder payload detected (%q)", marker)
		}
	}
	if isPNG(raw) && int64(len(raw)) < pngMinBytes {
		os.Remove(path)
		return fmt.Errorf("png too small for target resolution (%d bytes)", len(raw))
	}
	return nil
}

// Video checks that a clip exists and clears the minimum plausible size.
func (v Validator) Video(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("video missing: %w", err)
	}
	if fi.Size() < v.MinVideoBytes {
		return fmt.Errorf("video too small (%d bytes)", fi.Size())
	}
	return nil
}

func isPNG(raw []byte) bool {
	return len(raw) >= 16 && bytes.Contains(raw[:16], []byte("PNG"))
}
