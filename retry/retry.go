// Package retry provides the fixed retry policy used at every external-call
// site (image generation, TTS, downloads).
package retry

import (
	"context"
	"time"
)

// Policy controls how often an external call is retried and how long to wait
// between attempts. With Backoff set, the delay grows linearly with the
// attempt number.
type Policy struct {
	Attempts int
	Delay    time.Duration
	Backoff  bool
}

// Do runs fn up to p.Attempts times, sleeping between failures. The last error
// is returned once attempts are exhausted. Context cancellation cuts the wait
// short and returns ctx.Err().
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := p.Delay
		if p.Backoff {
			delay = time.Duration(attempt) * p.Delay
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
