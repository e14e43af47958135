package view

import (
	"context"
	"fmt"
	"io"
	"time"
)

// FormatCountdown renders d as m:ss, rounding partial seconds up.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// RunCountdown redraws "label m:ss" on one line every interval until until is
// reached or ctx is done.
func RunCountdown(ctx context.Context, w io.Writer, label string, until time.Time, now func() time.Time, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		remaining := until.Sub(now())
		if _, err := fmt.Fprintf(w, "\r%s %s", label, FormatCountdown(remaining)); err != nil {
			return err
		}
		if remaining <= 0 {
			_, err := fmt.Fprintln(w)
			return err
		}
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(w)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
