package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

const spinnerTick = 120 * time.Millisecond

// activity shows an indeterminate spinner with the elapsed time while a
// long step (a model build, a transcription) runs. The zero value is inert.
type activity struct {
	once sync.Once
	stop context.CancelFunc
	done chan struct{}
}

func startActivity(ctx context.Context, w io.Writer, enabled bool, label string) *activity {
	if !enabled {
		return &activity{}
	}

	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	_ = bar.RenderBlank()

	ctx, cancel := context.WithCancel(ctx)
	a := &activity{stop: cancel, done: make(chan struct{})}
	started := time.Now()

	go func() {
		defer close(a.done)
		ticker := time.NewTicker(spinnerTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = bar.Finish()
				return
			case <-ticker.C:
				bar.Describe(fmt.Sprintf("%s (%s)", label, time.Since(started).Truncate(time.Second)))
				_ = bar.Add(1)
			}
		}
	}()
	return a
}

// Stop clears the spinner. It is safe to call more than once.
func (a *activity) Stop() {
	a.once.Do(func() {
		if a.stop == nil {
			return
		}
		a.stop()
		<-a.done
	})
}
