// Package backoff retries list operations that report ErrTryAgain.
package backoff

import (
	"context"
	"runtime"
	"time"

	"go-rdl/pkg/customerrors"
	"go-rdl/util/helpers"

	"github.com/pkg/errors"
)

// Backoff busy-retries Spins times, then yields the processor between the
// next Yields attempts, then sleeps between attempts, doubling the sleep from
// MinSleep up to MaxSleep. A zero MinSleep keeps yielding instead.
type Backoff struct {
	Spins    int           `json:"spins"`
	Yields   int           `json:"yields"`
	MinSleep time.Duration `json:"min_sleep"`
	MaxSleep time.Duration `json:"max_sleep"`
}

// Default suits lists shared by a handful of goroutines or processes.
var Default = Backoff{
	Spins:    16,
	Yields:   64,
	MinSleep: time.Microsecond,
	MaxSleep: time.Millisecond,
}

// Retry calls fn until it returns anything but ErrTryAgain and returns that
// result. It gives up with ctx.Err() once ctx is done; ctx is only checked
// between attempts, after the spin phase.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	sleep := b.MinSleep
	var timer *time.Timer

	for attempt := 0; ; attempt++ {
		err := fn()
		if !errors.Is(err, customerrors.ErrTryAgain) {
			if timer != nil {
				timer.Stop()
			}
			return err
		}

		if attempt < b.Spins {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt < b.Spins+b.Yields || sleep <= 0 {
			runtime.Gosched()
			continue
		}

		if timer == nil {
			timer = time.NewTimer(sleep)
		} else {
			timer.Reset(sleep)
		}
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if b.MaxSleep > 0 {
			sleep = helpers.Min(sleep*2, b.MaxSleep)
		}
	}
}
