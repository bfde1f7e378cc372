package assistant

import (
	"context"
	"errors"
	"time"
)

// ErrPollExhausted is returned by Poll when fetch never reported a
// terminal value within the attempt budget.
var ErrPollExhausted = errors.New("poll attempts exhausted")

// Policy bounds a polling loop.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
	// Sleep waits between attempts. Nil uses a timer that honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Poll waits Interval, calls fetch, and repeats until isTerminal accepts
// the fetched value or MaxAttempts fetches have been made. A fetch error
// ends the loop immediately. On exhaustion the last fetched value is
// returned together with ErrPollExhausted. A cancelled ctx ends the loop
// with ctx.Err().
func Poll[T any](ctx context.Context, p Policy, fetch func(context.Context) (T, error), isTerminal func(T) bool) (T, error) {
	var last T
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := sleep(ctx, p.Interval); err != nil {
			return last, err
		}
		if err := ctx.Err(); err != nil {
			return last, err
		}

		v, err := fetch(ctx)
		if err != nil {
			return v, err
		}
		last = v
		if isTerminal(v) {
			return v, nil
		}
	}
	return last, ErrPollExhausted
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
