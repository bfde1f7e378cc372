package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestPoll_StopsAtTerminalValue(t *testing.T) {
	var calls int
	statuses := []string{"queued", "in_progress", "completed", "never"}

	got, err := Poll(context.Background(), Policy{MaxAttempts: 10, Sleep: noSleep},
		func(context.Context) (string, error) {
			s := statuses[calls]
			calls++
			return s, nil
		},
		func(s string) bool { return s == "completed" })

	require.NoError(t, err)
	assert.Equal(t, "completed", got)
	assert.Equal(t, 3, calls)
}

func TestPoll_ExhaustsExactlyAtBound(t *testing.T) {
	var calls, sleeps int
	sleep := func(_ context.Context, d time.Duration) error {
		assert.Equal(t, time.Second, d)
		sleeps++
		return nil
	}

	got, err := Poll(context.Background(), Policy{Interval: time.Second, MaxAttempts: 20, Sleep: sleep},
		func(context.Context) (string, error) {
			calls++
			return "in_progress", nil
		},
		func(s string) bool { return s != "in_progress" })

	require.ErrorIs(t, err, ErrPollExhausted)
	assert.Equal(t, "in_progress", got)
	assert.Equal(t, 20, calls)
	assert.Equal(t, 20, sleeps)
}

func TestPoll_FetchErrorStopsLoop(t *testing.T) {
	boom := errors.New("boom")
	var calls int

	_, err := Poll(context.Background(), Policy{MaxAttempts: 5, Sleep: noSleep},
		func(context.Context) (int, error) {
			calls++
			return 0, boom
		},
		func(int) bool { return false })

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPoll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	var calls int

	start := time.Now()
	_, err := Poll(ctx, Policy{Interval: time.Hour, MaxAttempts: 5},
		func(context.Context) (int, error) {
			calls++
			return 0, nil
		},
		func(int) bool { return false })

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Minute)
	assert.Zero(t, calls)
}

func TestPoll_CancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int

	_, err := Poll(ctx, Policy{MaxAttempts: 5, Sleep: noSleep},
		func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, nil
		},
		func(int) bool { return false })

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPoll_ZeroAttempts(t *testing.T) {
	_, err := Poll(context.Background(), Policy{Sleep: noSleep},
		func(context.Context) (int, error) {
			t.Fatal("fetch must not run")
			return 0, nil
		},
		func(int) bool { return true })
	assert.ErrorIs(t, err, ErrPollExhausted)
}
