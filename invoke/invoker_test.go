package invoke

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/internal/testutil"
)

// scriptedEndpoint returns the queued errors in order, then succeeds.
type scriptedEndpoint struct {
	errs  []error
	calls int
}

func (e *scriptedEndpoint) Send(_ context.Context, _ core.Request) (*core.Response, error) {
	e.calls++
	if len(e.errs) > 0 {
		err := e.errs[0]
		e.errs = e.errs[1:]
		return nil, err
	}
	return &core.Response{
		Text:  "ok",
		Usage: core.Usage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

func fixedRand(v float64) func() float64 {
	return func() float64 { return v }
}

func TestInvoker_RetriesTransientThenSucceeds(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	endpoint := &scriptedEndpoint{errs: []error{
		core.TransientError(errors.New("rate limited")),
		core.TransientError(errors.New("overloaded")),
		core.TransientError(errors.New("rate limited")),
	}}

	var states []State
	inv := NewInvoker(endpoint, func(o *Options) {
		o.Clock = clock
		o.Rand = fixedRand(0)
		o.OnTransition = func(s State, _ int) { states = append(states, s) }
	})

	resp, err := inv.Send(context.Background(), core.Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 4, endpoint.calls)

	// Backoff doubles from the base delay; zero jitter keeps it exact.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, clock.Sleeps())
	assert.Equal(t, []State{
		StateAttempting, StateBackoff,
		StateAttempting, StateBackoff,
		StateAttempting, StateBackoff,
		StateAttempting, StateSucceeded,
	}, states)
}

func TestInvoker_Exhausted(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	cause := core.TransientError(errors.New("overloaded"))
	endpoint := &scriptedEndpoint{errs: []error{cause, cause, cause, cause, cause}}

	var last State
	inv := NewInvoker(endpoint, func(o *Options) {
		o.Clock = clock
		o.Rand = fixedRand(0)
		o.OnTransition = func(s State, _ int) { last = s }
	})

	_, err := inv.Send(context.Background(), core.Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 5, endpoint.calls)
	assert.Equal(t, StateExhausted, last)
	assert.Len(t, clock.Sleeps(), 4)
}

func TestInvoker_FatalErrorNotRetried(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	cause := core.FatalError(errors.New("invalid api key"))
	endpoint := &scriptedEndpoint{errs: []error{cause}}

	inv := NewInvoker(endpoint, func(o *Options) {
		o.Clock = clock
	})

	_, err := inv.Send(context.Background(), core.Request{})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, endpoint.calls)
	assert.Empty(t, clock.Sleeps())
}

func TestInvoker_DelayCap(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	cause := core.TransientError(errors.New("overloaded"))
	endpoint := &scriptedEndpoint{errs: []error{
		cause, cause, cause, cause, cause, cause, cause,
	}}

	inv := NewInvoker(endpoint, func(o *Options) {
		o.Clock = clock
		o.Rand = fixedRand(0)
		o.MaxAttempts = 8
	})

	_, err := inv.Send(context.Background(), core.Request{})
	require.NoError(t, err)

	want := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 32 * time.Second, 32 * time.Second,
	}
	assert.Equal(t, want, clock.Sleeps())
}

func TestInvoker_JitterBounds(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	cause := core.TransientError(errors.New("rate limited"))
	endpoint := &scriptedEndpoint{errs: []error{cause}}

	inv := NewInvoker(endpoint, func(o *Options) {
		o.Clock = clock
		o.Rand = fixedRand(0.5)
	})

	_, err := inv.Send(context.Background(), core.Request{})
	require.NoError(t, err)

	sleeps := clock.Sleeps()
	require.Len(t, sleeps, 1)
	// 1s base plus 0.5 * 10% jitter.
	assert.Equal(t, 1050*time.Millisecond, sleeps[0])
}

func TestInvoker_ContextCancelledDuringBackoff(t *testing.T) {
	cause := core.TransientError(errors.New("rate limited"))
	endpoint := &scriptedEndpoint{errs: []error{cause, cause, cause}}

	ctx, cancel := context.WithCancel(context.Background())
	inv := NewInvoker(endpoint, func(o *Options) {
		o.Clock = cancellingClock{cancel: cancel}
	})

	_, err := inv.Send(ctx, core.Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, endpoint.calls)
}

// cancellingClock cancels the context instead of firing, so the backoff
// select must take the ctx.Done branch.
type cancellingClock struct {
	cancel context.CancelFunc
}

func (c cancellingClock) Now() time.Time { return time.Now() }

func (c cancellingClock) After(time.Duration) <-chan time.Time {
	c.cancel()
	return make(chan time.Time)
}
