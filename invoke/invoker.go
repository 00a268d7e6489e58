package invoke

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/logging"
)

// State identifies where the retry loop currently is. Transitions are
// reported through Options.OnTransition, mainly for tests and tracing.
type State int

const (
	// StateAttempting means a request is being sent to the endpoint.
	StateAttempting State = iota
	// StateBackoff means the invoker is sleeping before the next attempt.
	StateBackoff
	// StateSucceeded means the endpoint returned a response.
	StateSucceeded
	// StateExhausted means all attempts failed with transient errors.
	StateExhausted
)

// String implements the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Options configures the retry behavior of an Invoker.
type Options struct {
	// MaxAttempts is the total number of tries, first attempt included.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt. Each further
	// backoff doubles it, capped at MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration

	// JitterFraction is the upper bound of the additive jitter as a
	// fraction of the current delay. 0.10 adds up to 10%.
	JitterFraction float64

	// Clock supplies time for backoff sleeps.
	Clock core.Clock

	// Logger for retry warnings.
	Logger logging.Logger

	// Rand returns a float64 in [0, 1) used for jitter. Injectable for
	// deterministic tests.
	Rand func() float64

	// OnTransition, if set, is called on every state change with the
	// attempt number that triggered it.
	OnTransition func(state State, attempt int)
}

// Invoker sends requests through a core.Endpoint, retrying transient
// failures with exponential backoff.
type Invoker struct {
	endpoint core.Endpoint
	opts     Options
}

// Compile-time assertion.
var _ core.Endpoint = (*Invoker)(nil)

// NewInvoker creates an Invoker around the given endpoint.
func NewInvoker(endpoint core.Endpoint, optFns ...func(o *Options)) *Invoker {
	opts := Options{
		MaxAttempts:    5,
		BaseDelay:      time.Second,
		MaxDelay:       32 * time.Second,
		JitterFraction: 0.10,
		Clock:          core.SystemClock(),
		Rand:           rand.Float64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.Clock == nil {
		opts.Clock = core.SystemClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	return &Invoker{endpoint: endpoint, opts: opts}
}

// Send forwards the request to the endpoint, retrying transient errors
// up to MaxAttempts times. Fatal errors return immediately. The final
// transient error is wrapped with the attempt count when retries run
// out. Cancelling ctx interrupts a backoff sleep.
func (i *Invoker) Send(ctx context.Context, req core.Request) (*core.Response, error) {
	delay := i.opts.BaseDelay

	for attempt := 1; ; attempt++ {
		i.transition(StateAttempting, attempt)

		resp, err := i.endpoint.Send(ctx, req)
		if err == nil {
			i.transition(StateSucceeded, attempt)
			return resp, nil
		}

		if !core.IsTransient(err) {
			return nil, err
		}

		if attempt >= i.opts.MaxAttempts {
			i.transition(StateExhausted, attempt)
			return nil, fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		sleep := delay + i.jitter(delay)

		i.transition(StateBackoff, attempt)
		i.opts.Logger.Warn("transient endpoint error, backing off",
			"attempt", attempt,
			"max_attempts", i.opts.MaxAttempts,
			"sleep", sleep.String(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-i.opts.Clock.After(sleep):
		}

		delay *= 2
		if delay > i.opts.MaxDelay {
			delay = i.opts.MaxDelay
		}
	}
}

func (i *Invoker) jitter(delay time.Duration) time.Duration {
	if i.opts.JitterFraction <= 0 {
		return 0
	}
	return time.Duration(i.opts.Rand() * i.opts.JitterFraction * float64(delay))
}

func (i *Invoker) transition(state State, attempt int) {
	if i.opts.OnTransition != nil {
		i.opts.OnTransition(state, attempt)
	}
}
