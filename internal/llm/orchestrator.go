package llm

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// BackoffPolicy returns the delay to wait before the next attempt, given the
// kind of failure and the zero-based attempt number just completed. Rate
// limits recover on a different timescale than transient network errors, so
// the policy is keyed by kind.
type BackoffPolicy func(kind FailureKind, attempt int) time.Duration

// DefaultBackoff grows linearly per attempt, with a longer progressive ramp
// for rate limiting and a short one for timeouts.
func DefaultBackoff(kind FailureKind, attempt int) time.Duration {
	switch kind {
	case FailureRateLimited:
		return 5*time.Second + time.Duration(attempt)*5*time.Second
	case FailureTimeout:
		return 2*time.Second + time.Duration(attempt)*time.Second
	default:
		return time.Duration(1+attempt) * time.Second
	}
}

// orchestratorState tracks where a call sits in the retry cycle.
type orchestratorState int

const (
	stateAttempting orchestratorState = iota
	stateBackingOff
	stateSuccess
	stateExhausted
)

// attempt describes one retry cycle. It exists only for the duration of a
// single Execute call.
type attempt struct {
	number int
	kind   FailureKind
	wait   time.Duration
	err    error
}

// Orchestrator issues one logical completion request with retry, backoff and
// failure classification. It is safe for concurrent use: the only mutable
// state is a write-only diagnostic call counter.
type Orchestrator struct {
	client  Client
	backoff BackoffPolicy

	// calls counts completion attempts across all callers. Diagnostic only;
	// never read for control decisions.
	calls atomic.Int64
}

// NewOrchestrator wraps a client with the default backoff policy.
func NewOrchestrator(client Client) *Orchestrator {
	return &Orchestrator{client: client, backoff: DefaultBackoff}
}

// WithBackoff replaces the backoff policy. Returns the orchestrator for
// constructor chaining.
func (o *Orchestrator) WithBackoff(policy BackoffPolicy) *Orchestrator {
	if policy != nil {
		o.backoff = policy
	}
	return o
}

// Calls returns the diagnostic attempt count.
func (o *Orchestrator) Calls() int64 {
	return o.calls.Load()
}

// Execute sends the prompt, retrying up to maxAttempts times. A success with
// a non-empty body short-circuits the loop; an empty body counts as a
// malformed reply and is retried. On exhaustion the returned error is an
// *ExhaustedError carrying the last failure kind. Execute never panics past
// this boundary.
func (o *Orchestrator) Execute(ctx context.Context, prompt string, maxAttempts int) (string, error) {
	if prompt == "" {
		return "", &ExhaustedError{Attempts: 0, LastKind: FailureMalformed, Cause: fmt.Errorf("empty prompt")}
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	state := stateAttempting
	var last attempt

	for n := 0; state != stateSuccess && state != stateExhausted; {
		switch state {
		case stateAttempting:
			o.calls.Add(1)
			reply, err := o.client.Complete(ctx, prompt)
			if err == nil && strings.TrimSpace(reply) != "" {
				return reply, nil
			}
			if err == nil {
				err = &MalformedError{Message: "empty reply body"}
			}
			last = attempt{number: n, kind: Classify(err), err: err}
			n++
			if n >= maxAttempts {
				state = stateExhausted
				continue
			}
			state = stateBackingOff

		case stateBackingOff:
			last.wait = o.backoff(last.kind, last.number)
			if err := sleep(ctx, last.wait); err != nil {
				last = attempt{number: last.number, kind: FailureTimeout, err: err}
				state = stateExhausted
				continue
			}
			state = stateAttempting
		}
	}

	return "", &ExhaustedError{
		Attempts: last.number + 1,
		LastKind: last.kind,
		Cause:    last.err,
	}
}

// sleep blocks for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
