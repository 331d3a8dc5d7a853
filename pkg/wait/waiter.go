// Package wait implements the conditional polling engine: it runs a
// command batch against a device repeatedly, evaluates wait conditions
// against each response batch, and stops on satisfaction or when the
// retry budget is exhausted.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/netwait/netwait/pkg/logger"
)

const (
	// DefaultRetries is the number of attempts when none is configured.
	DefaultRetries = 10
	// DefaultInterval is the pause between attempts when none is configured.
	DefaultInterval = time.Second
)

var (
	// ErrNilRunner is returned when the waiter is created without a runner.
	ErrNilRunner = errors.New("runner is nil")
	// ErrNilCompiler is returned when wait conditions are supplied but
	// no compiler is available to build predicates from them.
	ErrNilCompiler = errors.New("wait conditions supplied but compiler is nil")
	// ErrNoCommands is returned when the command batch is empty.
	ErrNoCommands = errors.New("command batch is empty")
	// ErrInvalidRetries is returned when the retry budget is not positive.
	ErrInvalidRetries = errors.New("retries must be at least 1")
	// ErrInvalidInterval is returned when the interval is negative.
	ErrInvalidInterval = errors.New("interval must not be negative")
	// ErrInvalidMatch is returned for an unknown match policy name.
	ErrInvalidMatch = errors.New("match policy must be \"all\" or \"any\"")
)

// Runner executes a command batch against a device and returns one
// Response per command, in command order. Any error is a transport
// fault and aborts the polling session.
type Runner interface {
	Run(ctx context.Context, commands []string) ([]Response, error)
}

// Predicate is a compiled boolean test over a response batch. String
// returns the original condition text for failure reporting.
type Predicate interface {
	Evaluate(batch []Response) bool
	String() string
}

// Compiler builds a Predicate from caller-supplied condition text.
type Compiler func(text string) (Predicate, error)

// Result is the outcome of one polling session. A session that runs
// out of retries with conditions still false is not an error: it is
// reported here with Satisfied false and the failing condition texts.
type Result struct {
	// Satisfied is true when every condition required by the match
	// policy evaluated true within the retry budget.
	Satisfied bool
	// Attempts is the number of times the command batch was executed.
	Attempts int
	// Stdout holds the response batch from the final attempt.
	Stdout []Response
	// StdoutLines is Stdout split into lines, one sequence per command.
	StdoutLines [][]string
	// FailedConditions lists the conditions that never evaluated true,
	// in the order they were supplied. Empty on success.
	FailedConditions []string
}

// Waiter runs polling sessions. Each Run call owns its own transient
// session state, so a single Waiter may serve concurrent sessions as
// long as its runner tolerates concurrent use.
type Waiter struct {
	runner   Runner
	compile  Compiler
	match    MatchPolicy
	retries  int
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	log      logger.Logger
}

// NewWaiter creates a waiter using the given runner and condition
// compiler. The compiler may be nil if no wait conditions will be used.
func NewWaiter(r Runner, c Compiler) (*Waiter, error) {
	if r == nil {
		return nil, ErrNilRunner
	}
	return &Waiter{
		runner:   r,
		compile:  c,
		match:    MatchAll,
		retries:  DefaultRetries,
		interval: DefaultInterval,
		sleep:    sleepCtx,
		log:      logger.NewNoLogger(),
	}, nil
}

// SetMatch sets the match policy applied to the condition set.
func (w *Waiter) SetMatch(m MatchPolicy) {
	w.match = m
}

// SetRetries sets the maximum number of attempts.
func (w *Waiter) SetRetries(n int) {
	w.retries = n
}

// SetInterval sets the pause between attempts.
func (w *Waiter) SetInterval(d time.Duration) {
	w.interval = d
}

// SetLogger sets the logger used to trace attempts.
func (w *Waiter) SetLogger(l logger.Logger) {
	if l != nil {
		w.log = l
	}
}

// SetSleep replaces the inter-attempt sleep function. Intended for tests.
func (w *Waiter) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	if sleep != nil {
		w.sleep = sleep
	}
}

// Run executes one polling session: the command batch is run up to the
// configured number of times, each response batch is evaluated against
// the compiled wait conditions, and the session stops as soon as the
// match policy is satisfied. With no wait conditions the batch runs
// exactly once and the session is immediately satisfied.
//
// Configuration faults (empty batch, bad retry budget, a condition
// that does not compile) and transport faults from the runner are
// returned as errors. Running out of retries is not an error: it is
// reported through Result.Satisfied and Result.FailedConditions.
func (w *Waiter) Run(ctx context.Context, commands []string, waitFor []string) (*Result, error) {
	if len(commands) == 0 {
		return nil, ErrNoCommands
	}
	if w.retries < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRetries, w.retries)
	}
	if w.interval < 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidInterval, w.interval)
	}

	pending, err := w.compileAll(waitFor)
	if err != nil {
		return nil, err
	}

	var (
		responses []Response
		attempts  int
	)
	for retries := w.retries; retries > 0; {
		responses, err = w.runner.Run(ctx, commands)
		if err != nil {
			return nil, fmt.Errorf("run commands: %w", err)
		}
		attempts++

		pending = w.evaluate(pending, responses)
		if len(pending) == 0 {
			break
		}
		w.log.Debug("conditions still unsatisfied",
			"attempt", attempts, "remaining", len(pending))

		retries--
		if retries == 0 {
			break
		}
		if err := w.sleep(ctx, w.interval); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Satisfied:   len(pending) == 0,
		Attempts:    attempts,
		Stdout:      responses,
		StdoutLines: ToLines(responses),
	}
	for _, p := range pending {
		result.FailedConditions = append(result.FailedConditions, p.String())
	}
	return result, nil
}

// compileAll builds the predicate set, preserving supply order.
func (w *Waiter) compileAll(waitFor []string) ([]Predicate, error) {
	if len(waitFor) == 0 {
		return nil, nil
	}
	if w.compile == nil {
		return nil, ErrNilCompiler
	}
	predicates := make([]Predicate, 0, len(waitFor))
	for _, text := range waitFor {
		p, err := w.compile(text)
		if err != nil {
			return nil, fmt.Errorf("compile wait condition: %w", err)
		}
		predicates = append(predicates, p)
	}
	return predicates, nil
}

// evaluate runs every pending predicate against the response batch and
// returns the predicates that are still unsatisfied, keeping supply
// order. Under the any policy the first satisfied predicate clears the
// whole set and short-circuits the rest.
func (w *Waiter) evaluate(pending []Predicate, responses []Response) []Predicate {
	if w.match == MatchAny {
		for _, p := range pending {
			if p.Evaluate(responses) {
				w.log.Debug("condition satisfied", "condition", p.String())
				return nil
			}
		}
		return pending
	}

	remaining := make([]Predicate, 0, len(pending))
	for _, p := range pending {
		if p.Evaluate(responses) {
			w.log.Debug("condition satisfied", "condition", p.String())
			continue
		}
		remaining = append(remaining, p)
	}
	return remaining
}

// sleepCtx pauses for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
