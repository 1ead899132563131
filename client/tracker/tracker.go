// Package tracker turns a single submit-and-confirm action into an
// observable progression of states for the initiating caller. Each
// submission gets a fresh Submission instance with exactly one writer: the
// goroutine driving the two nested async steps. Observers may come and go;
// abandoning observation never cancels the underlying submission.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"cosmossdk.io/log"

	"github.com/morelucks/reactiaid/relay"
	oracletypes "github.com/morelucks/reactiaid/x/oracle/types"
	vaulttypes "github.com/morelucks/reactiaid/x/vault/types"
)

// State names a submission's position in its lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StatePending    State = "pending"
	StateConfirming State = "confirming"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// ErrorKind classifies a failed submission for the caller.
type ErrorKind string

const (
	ErrorNone                 ErrorKind = ""
	ErrorUnauthorized         ErrorKind = "unauthorized"
	ErrorInvalidInput         ErrorKind = "invalid_input"
	ErrorInsufficientFunds    ErrorKind = "insufficient_funds"
	ErrorTransientUnavailable ErrorKind = "transient_unavailable"
	ErrorInternal             ErrorKind = "internal"
)

// Classify maps a pipeline error onto the caller-facing taxonomy.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorNone
	case errors.Is(err, oracletypes.ErrUnauthorized), errors.Is(err, vaulttypes.ErrUnauthorized):
		return ErrorUnauthorized
	case errors.Is(err, oracletypes.ErrInvalidInput), errors.Is(err, vaulttypes.ErrInvalidInput):
		return ErrorInvalidInput
	case errors.Is(err, vaulttypes.ErrInsufficientFunds):
		return ErrorInsufficientFunds
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, relay.ErrTransientUnavailable):
		return ErrorTransientUnavailable
	default:
		return ErrorInternal
	}
}

// SubmitFunc performs the submit step and returns an opaque handle (the
// declaration sequence for pipeline submissions).
type SubmitFunc func(ctx context.Context) (uint64, error)

// ConfirmFunc awaits durable confirmation of the submitted handle.
type ConfirmFunc func(ctx context.Context, handle uint64) error

// Config contains tracker configuration.
type Config struct {
	// SubmitTimeout bounds the submit step.
	SubmitTimeout time.Duration

	// ConfirmTimeout bounds the await-confirmation step. A submission that
	// exceeds it surfaces Error(transient_unavailable) rather than staying
	// in Confirming forever.
	ConfirmTimeout time.Duration
}

// DefaultConfig returns default tracker configuration.
func DefaultConfig() Config {
	return Config{
		SubmitTimeout:  10 * time.Second,
		ConfirmTimeout: 60 * time.Second,
	}
}

// Status is a point-in-time view of a submission.
type Status struct {
	State     State     `json:"state"`
	Handle    uint64    `json:"handle,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	ErrorMsg  string    `json:"error_msg,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Submission is the per-submission state machine. A completed submission is
// never reused; start a new one instead.
type Submission struct {
	logger log.Logger
	config Config

	mu     sync.RWMutex
	status Status

	done chan struct{}
}

// New creates an idle submission.
func New(logger log.Logger, config Config) *Submission {
	return &Submission{
		logger: logger,
		config: config,
		status: Status{State: StateIdle, UpdatedAt: time.Now().UTC()},
		done:   make(chan struct{}),
	}
}

// Start drives the two nested async steps on a detached context. The caller
// observes via Status, Wait or Done; cancelling observation does not cancel
// the submission, which runs to completion and is reconciled on the next
// observation.
func (s *Submission) Start(submit SubmitFunc, confirm ConfirmFunc) {
	s.mu.Lock()
	if s.status.State != StateIdle {
		s.mu.Unlock()
		return
	}
	s.status.State = StatePending
	s.status.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	go s.run(submit, confirm)
}

func (s *Submission) run(submit SubmitFunc, confirm ConfirmFunc) {
	defer close(s.done)

	ctx, cancel := context.WithTimeout(context.Background(), s.config.SubmitTimeout)
	handle, err := submit(ctx)
	cancel()
	if err != nil {
		s.fail(err)
		return
	}

	s.mu.Lock()
	s.status.State = StateConfirming
	s.status.Handle = handle
	s.status.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	ctx, cancel = context.WithTimeout(context.Background(), s.config.ConfirmTimeout)
	err = confirm(ctx, handle)
	cancel()
	if err != nil {
		s.fail(err)
		return
	}

	s.mu.Lock()
	s.status.State = StateSuccess
	s.status.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	s.logger.Debug("submission confirmed", "handle", handle)
}

func (s *Submission) fail(err error) {
	kind := Classify(err)

	s.mu.Lock()
	s.status.State = StateError
	s.status.ErrorKind = kind
	s.status.ErrorMsg = err.Error()
	s.status.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	s.logger.Warn("submission failed", "kind", kind, "error", err)
}

// Status returns the current view of the submission.
func (s *Submission) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Done is closed once the submission reaches a terminal state.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the submission completes or the observer's context is
// cancelled. Cancellation abandons observation only; the final status
// remains available afterwards.
func (s *Submission) Wait(ctx context.Context) (Status, error) {
	select {
	case <-s.done:
		return s.Status(), nil
	case <-ctx.Done():
		return s.Status(), ctx.Err()
	}
}
