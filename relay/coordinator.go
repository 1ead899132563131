package relay

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"

	oracletypes "github.com/morelucks/reactiaid/x/oracle/types"
	vaulttypes "github.com/morelucks/reactiaid/x/vault/types"
)

// DeclarationSource is a cursor read over the declaration log.
type DeclarationSource interface {
	DeclarationsSince(ctx context.Context, afterSeq uint64, limit int) ([]oracletypes.Declaration, error)
}

// Distributor submits a payout to the aid vault on behalf of the relay's
// proxy identity.
type Distributor interface {
	Distribute(
		ctx context.Context,
		declarationRef uint64,
		disasterType oracletypes.DisasterType,
		severity uint32,
		location string,
		responseLevel vaulttypes.ResponseLevel,
	) (sdkmath.Int, error)
}

// State names a declaration's position in the relay state machine.
type State string

const (
	StateObserved         State = "observed"
	StateAwaitingFinality State = "awaiting_finality"
	StateSubmitting       State = "submitting"
	StateRetrying         State = "retrying"
	StateConfirmed        State = "confirmed"
	StateFailed           State = "failed"
)

// Config contains coordinator configuration.
type Config struct {
	// PollInterval between cursor reads over the log.
	PollInterval time.Duration

	// FinalityWindow a declaration must survive before any action is taken
	// on it, measured from its declared-at timestamp.
	FinalityWindow time.Duration

	// WorkerCount number of concurrent submission workers.
	WorkerCount int

	// QueueSize max declarations queued for submission.
	QueueSize int

	// MaxAttempts bounds submission attempts per declaration.
	MaxAttempts int

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration

	// MaxRetryDelay caps the exponential backoff.
	MaxRetryDelay time.Duration

	// SubmitTimeout per distribution attempt.
	SubmitTimeout time.Duration

	// StartAfter is the cursor position to resume from. Replaying already
	// processed sequences is harmless: the vault's idempotency check turns
	// them into no-ops.
	StartAfter uint64

	// FetchLimit caps declarations read per poll. Zero means no cap.
	FetchLimit int
}

// DefaultConfig returns default coordinator configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:   2 * time.Second,
		FinalityWindow: 15 * time.Second,
		WorkerCount:    4,
		QueueSize:      256,
		MaxAttempts:    5,
		RetryBaseDelay: 500 * time.Millisecond,
		MaxRetryDelay:  30 * time.Second,
		SubmitTimeout:  10 * time.Second,
		FetchLimit:     100,
	}
}

// ResponseLevelForSeverity maps a declaration severity onto the vault's
// response level scale. This is relay policy, not vault policy.
func ResponseLevelForSeverity(severity uint32) vaulttypes.ResponseLevel {
	switch {
	case severity <= 3:
		return vaulttypes.ResponseLow
	case severity <= 6:
		return vaulttypes.ResponseMedium
	case severity <= 8:
		return vaulttypes.ResponseHigh
	default:
		return vaulttypes.ResponseCritical
	}
}

// DeclarationStatus tracks one declaration through the relay state machine.
type DeclarationStatus struct {
	Declaration oracletypes.Declaration `json:"declaration"`
	State       State                   `json:"state"`
	Attempts    int                     `json:"attempts"`
	Amount      sdkmath.Int             `json:"amount"`
	LastError   string                  `json:"last_error,omitempty"`
	UpdatedAt   time.Time               `json:"updated_at"`

	// LastErr keeps the failure cause for in-process callers that need to
	// classify it; the JSON view carries only the message.
	LastErr error `json:"-"`
}

// FailureRecord is the inspectable trace of a terminal failure. Terminal
// failures are surfaced for operator intervention, never silently dropped.
type FailureRecord struct {
	Sequence uint64    `json:"sequence"`
	Location string    `json:"location"`
	Attempts int       `json:"attempts"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

type task struct {
	decl oracletypes.Declaration
}

// Coordinator watches the declaration log and drives the vault exactly once
// per declaration, despite partial failures and duplicate delivery. It owns
// a cursor over the log's sequence numbers; declarations are dispatched in
// non-decreasing sequence order once each clears the finality window, and
// in-flight submissions proceed concurrently.
type Coordinator struct {
	logger  log.Logger
	source  DeclarationSource
	vault   Distributor
	config  Config
	metrics *Metrics

	// now is injectable for deterministic finality tests.
	now func() time.Time

	queue     chan *task
	stopCh    chan struct{}
	wg        sync.WaitGroup
	isRunning bool

	mu       sync.RWMutex
	cursor   uint64
	states   map[uint64]*DeclarationStatus
	order    []uint64
	failures []FailureRecord
}

// NewCoordinator creates a relay coordinator.
func NewCoordinator(logger log.Logger, source DeclarationSource, vault Distributor, config Config) *Coordinator {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	return &Coordinator{
		logger:  logger,
		source:  source,
		vault:   vault,
		config:  config,
		metrics: &Metrics{},
		now:     func() time.Time { return time.Now().UTC() },
		queue:   make(chan *task, config.QueueSize),
		stopCh:  make(chan struct{}),
		cursor:  config.StartAfter,
		states:  make(map[uint64]*DeclarationStatus),
	}
}

// Start launches the poll loop and the submission workers.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = true
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	for i := 0; i < c.config.WorkerCount; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	c.wg.Add(1)
	go c.pollLoop()

	c.logger.Info("relay coordinator started",
		"workers", c.config.WorkerCount,
		"poll_interval", c.config.PollInterval,
		"finality_window", c.config.FinalityWindow,
		"cursor", c.Cursor(),
	)
}

// Stop stops the coordinator and waits for workers to drain.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = false
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Info("relay coordinator stopped")
}

// Cursor returns the highest sequence the coordinator has observed.
func (c *Coordinator) Cursor() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

// Status returns the tracked status for a sequence.
func (c *Coordinator) Status(seq uint64) (DeclarationStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.states[seq]
	if !ok {
		return DeclarationStatus{}, false
	}
	return *st, true
}

// Statuses returns all tracked statuses in sequence order.
func (c *Coordinator) Statuses() []DeclarationStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DeclarationStatus, 0, len(c.order))
	for _, seq := range c.order {
		out = append(out, *c.states[seq])
	}
	return out
}

// Failures returns the terminal failure records in failure order.
func (c *Coordinator) Failures() []FailureRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]FailureRecord, len(c.failures))
	copy(out, c.failures)
	return out
}

// MetricsSnapshot returns a copy of the coordinator counters.
func (c *Coordinator) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

func (c *Coordinator) pollLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	// Prime the cursor immediately rather than waiting a full interval.
	c.pollOnce()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.pollOnce()
		}
	}
}

// pollOnce advances the cursor over the log and dispatches every declaration
// whose finality window has elapsed, in ascending sequence order.
func (c *Coordinator) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.SubmitTimeout)
	defer cancel()

	decls, err := c.source.DeclarationsSince(ctx, c.Cursor(), c.config.FetchLimit)
	if err != nil {
		c.logger.Error("declaration log read failed", "cursor", c.Cursor(), "error", err)
		return
	}

	c.mu.Lock()
	for _, decl := range decls {
		// Duplicate or replayed delivery from the source; the local
		// tracking map is the first dedup line of defense.
		if _, seen := c.states[decl.Sequence]; seen {
			continue
		}
		c.states[decl.Sequence] = &DeclarationStatus{
			Declaration: decl,
			State:       StateObserved,
			Amount:      sdkmath.ZeroInt(),
			UpdatedAt:   c.now(),
		}
		c.order = append(c.order, decl.Sequence)
		if decl.Sequence > c.cursor {
			c.cursor = decl.Sequence
		}
		c.metrics.Observed.Inc()
	}
	sort.Slice(c.order, func(i, j int) bool { return c.order[i] < c.order[j] })

	ready := make([]*DeclarationStatus, 0)
	for _, seq := range c.order {
		st := c.states[seq]
		switch st.State {
		case StateObserved, StateAwaitingFinality:
		default:
			continue
		}
		if !c.finalityCleared(st.Declaration) {
			st.State = StateAwaitingFinality
			st.UpdatedAt = c.now()
			continue
		}
		ready = append(ready, st)
	}
	c.mu.Unlock()

	for _, st := range ready {
		c.dispatch(st.Declaration)
	}
}

func (c *Coordinator) finalityCleared(decl oracletypes.Declaration) bool {
	declaredAt := time.Unix(decl.DeclaredAtUnix, 0)
	return c.now().Sub(declaredAt) >= c.config.FinalityWindow
}

func (c *Coordinator) dispatch(decl oracletypes.Declaration) {
	c.setState(decl.Sequence, StateSubmitting, "")

	select {
	case c.queue <- &task{decl: decl}:
		c.metrics.Dispatched.Inc()
	case <-c.stopCh:
	default:
		// Queue full: fall back to awaiting finality so the next poll
		// re-dispatches. Nothing is lost, nothing is double-sent.
		c.setState(decl.Sequence, StateAwaitingFinality, "submission queue full")
		c.logger.Warn("submission queue full, deferring", "sequence", decl.Sequence)
	}
}

func (c *Coordinator) worker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			return
		case t := <-c.queue:
			c.processTask(t)
		}
	}
}

func (c *Coordinator) processTask(t *task) {
	seq := t.decl.Sequence

	c.mu.Lock()
	st, ok := c.states[seq]
	if !ok || st.State == StateConfirmed || st.State == StateFailed {
		c.mu.Unlock()
		return
	}
	st.State = StateSubmitting
	st.Attempts++
	attempt := st.Attempts
	st.UpdatedAt = c.now()
	c.mu.Unlock()

	level := ResponseLevelForSeverity(t.decl.Severity)

	ctx, cancel := context.WithTimeout(context.Background(), c.config.SubmitTimeout)
	defer cancel()

	amount, err := c.vault.Distribute(ctx, seq, t.decl.DisasterType, t.decl.Severity, t.decl.Location, level)
	if err == nil {
		c.confirm(seq, amount)
		return
	}

	if IsTerminal(err) {
		c.fail(t.decl, attempt, err)
		return
	}

	if attempt >= c.config.MaxAttempts {
		c.fail(t.decl, attempt, fmt.Errorf("%w after %d attempts: %v", ErrRetryBudgetExhausted, attempt, err))
		return
	}

	c.metrics.Retries.Inc()
	c.setState(seq, StateRetrying, err.Error())
	c.logger.Warn("distribution failed, retrying",
		"sequence", seq,
		"attempt", attempt,
		"error", err,
	)

	delay := c.backoffDelay(attempt)
	time.AfterFunc(delay, func() {
		// Re-queue with the same declarationRef; the vault's idempotency
		// check makes a duplicate submission safe.
		select {
		case <-c.stopCh:
		case c.queue <- t:
		}
	})
}

// backoffDelay returns RetryBaseDelay doubled per completed attempt, capped
// at MaxRetryDelay.
func (c *Coordinator) backoffDelay(attempt int) time.Duration {
	delay := c.config.RetryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.config.MaxRetryDelay {
			return c.config.MaxRetryDelay
		}
	}
	if c.config.MaxRetryDelay > 0 && delay > c.config.MaxRetryDelay {
		return c.config.MaxRetryDelay
	}
	return delay
}

func (c *Coordinator) confirm(seq uint64, amount sdkmath.Int) {
	c.mu.Lock()
	if st, ok := c.states[seq]; ok {
		st.State = StateConfirmed
		st.Amount = amount
		st.LastError = ""
		st.UpdatedAt = c.now()
	}
	c.mu.Unlock()

	c.metrics.Confirmed.Inc()
	c.logger.Info("distribution confirmed", "sequence", seq, "amount", amount)
}

func (c *Coordinator) fail(decl oracletypes.Declaration, attempts int, err error) {
	record := FailureRecord{
		Sequence: decl.Sequence,
		Location: decl.Location,
		Attempts: attempts,
		Reason:   err.Error(),
		FailedAt: c.now(),
	}

	c.mu.Lock()
	if st, ok := c.states[decl.Sequence]; ok {
		st.State = StateFailed
		st.LastError = err.Error()
		st.LastErr = err
		st.UpdatedAt = c.now()
	}
	c.failures = append(c.failures, record)
	c.mu.Unlock()

	c.metrics.TerminalFailures.Inc()
	c.logger.Error("distribution failed terminally",
		"sequence", decl.Sequence,
		"attempts", attempts,
		"error", err,
	)
}

func (c *Coordinator) setState(seq uint64, state State, lastError string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.states[seq]; ok {
		st.State = state
		if lastError != "" {
			st.LastError = lastError
		}
		st.UpdatedAt = c.now()
	}
}
