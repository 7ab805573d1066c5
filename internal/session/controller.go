package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/classmark/session-gateway/internal/config"
	"github.com/classmark/session-gateway/internal/kv"
	"github.com/classmark/session-gateway/internal/model"
	"github.com/classmark/session-gateway/internal/testapi"
	"github.com/rs/zerolog"
)

// SubmitTrigger identifies what fired a terminal submission. Expiry is not a
// special case for error handling, only for triggering.
type SubmitTrigger string

const (
	TriggerUser   SubmitTrigger = "user"
	TriggerExpiry SubmitTrigger = "expiry"
)

// cleanupTimeout bounds the kv deletes after a successful submission, so a
// disconnected client cannot cancel terminal cleanup.
const cleanupTimeout = 5 * time.Second

// autoSubmitTimeout bounds the expiry-triggered submission call.
const autoSubmitTimeout = 10 * time.Second

// Controller drives one test attempt from load to terminal submission,
// exactly once. All operations are serialized by a single mutex, so the
// check-and-set protecting the terminal submission is atomic with respect to
// a user click racing the deadline expiry.
type Controller struct {
	log      zerolog.Logger
	api      testapi.API
	store    kv.Store
	guard    *Guard
	identity testapi.Identity
	testID   string

	initOnce sync.Once
	initErr  error

	mu             sync.Mutex
	test           *model.Test
	ledger         *Ledger
	countdown      *Countdown // nil for untimed tests
	currentIndex   int
	status         model.SessionStatus
	submitInFlight bool
	submitted      bool
	result         *model.SubmitResult
	lastError      string
	lastActive     time.Time

	// onTerminal is invoked once after a successful submission; the manager
	// uses it to evict the mounted session.
	onTerminal func()
}

// NewController creates an unmounted controller for one (student, test) pair.
// Call Initialize before anything else.
func NewController(api testapi.API, store kv.Store, identity testapi.Identity, testID string, log zerolog.Logger) *Controller {
	return &Controller{
		log: log.With().
			Str("component", "session").
			Str("user_id", identity.UserID).
			Str("test_id", testID).
			Logger(),
		api:        api,
		store:      store,
		guard:      NewGuard(store),
		identity:   identity,
		testID:     testID,
		status:     model.SessionStatusLoading,
		lastActive: time.Now(),
	}
}

// TestID returns the immutable test identifier for this session.
func (c *Controller) TestID() string { return c.testID }

// Initialize mounts the session: it checks the started-attempt guard, loads
// the test and question list in a single fetch, and establishes (or resumes)
// the deadline for timed tests. Runs at most once; concurrent callers share
// the same outcome. A failed initialize is terminal for this mount — the
// manager discards the controller and the client must come back through the
// begin screen.
func (c *Controller) Initialize(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.initialize(ctx)
	})
	return c.initErr
}

func (c *Controller) initialize(ctx context.Context) error {
	started, err := c.guard.IsStarted(ctx, c.identity.UserID, c.testID)
	if err != nil {
		c.fail("started marker unavailable")
		return fmt.Errorf("check started guard: %w", err)
	}
	if !started {
		// Redirect signal: no fetch is issued without the guard.
		return ErrNotStarted
	}

	test, err := c.api.FetchTest(ctx, c.identity, c.testID)
	if err != nil {
		c.fail("test load failed")
		return fmt.Errorf("load test: %w", err)
	}

	c.mu.Lock()
	c.test = test
	c.ledger = NewLedger(test.Questions)
	c.currentIndex = 0
	c.mu.Unlock()

	var countdown *Countdown
	if test.IsTimed && test.DurationMinutes > 0 {
		countdown = NewCountdown(c.store, config.StoreKey.DeadlineKey(c.identity.UserID, c.testID))
		duration := time.Duration(test.DurationMinutes) * time.Minute
		if _, err := countdown.Establish(ctx, duration); err != nil {
			c.fail("deadline unavailable")
			return fmt.Errorf("establish deadline: %w", err)
		}
	}

	c.mu.Lock()
	c.countdown = countdown
	c.status = model.SessionStatusInProgress
	c.lastActive = time.Now()
	c.mu.Unlock()

	// Arm the watch only after the session is in progress, so a deadline that
	// already passed (a reload after expiry) auto-submits instead of losing
	// the notification to the state gate.
	if countdown != nil {
		countdown.Watch(c.autoSubmit)
		c.log.Info().
			Time("deadline", countdown.Deadline()).
			Int64("seconds_remaining", countdown.SecondsRemaining()).
			Msg("Timed session mounted")
	} else {
		c.log.Info().Msg("Untimed session mounted")
	}

	return nil
}

// SelectAnswer validates and upserts one answer. No auto-advance, no network
// call — submission is batched at the end.
func (c *Controller) SelectAnswer(questionID, choice string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()

	if c.status != model.SessionStatusInProgress {
		return ErrWrongState
	}
	return c.ledger.SelectAnswer(questionID, choice)
}

// ToggleReviewMark flips the review flag on a question and reports the new
// state.
func (c *Controller) ToggleReviewMark(questionID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()

	if c.status != model.SessionStatusInProgress {
		return false, ErrWrongState
	}
	return c.ledger.ToggleMark(questionID)
}

// GoNext advances the cursor by one. A no-op at the last question.
func (c *Controller) GoNext() error { return c.move(1) }

// GoPrevious moves the cursor back by one. A no-op at the first question.
func (c *Controller) GoPrevious() error { return c.move(-1) }

func (c *Controller) move(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()

	if c.status != model.SessionStatusInProgress {
		return ErrWrongState
	}

	next := c.currentIndex + delta
	if next < 0 || next >= len(c.test.Questions) {
		return nil // boundary: no-op, not an error
	}
	c.currentIndex = next
	return nil
}

// OpenReview transitions to the review screen. Only allowed from the last
// question.
func (c *Controller) OpenReview() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()

	if c.status != model.SessionStatusInProgress {
		return ErrWrongState
	}
	if c.currentIndex != len(c.test.Questions)-1 {
		return ErrNotAtLastQuestion
	}
	c.status = model.SessionStatusReviewing
	return nil
}

// ReturnToQuestion leaves the review screen and jumps to the given question
// so the student can review or change the answer.
func (c *Controller) ReturnToQuestion(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()

	if c.status != model.SessionStatusReviewing {
		return ErrNotReviewing
	}
	if index < 0 || index >= len(c.test.Questions) {
		return ErrIndexOutOfRange
	}
	c.currentIndex = index
	c.status = model.SessionStatusInProgress
	return nil
}

// RequestSubmit performs the terminal submission. At-most-once: the in-flight
// flag is checked and set under the mutex, so a user confirmation racing the
// expiry trigger yields exactly one platform call. On failure the prior
// status is restored, answers stay in memory, and the flag is released so the
// student can retry. On success the persisted deadline and started marker are
// cleared and the session becomes Submitted.
func (c *Controller) RequestSubmit(ctx context.Context, trigger SubmitTrigger) (*model.SubmitResult, error) {
	c.mu.Lock()
	c.lastActive = time.Now()

	if c.submitted {
		result := c.result
		c.mu.Unlock()
		return result, nil
	}
	if c.submitInFlight {
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if c.status != model.SessionStatusInProgress && c.status != model.SessionStatusReviewing {
		c.mu.Unlock()
		return nil, ErrWrongState
	}

	prev := c.status
	c.submitInFlight = true
	c.status = model.SessionStatusSubmitting
	answers := c.ledger.Answers()
	c.mu.Unlock()

	c.log.Info().
		Str("trigger", string(trigger)).
		Int("answered", len(answers)).
		Msg("Submitting attempt")

	result, err := c.api.SubmitAttempt(ctx, c.identity, c.testID, answers)

	c.mu.Lock()
	c.submitInFlight = false
	if err != nil {
		c.status = prev
		c.lastError = "submission failed"
		c.mu.Unlock()
		c.log.Error().Err(err).Str("trigger", string(trigger)).Msg("Submit failed")
		return nil, fmt.Errorf("submit attempt: %w", err)
	}

	c.submitted = true
	c.status = model.SessionStatusSubmitted
	c.result = result
	c.lastError = ""
	countdown := c.countdown
	onTerminal := c.onTerminal
	c.mu.Unlock()

	// Terminal cleanup, decoupled from the caller's context: the persisted
	// deadline and started marker are cleared exactly once, here and only
	// here. Abandonment never reaches this path.
	cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if countdown != nil {
		countdown.Stop()
		if err := countdown.Clear(cleanupCtx); err != nil {
			c.log.Warn().Err(err).Msg("Failed to clear deadline")
		}
	}
	if err := c.guard.Clear(cleanupCtx, c.identity.UserID, c.testID); err != nil {
		c.log.Warn().Err(err).Msg("Failed to clear started marker")
	}

	c.log.Info().
		Float64("score", result.Score).
		Str("trigger", string(trigger)).
		Msg("Attempt submitted")

	if onTerminal != nil {
		onTerminal()
	}
	return result, nil
}

// autoSubmit is the expiry notification target. Failures surface through the
// snapshot exactly like a failed manual submit, so the client keeps its retry
// affordance.
func (c *Controller) autoSubmit() {
	ctx, cancel := context.WithTimeout(context.Background(), autoSubmitTimeout)
	defer cancel()

	if _, err := c.RequestSubmit(ctx, TriggerExpiry); err != nil {
		if errors.Is(err, ErrSubmitInFlight) || errors.Is(err, ErrWrongState) {
			return // a user-triggered submit won the race
		}
		c.log.Error().Err(err).Msg("Auto-submit on expiry failed")
	}
}

// Snapshot returns the read-only view consumed by the presentational clients.
func (c *Controller) Snapshot() *model.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &model.SessionSnapshot{
		TestID:    c.testID,
		Status:    c.status,
		LastError: c.lastError,
	}
	if c.test == nil {
		return snap
	}

	total := len(c.test.Questions)
	snap.TestName = c.test.Name
	snap.IsTimed = c.test.IsTimed
	snap.DurationMinutes = c.test.DurationMinutes
	snap.CurrentIndex = c.currentIndex
	snap.TotalQuestions = total
	snap.Progress = float64(c.currentIndex+1) / float64(total)
	snap.Review = c.ledger.Snapshot()
	snap.Result = c.result

	question := c.test.Questions[c.currentIndex]
	snap.CurrentQuestion = &question

	if c.countdown != nil {
		remaining := c.countdown.SecondsRemaining()
		snap.SecondsRemaining = &remaining
	}
	return snap
}

// IsTerminal reports whether the session reached Submitted.
func (c *Controller) IsTerminal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}

// IdleSince reports the last time any operation touched this session.
func (c *Controller) IdleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// stop releases the expiry watch when the session is evicted without
// submitting. Persisted state is untouched: the countdown continues across
// the next mount.
func (c *Controller) stop() {
	c.mu.Lock()
	countdown := c.countdown
	c.mu.Unlock()
	if countdown != nil {
		countdown.Stop()
	}
}

// fail flips the session into the terminal Error state during initialize.
func (c *Controller) fail(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = model.SessionStatusError
	c.lastError = reason
}
