package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/classmark/session-gateway/internal/kv"
)

// Countdown derives a monotonic countdown from an absolute deadline persisted
// in the kv store. The remaining time is always recomputed as deadline minus
// wall clock rather than decremented in memory, so it survives client reloads,
// gateway restarts and clock-tick jitter without drifting.
type Countdown struct {
	store kv.Store
	key   string
	now   func() time.Time

	mu       sync.Mutex
	deadline time.Time
	timer    *time.Timer
	fired    bool
}

// NewCountdown creates a countdown persisted under key. No deadline exists
// until Establish runs.
func NewCountdown(store kv.Store, key string) *Countdown {
	return &Countdown{
		store: store,
		key:   key,
		now:   time.Now,
	}
}

// Establish adopts the persisted deadline for this attempt if one exists,
// otherwise computes now+duration and persists it. Idempotent: the deadline
// is fixed once per attempt and is never rewritten mid-attempt.
func (c *Countdown) Establish(ctx context.Context, duration time.Duration) (time.Time, error) {
	stored, err := c.store.Get(ctx, c.key)
	switch {
	case err == nil:
		unix, parseErr := strconv.ParseInt(stored, 10, 64)
		if parseErr != nil {
			return time.Time{}, fmt.Errorf("corrupt deadline %q: %w", stored, parseErr)
		}
		c.setDeadline(time.Unix(unix, 0))
		return c.Deadline(), nil

	case errors.Is(err, kv.ErrNotFound):
		deadline := c.now().Add(duration).Truncate(time.Second)
		if err := c.store.Set(ctx, c.key, strconv.FormatInt(deadline.Unix(), 10)); err != nil {
			return time.Time{}, fmt.Errorf("persist deadline: %w", err)
		}
		c.setDeadline(deadline)
		return deadline, nil

	default:
		return time.Time{}, fmt.Errorf("read deadline: %w", err)
	}
}

// Deadline returns the established absolute deadline (zero before Establish).
func (c *Countdown) Deadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline
}

// SecondsRemaining is a pure function of deadline−now, floored at zero.
func (c *Countdown) SecondsRemaining() int64 {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()

	remaining := deadline.Sub(c.now())
	if remaining < 0 {
		remaining = 0
	}
	return int64(remaining / time.Second)
}

// Watch arranges for onExpire to run the first time the countdown reaches
// zero. It fires at most once per mount, even if the deadline already passed
// or ticks overlap. Call Stop to cancel.
func (c *Countdown) Watch(onExpire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}

	until := c.deadline.Sub(c.now())
	if until < 0 {
		until = 0
	}
	c.timer = time.AfterFunc(until, func() {
		c.mu.Lock()
		if c.fired {
			c.mu.Unlock()
			return
		}
		c.fired = true
		c.mu.Unlock()
		onExpire()
	})
}

// Stop cancels a pending expiry notification.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
}

// Clear removes the persisted deadline. Called only on terminal submission.
func (c *Countdown) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("clear deadline: %w", err)
	}
	return nil
}

func (c *Countdown) setDeadline(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
}
