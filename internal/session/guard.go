package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/classmark/session-gateway/internal/config"
	"github.com/classmark/session-gateway/internal/kv"
)

// startedValue is the marker written when the student confirms Begin Test.
const startedValue = "true"

// Guard is the persisted started-attempt marker. It gates entry into the
// session so a client cannot skip the begin-test confirmation, survives
// reloads, and is cleared exactly once on terminal submission.
type Guard struct {
	store kv.Store
}

// NewGuard creates a Guard over the given store.
func NewGuard(store kv.Store) *Guard {
	return &Guard{store: store}
}

// IsStarted reports whether the student confirmed Begin Test for this test.
func (g *Guard) IsStarted(ctx context.Context, userID, testID string) (bool, error) {
	_, err := g.store.Get(ctx, config.StoreKey.StartedKey(userID, testID))
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read started marker: %w", err)
	}
	return true, nil
}

// MarkStarted records the begin-test confirmation. Idempotent.
func (g *Guard) MarkStarted(ctx context.Context, userID, testID string) error {
	if err := g.store.Set(ctx, config.StoreKey.StartedKey(userID, testID), startedValue); err != nil {
		return fmt.Errorf("write started marker: %w", err)
	}
	return nil
}

// Clear removes the started marker. Called only on terminal submission;
// abandoning a session leaves the marker in place.
func (g *Guard) Clear(ctx context.Context, userID, testID string) error {
	if err := g.store.Delete(ctx, config.StoreKey.StartedKey(userID, testID)); err != nil {
		return fmt.Errorf("clear started marker: %w", err)
	}
	return nil
}
