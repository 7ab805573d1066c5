package worker

import (
	"context"
	"time"

	"github.com/classmark/session-gateway/internal/session"
	"github.com/rs/zerolog"
)

// reapInterval is how often the reaper sweeps for idle sessions.
const reapInterval = time.Minute

// ReaperWorker evicts mounted sessions that have sat idle past the configured
// TTL. Eviction discards only in-memory state (the ledger and cursor); the
// persisted deadline and started marker survive, so a returning student
// resumes the same countdown.
type ReaperWorker struct {
	manager *session.Manager
	ttl     time.Duration
	log     zerolog.Logger
}

// NewReaperWorker creates a new ReaperWorker.
func NewReaperWorker(manager *session.Manager, ttl time.Duration, log zerolog.Logger) *ReaperWorker {
	return &ReaperWorker{
		manager: manager,
		ttl:     ttl,
		log:     log.With().Str("component", "reaper_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine; cancel ctx to stop.
func (w *ReaperWorker) Start(ctx context.Context) {
	w.log.Info().Dur("ttl", w.ttl).Msg("Worker started")

	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			if reaped := w.manager.ReapIdle(w.ttl); reaped > 0 {
				w.log.Info().
					Int("count", reaped).
					Int("remaining", w.manager.Count()).
					Msg("Evicted idle sessions")
			}
		}
	}
}
