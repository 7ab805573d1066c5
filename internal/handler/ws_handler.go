package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/classmark/session-gateway/internal/middleware"
	"github.com/classmark/session-gateway/internal/model"
	"github.com/classmark/session-gateway/internal/session"
	ws "github.com/classmark/session-gateway/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the countdown to the timer display. Each tick recomputes
// seconds remaining from the persisted deadline, so the stream never drifts
// and reconnecting clients pick up the continued countdown.
type WSHandler struct {
	manager  *session.Manager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(manager *session.Manager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		manager:  manager,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// TimerStream godoc
// WS /ws/v1/student/tests/:test_id/timer
// Upgrades to WebSocket and pushes one tick per second until the session
// submits or the client disconnects.
func (h *WSHandler) TimerStream(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	testID := c.Param("test_id")

	ctrl, found := h.manager.Get(*identity, testID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no mounted session for this test"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", identity.UserID).
		Str("test_id", testID).
		Logger()

	wsLog.Info().Msg("Timer stream connected")

	// Read pump: consume pings and detect disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := ctrl.Snapshot()

			if snap.Status == model.SessionStatusSubmitted {
				var score float64
				if snap.Result != nil {
					score = snap.Result.Score
				}
				_ = ws.WriteTyped(conn, ws.SubmittedEvent{Event: ws.EventSubmitted, Score: score})
				wsLog.Info().Msg("Timer stream finished")
				return
			}

			tick := ws.TickEvent{
				Event:  ws.EventTick,
				Status: string(snap.Status),
			}
			if snap.SecondsRemaining != nil {
				tick.SecondsRemaining = *snap.SecondsRemaining
			}
			if err := ws.WriteTyped(conn, tick); err != nil {
				wsLog.Debug().Err(err).Msg("Tick write failed")
				return
			}
		}
	}
}
