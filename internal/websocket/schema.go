package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick      Event = "tick"
	EventSubmitted Event = "submitted"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// TickEvent is pushed once per second to the timer display: the remaining
// seconds are recomputed from the persisted deadline on every tick, so the
// stream stays correct across reconnects.
type TickEvent struct {
	Event            Event  `json:"event"`
	Status           string `json:"status"`
	SecondsRemaining int64  `json:"seconds_remaining"`
}

// SubmittedEvent closes the stream after the terminal submission.
type SubmittedEvent struct {
	Event Event   `json:"event"`
	Score float64 `json:"score"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
