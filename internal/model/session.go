package model

// SessionStatus enumerates the lifecycle states of a mounted attempt.
type SessionStatus string

const (
	SessionStatusLoading    SessionStatus = "LOADING"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusReviewing  SessionStatus = "REVIEWING"
	SessionStatusSubmitting SessionStatus = "SUBMITTING"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
	SessionStatusError      SessionStatus = "ERROR"
)

// QuestionReview is the per-question state shown on the review screen:
// answered/unanswered crossed with marked/unmarked, in question order.
type QuestionReview struct {
	QuestionID     string  `json:"question_id"`
	Answered       bool    `json:"answered"`
	SelectedChoice *string `json:"selected_choice,omitempty"`
	Marked         bool    `json:"marked"`
}

// SessionSnapshot is the read-only view handed to presentational clients:
// the current question, progress, per-question review state, the countdown
// and the action surface is everything they get.
type SessionSnapshot struct {
	TestID          string        `json:"test_id"`
	TestName        string        `json:"test_name"`
	Status          SessionStatus `json:"status"`
	IsTimed         bool          `json:"is_timed"`
	DurationMinutes int           `json:"duration_minutes,omitempty"`
	// SecondsRemaining is present only for timed sessions.
	SecondsRemaining *int64           `json:"seconds_remaining,omitempty"`
	CurrentIndex     int              `json:"current_index"`
	TotalQuestions   int              `json:"total_questions"`
	Progress         float64          `json:"progress"`
	CurrentQuestion  *Question        `json:"current_question,omitempty"`
	Review           []QuestionReview `json:"review"`
	Result           *SubmitResult    `json:"result,omitempty"`
	// LastError carries the retry affordance after a failed load or submit.
	LastError string `json:"last_error,omitempty"`
}

// ─── Request payloads (presentational surface) ──────────────────────

// SelectAnswerRequest records or replaces the choice for one question.
type SelectAnswerRequest struct {
	QuestionID     string `json:"question_id" binding:"required"`
	SelectedChoice string `json:"selected_choice" binding:"required,max=10"`
}

// ToggleMarkRequest flips the review mark on one question.
type ToggleMarkRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
}

// NavigateRequest moves the session cursor. "jump" is only legal from the
// review screen and requires Index.
type NavigateRequest struct {
	Direction string `json:"direction" binding:"required,oneof=next previous jump"`
	Index     *int   `json:"index" binding:"omitempty,min=0"`
}
