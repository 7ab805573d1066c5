package model

// Test is the test metadata and question list loaded once per session mount,
// immutable afterwards.
type Test struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	IsTimed         bool       `json:"is_timed"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Questions       []Question `json:"questions"`
}

// Question is a single multiple-choice question. Choice order is display
// order. Question text may embed inline math spans delimited by '$' pairs;
// the gateway passes the text through untouched for the client to render.
type Question struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Choices  []Choice `json:"choices"`
	ImageURL string   `json:"image_url,omitempty"`
}

// Choice is one selectable option of a question.
type Choice struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// HasChoice reports whether key is a legal choice for the question.
func (q *Question) HasChoice(key string) bool {
	for _, c := range q.Choices {
		if c.Key == key {
			return true
		}
	}
	return false
}

// TestOverview is the pre-session begin-screen payload.
type TestOverview struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	IsTimed          bool     `json:"is_timed"`
	DurationMinutes  int      `json:"duration_minutes,omitempty"`
	MaxAttempts      *int     `json:"max_attempts,omitempty"`
	PassScore        *float64 `json:"pass_score,omitempty"`
	AttemptCount     int      `json:"attempt_count"`
	AttemptsExceeded bool     `json:"attempts_exceeded"`
}

// Answer pairs a question with the student's selected choice key.
type Answer struct {
	QuestionID     string `json:"question_id"`
	SelectedChoice string `json:"selected_choice"`
}

// SubmitResult is the server-graded outcome of a terminal submission.
type SubmitResult struct {
	Score float64 `json:"score"`
}
