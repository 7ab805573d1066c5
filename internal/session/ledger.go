package session

import (
	"github.com/classmark/session-gateway/internal/model"
)

// Ledger is the in-memory record of answers and review marks for one attempt.
// Purely local state: no network, no persistence — it is discarded whenever
// the session unmounts without submitting. Not safe for concurrent use; the
// owning Controller serializes access.
type Ledger struct {
	order     []string
	questions map[string]*model.Question
	answers   map[string]string
	marked    map[string]struct{}
}

// NewLedger builds a ledger over the fixed, ordered question list.
func NewLedger(questions []model.Question) *Ledger {
	l := &Ledger{
		order:     make([]string, 0, len(questions)),
		questions: make(map[string]*model.Question, len(questions)),
		answers:   make(map[string]string, len(questions)),
		marked:    make(map[string]struct{}),
	}
	for i := range questions {
		q := &questions[i]
		l.order = append(l.order, q.ID)
		l.questions[q.ID] = q
	}
	return l
}

// SelectAnswer upserts the choice for a question. At most one answer per
// question is ever held: selecting again replaces the prior choice. Illegal
// writes (unknown question, unknown choice key) are never stored.
func (l *Ledger) SelectAnswer(questionID, choice string) error {
	q, ok := l.questions[questionID]
	if !ok {
		return ErrUnknownQuestion
	}
	if !q.HasChoice(choice) {
		return ErrInvalidChoice
	}
	l.answers[questionID] = choice
	return nil
}

// Answer returns the selected choice for a question, if any.
func (l *Ledger) Answer(questionID string) (string, bool) {
	choice, ok := l.answers[questionID]
	return choice, ok
}

// ToggleMark flips the review mark on a question and reports the new state.
// Marking is independent of answering.
func (l *Ledger) ToggleMark(questionID string) (bool, error) {
	if _, ok := l.questions[questionID]; !ok {
		return false, ErrUnknownQuestion
	}
	if _, marked := l.marked[questionID]; marked {
		delete(l.marked, questionID)
		return false, nil
	}
	l.marked[questionID] = struct{}{}
	return true, nil
}

// IsMarked reports whether a question is flagged for review.
func (l *Ledger) IsMarked(questionID string) bool {
	_, marked := l.marked[questionID]
	return marked
}

// Snapshot returns the per-question review state for every question in order.
func (l *Ledger) Snapshot() []model.QuestionReview {
	review := make([]model.QuestionReview, 0, len(l.order))
	for _, qid := range l.order {
		entry := model.QuestionReview{
			QuestionID: qid,
			Marked:     l.IsMarked(qid),
		}
		if choice, ok := l.answers[qid]; ok {
			entry.Answered = true
			entry.SelectedChoice = &choice
		}
		review = append(review, entry)
	}
	return review
}

// Answers returns the answered questions in question order — the terminal
// submission payload. Unanswered questions are absent, not sent as blanks.
func (l *Ledger) Answers() []model.Answer {
	answers := make([]model.Answer, 0, len(l.answers))
	for _, qid := range l.order {
		if choice, ok := l.answers[qid]; ok {
			answers = append(answers, model.Answer{
				QuestionID:     qid,
				SelectedChoice: choice,
			})
		}
	}
	return answers
}
