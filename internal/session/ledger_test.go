package session

import (
	"testing"

	"github.com/classmark/session-gateway/internal/model"
)

func threeQuestions() []model.Question {
	return []model.Question{
		{ID: "q1", Text: "What is $2+2$?", Choices: []model.Choice{
			{Key: "A", Text: "4"}, {Key: "B", Text: "5"},
		}},
		{ID: "q2", Text: "Pick one", Choices: []model.Choice{
			{Key: "A", Text: "yes"}, {Key: "B", Text: "no"}, {Key: "C", Text: "maybe"},
		}},
		{ID: "q3", Text: "Last one", Choices: []model.Choice{
			{Key: "A", Text: "left"}, {Key: "B", Text: "right"},
		}},
	}
}

func TestSelectAnswerLastWriteWins(t *testing.T) {
	l := NewLedger(threeQuestions())

	for _, choice := range []string{"A", "B", "A", "B"} {
		if err := l.SelectAnswer("q1", choice); err != nil {
			t.Fatalf("SelectAnswer(%q): %v", choice, err)
		}
	}

	got, ok := l.Answer("q1")
	if !ok || got != "B" {
		t.Fatalf("Answer(q1) = %q, %v; want B, true", got, ok)
	}
	if answers := l.Answers(); len(answers) != 1 {
		t.Fatalf("Answers() has %d entries, want 1 (no duplicates)", len(answers))
	}
}

func TestSelectAnswerRejectsIllegalWrites(t *testing.T) {
	tests := []struct {
		name       string
		questionID string
		choice     string
		wantErr    error
	}{
		{name: "unknown question", questionID: "q9", choice: "A", wantErr: ErrUnknownQuestion},
		{name: "unknown choice", questionID: "q1", choice: "Z", wantErr: ErrInvalidChoice},
		{name: "empty choice", questionID: "q1", choice: "", wantErr: ErrInvalidChoice},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLedger(threeQuestions())
			if err := l.SelectAnswer(tc.questionID, tc.choice); err != tc.wantErr {
				t.Fatalf("SelectAnswer = %v, want %v", err, tc.wantErr)
			}
			if _, ok := l.Answer(tc.questionID); ok {
				t.Fatal("illegal write was stored")
			}
		})
	}
}

func TestToggleMarkIsItsOwnInverse(t *testing.T) {
	l := NewLedger(threeQuestions())

	marked, err := l.ToggleMark("q2")
	if err != nil || !marked {
		t.Fatalf("first toggle = %v, %v; want true, nil", marked, err)
	}
	marked, err = l.ToggleMark("q2")
	if err != nil || marked {
		t.Fatalf("second toggle = %v, %v; want false, nil", marked, err)
	}
	if l.IsMarked("q2") {
		t.Fatal("q2 still marked after double toggle")
	}

	if _, err := l.ToggleMark("missing"); err != ErrUnknownQuestion {
		t.Fatalf("toggle unknown question = %v, want ErrUnknownQuestion", err)
	}
}

func TestSnapshotAndAnswersInQuestionOrder(t *testing.T) {
	l := NewLedger(threeQuestions())

	// Answer out of order, mark the unanswered one.
	if err := l.SelectAnswer("q2", "B"); err != nil {
		t.Fatal(err)
	}
	if err := l.SelectAnswer("q1", "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.ToggleMark("q3"); err != nil {
		t.Fatal(err)
	}

	snap := l.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot has %d entries, want 3", len(snap))
	}

	want := []struct {
		id       string
		answered bool
		choice   string
		marked   bool
	}{
		{"q1", true, "A", false},
		{"q2", true, "B", false},
		{"q3", false, "", true},
	}
	for i, w := range want {
		got := snap[i]
		if got.QuestionID != w.id || got.Answered != w.answered || got.Marked != w.marked {
			t.Fatalf("snapshot[%d] = %+v, want %+v", i, got, w)
		}
		if w.answered && (got.SelectedChoice == nil || *got.SelectedChoice != w.choice) {
			t.Fatalf("snapshot[%d].SelectedChoice = %v, want %q", i, got.SelectedChoice, w.choice)
		}
		if !w.answered && got.SelectedChoice != nil {
			t.Fatalf("snapshot[%d].SelectedChoice = %q, want nil", i, *got.SelectedChoice)
		}
	}

	// Unanswered questions are absent from the submit payload.
	answers := l.Answers()
	if len(answers) != 2 {
		t.Fatalf("Answers() has %d entries, want 2", len(answers))
	}
	if answers[0].QuestionID != "q1" || answers[0].SelectedChoice != "A" {
		t.Fatalf("answers[0] = %+v", answers[0])
	}
	if answers[1].QuestionID != "q2" || answers[1].SelectedChoice != "B" {
		t.Fatalf("answers[1] = %+v", answers[1])
	}
}
