package testapi

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/classmark/session-gateway/internal/model"
)

func TestDecodeChoicesPreservesKeyOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []model.Choice
	}{
		{
			name: "plain object",
			raw:  `{"A": "alpha", "B": "beta"}`,
			want: []model.Choice{{Key: "A", Text: "alpha"}, {Key: "B", Text: "beta"}},
		},
		{
			name: "non-alphabetical order kept",
			raw:  `{"D": "delta", "B": "beta", "A": "alpha", "C": "gamma"}`,
			want: []model.Choice{
				{Key: "D", Text: "delta"}, {Key: "B", Text: "beta"},
				{Key: "A", Text: "alpha"}, {Key: "C", Text: "gamma"},
			},
		},
		{
			name: "double-encoded string",
			raw:  `"{\"B\": \"second\", \"A\": \"first\"}"`,
			want: []model.Choice{{Key: "B", Text: "second"}, {Key: "A", Text: "first"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeChoices(json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("decodeChoices(%s): %v", tc.raw, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d choices, want %d: %+v", len(got), len(tc.want), got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("choice[%d] = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestDecodeChoicesRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing", raw: ``},
		{name: "null", raw: `null`},
		{name: "array", raw: `["A", "B"]`},
		{name: "scalar", raw: `42`},
		{name: "empty object", raw: `{}`},
		{name: "duplicate keys", raw: `{"A": "one", "A": "two"}`},
		{name: "non-string value", raw: `{"A": {"nested": true}}`},
		{name: "double-encoded garbage", raw: `"not json at all"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decodeChoices(json.RawMessage(tc.raw)); err == nil {
				t.Fatalf("decodeChoices(%s) accepted malformed input", tc.raw)
			}
		})
	}
}

func TestFlexIDAcceptsStringAndNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: `"q-17"`, want: "q-17"},
		{raw: `17`, want: "17"},
		{raw: `17.0`, want: "17.0"},
		{raw: `null`, want: ""},
	}

	for _, tc := range tests {
		var id flexID
		if err := json.Unmarshal([]byte(tc.raw), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if string(id) != tc.want {
			t.Fatalf("flexID(%s) = %q, want %q", tc.raw, id, tc.want)
		}
	}

	var id flexID
	if err := json.Unmarshal([]byte(`true`), &id); err == nil {
		t.Fatal("flexID accepted a boolean")
	}
}

func TestNormalizeTestSortsAndStripsGradingFields(t *testing.T) {
	payload := `{
		"name": "History Midterm",
		"is_timed": true,
		"duration_minutes": 45,
		"questions": [
			{"id": 2, "order": 2, "question_text": "Second?",
			 "choices": {"A": "yes", "B": "no"},
			 "correct_choice": "A", "explanation": "secret"},
			{"id": "1", "order": 1, "question_text": "First?",
			 "choices": "{\"B\": \"b\", \"A\": \"a\"}",
			 "image_url": "https://cdn.example.com/map.png"}
		]
	}`

	var raw rawTest
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatal(err)
	}
	test, err := normalizeTest("t1", &raw)
	if err != nil {
		t.Fatal(err)
	}

	if test.ID != "t1" || test.Name != "History Midterm" || !test.IsTimed || test.DurationMinutes != 45 {
		t.Fatalf("test header = %+v", test)
	}
	if len(test.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(test.Questions))
	}

	// Sorted by order, not arrival order; numeric and string ids coexist.
	if test.Questions[0].ID != "1" || test.Questions[1].ID != "2" {
		t.Fatalf("question order = %s, %s", test.Questions[0].ID, test.Questions[1].ID)
	}
	if test.Questions[0].ImageURL == "" {
		t.Fatal("image url dropped")
	}
	if got := test.Questions[0].Choices; got[0].Key != "B" || got[1].Key != "A" {
		t.Fatalf("double-encoded choices lost order: %+v", got)
	}

	// Grading fields must not leak into anything the client can see.
	encoded, err := json.Marshal(test)
	if err != nil {
		t.Fatal(err)
	}
	for _, leaked := range []string{"correct_choice", "secret", "explanation"} {
		if strings.Contains(string(encoded), leaked) {
			t.Fatalf("normalized test leaks %q: %s", leaked, encoded)
		}
	}
}

func TestNormalizeTestRejectsBrokenPayloads(t *testing.T) {
	tests := []struct {
		name string
		raw  rawTest
	}{
		{name: "no questions", raw: rawTest{Name: "empty"}},
		{
			name: "empty question id",
			raw: rawTest{Questions: []rawQuestion{
				{ID: "", Choices: json.RawMessage(`{"A": "a"}`)},
			}},
		},
		{
			name: "duplicate question ids",
			raw: rawTest{Questions: []rawQuestion{
				{ID: "1", Choices: json.RawMessage(`{"A": "a"}`)},
				{ID: "1", Choices: json.RawMessage(`{"A": "a"}`)},
			}},
		},
		{
			name: "broken choices",
			raw: rawTest{Questions: []rawQuestion{
				{ID: "1", Choices: json.RawMessage(`[]`)},
			}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := normalizeTest("t1", &tc.raw); err == nil {
				t.Fatal("normalizeTest accepted a broken payload")
			}
		})
	}
}
