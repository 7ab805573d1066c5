package testapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/classmark/session-gateway/internal/model"
)

// The platform is loose about shapes: question IDs arrive as numbers or
// strings depending on endpoint, and choices arrive either as a JSON object
// or as a JSON-encoded string of an object. Everything is normalized here so
// the session core only ever sees model.Test.

// rawTest mirrors the platform's test-detail response.
type rawTest struct {
	Name            string        `json:"name"`
	IsTimed         bool          `json:"is_timed"`
	DurationMinutes int           `json:"duration_minutes"`
	Questions       []rawQuestion `json:"questions"`
}

// rawQuestion carries grading fields (correct_choice, explanation) that must
// never reach the session core; they are dropped during normalization.
type rawQuestion struct {
	ID            flexID          `json:"id"`
	Order         int             `json:"order"`
	Text          string          `json:"question_text"`
	Choices       json.RawMessage `json:"choices"`
	CorrectChoice string          `json:"correct_choice"`
	Explanation   string          `json:"explanation"`
	ImageURL      string          `json:"image_url"`
}

// rawTestMeta mirrors the begin-screen metadata response.
type rawTestMeta struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	IsTimed         bool     `json:"is_timed"`
	DurationMinutes int      `json:"duration_minutes"`
	MaxAttempts     *int     `json:"max_attempts"`
	PassScore       *float64 `json:"pass_score"`
}

// flexID accepts a JSON number or string and keeps it as an opaque string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// normalizeTest converts the raw platform payload into the immutable shape
// the session core consumes: questions sorted by their order field, choices
// decoded into an ordered key/text list, grading fields stripped.
func normalizeTest(testID string, raw *rawTest) (*model.Test, error) {
	if len(raw.Questions) == 0 {
		return nil, errors.New("test has no questions")
	}

	sorted := make([]rawQuestion, len(raw.Questions))
	copy(sorted, raw.Questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	questions := make([]model.Question, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	for _, rq := range sorted {
		qid := string(rq.ID)
		if qid == "" {
			return nil, errors.New("question with empty id")
		}
		if _, dup := seen[qid]; dup {
			return nil, fmt.Errorf("duplicate question id %q", qid)
		}
		seen[qid] = struct{}{}

		choices, err := decodeChoices(rq.Choices)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", qid, err)
		}

		questions = append(questions, model.Question{
			ID:       qid,
			Text:     rq.Text,
			Choices:  choices,
			ImageURL: rq.ImageURL,
		})
	}

	return &model.Test{
		ID:              testID,
		Name:            raw.Name,
		IsTimed:         raw.IsTimed,
		DurationMinutes: raw.DurationMinutes,
		Questions:       questions,
	}, nil
}

// decodeChoices accepts either a JSON object or a JSON-encoded string of an
// object and returns the choices in the object's own key order. A plain map
// decode would scramble display order, so the object is walked token by token.
func decodeChoices(raw json.RawMessage) ([]model.Choice, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, errors.New("missing choices")
	}

	// Double-encoded variant: unwrap the string and decode its content.
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("unwrap choices string: %w", err)
		}
		return decodeChoices(json.RawMessage(inner))
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode choices: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("choices is not a JSON object")
	}

	var choices []model.Choice
	seen := make(map[string]struct{})
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode choice key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.New("choice key is not a string")
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate choice key %q", key)
		}
		seen[key] = struct{}{}

		var text string
		if err := dec.Decode(&text); err != nil {
			return nil, fmt.Errorf("decode choice %q text: %w", key, err)
		}
		choices = append(choices, model.Choice{Key: key, Text: text})
	}

	if len(choices) == 0 {
		return nil, errors.New("choices object is empty")
	}
	return choices, nil
}
