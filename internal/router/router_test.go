package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/classmark/session-gateway/internal/config"
	"github.com/classmark/session-gateway/internal/handler"
	"github.com/classmark/session-gateway/internal/kv"
	"github.com/classmark/session-gateway/internal/model"
	"github.com/classmark/session-gateway/internal/session"
	"github.com/classmark/session-gateway/internal/testapi"
	"github.com/classmark/session-gateway/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	validator.Setup()
}

// stubAPI is a scriptable platform for HTTP-level tests.
type stubAPI struct {
	overview     model.TestOverview
	test         model.Test
	attemptCount int
	score        float64
}

func (s *stubAPI) FetchTest(ctx context.Context, id testapi.Identity, testID string) (*model.Test, error) {
	cp := s.test
	return &cp, nil
}

func (s *stubAPI) FetchTestMeta(ctx context.Context, id testapi.Identity, testID string) (*model.TestOverview, error) {
	cp := s.overview
	cp.ID = testID
	return &cp, nil
}

func (s *stubAPI) FetchAttemptCount(ctx context.Context, id testapi.Identity, testID string) (int, error) {
	return s.attemptCount, nil
}

func (s *stubAPI) SubmitAttempt(ctx context.Context, id testapi.Identity, testID string, answers []model.Answer) (*model.SubmitResult, error) {
	return &model.SubmitResult{Score: s.score}, nil
}

func newTestRouter(api testapi.API) *gin.Engine {
	log := zerolog.Nop()
	store := kv.NewMemoryStore()
	manager := session.NewManager(api, store, log)
	guard := session.NewGuard(store)

	handlers := &Handlers{
		Begin:   handler.NewBeginHandler(api, guard, log),
		Session: handler.NewSessionHandler(manager, log),
		WS:      handler.NewWSHandler(manager, log, nil),
	}
	return SetupRouter(handlers, &config.Config{GinMode: gin.TestMode})
}

// envelope mirrors the response wrapper for assertions.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string, identified bool) (int, envelope) {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if identified {
		req.Header.Set("X-User-ID", "u1")
		req.Header.Set("X-User-Role", "student")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: bad envelope %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func twoQuestionTest() model.Test {
	return model.Test{
		ID:   "t1",
		Name: "Quiz",
		Questions: []model.Question{
			{ID: "q1", Text: "One?", Choices: []model.Choice{{Key: "A", Text: "a"}, {Key: "B", Text: "b"}}},
			{ID: "q2", Text: "Two?", Choices: []model.Choice{{Key: "A", Text: "a"}, {Key: "B", Text: "b"}}},
		},
	}
}

func TestIdentityAndRoleGates(t *testing.T) {
	r := newTestRouter(&stubAPI{test: twoQuestionTest()})

	code, env := doRequest(t, r, http.MethodGet, "/api/v1/student/tests/t1/begin", "", false)
	if code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "IDENTITY_REQUIRED" {
		t.Fatalf("anonymous request: %d %+v", code, env.Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/student/tests/t1/begin", nil)
	req.Header.Set("X-User-ID", "u9")
	req.Header.Set("X-User-Role", "teacher")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("teacher role got %d, want 403", w.Code)
	}
}

func TestMountBeforeBeginIsRejected(t *testing.T) {
	r := newTestRouter(&stubAPI{test: twoQuestionTest()})

	code, env := doRequest(t, r, http.MethodPost, "/api/v1/student/tests/t1/session", "", true)
	if code != http.StatusConflict || env.Error == nil || env.Error.Code != "TEST_NOT_STARTED" {
		t.Fatalf("mount before begin: %d %+v", code, env.Error)
	}
}

func TestBeginRefusedWhenAttemptsExhausted(t *testing.T) {
	max := 2
	r := newTestRouter(&stubAPI{
		test:         twoQuestionTest(),
		overview:     model.TestOverview{Name: "Quiz", MaxAttempts: &max},
		attemptCount: 2,
	})

	code, env := doRequest(t, r, http.MethodGet, "/api/v1/student/tests/t1/begin", "", true)
	if code != http.StatusOK {
		t.Fatalf("overview: %d %+v", code, env.Error)
	}
	var data struct {
		Test model.TestOverview `json:"test"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if !data.Test.AttemptsExceeded || data.Test.AttemptCount != 2 {
		t.Fatalf("overview = %+v, want attempts exceeded", data.Test)
	}

	code, env = doRequest(t, r, http.MethodPost, "/api/v1/student/tests/t1/begin", "", true)
	if code != http.StatusForbidden || env.Error == nil || env.Error.Code != "ATTEMPTS_EXCEEDED" {
		t.Fatalf("begin with exhausted attempts: %d %+v", code, env.Error)
	}
}

func TestFullAttemptFlow(t *testing.T) {
	r := newTestRouter(&stubAPI{test: twoQuestionTest(), score: 50})

	if code, env := doRequest(t, r, http.MethodPost, "/api/v1/student/tests/t1/begin", "", true); code != http.StatusOK {
		t.Fatalf("begin: %d %+v", code, env.Error)
	}
	if code, env := doRequest(t, r, http.MethodPost, "/api/v1/student/tests/t1/session", "", true); code != http.StatusOK {
		t.Fatalf("mount: %d %+v", code, env.Error)
	}

	code, env := doRequest(t, r, http.MethodPut, "/api/v1/student/tests/t1/session/answer",
		`{"question_id": "q1", "selected_choice": "A"}`, true)
	if code != http.StatusOK {
		t.Fatalf("answer: %d %+v", code, env.Error)
	}

	// Validation failures surface field errors, not a 500.
	code, env = doRequest(t, r, http.MethodPut, "/api/v1/student/tests/t1/session/answer",
		`{"question_id": "q1"}`, true)
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("invalid answer body: %d %+v", code, env.Error)
	}

	code, env = doRequest(t, r, http.MethodPost, "/api/v1/student/tests/t1/session/navigation",
		`{"direction": "next"}`, true)
	if code != http.StatusOK {
		t.Fatalf("navigate: %d %+v", code, env.Error)
	}
	if code, env = doRequest(t, r, http.MethodPost, "/api/v1/student/tests/t1/session/review", "", true); code != http.StatusOK {
		t.Fatalf("review: %d %+v", code, env.Error)
	}

	code, env = doRequest(t, r, http.MethodPost, "/api/v1/student/tests/t1/session/submit", "", true)
	if code != http.StatusOK {
		t.Fatalf("submit: %d %+v", code, env.Error)
	}
	var result struct {
		Result model.SubmitResult `json:"result"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Result.Score != 50 {
		t.Fatalf("score = %v, want 50", result.Result.Score)
	}

	// Terminal submission evicts the session.
	code, env = doRequest(t, r, http.MethodGet, "/api/v1/student/tests/t1/session", "", true)
	if code != http.StatusNotFound || env.Error == nil || env.Error.Code != "SESSION_NOT_FOUND" {
		t.Fatalf("snapshot after submit: %d %+v", code, env.Error)
	}
}
