// Package testapi is the gateway's client for the testing-platform REST API.
// All persistence, grading and authorization live behind this boundary; the
// gateway only passes the caller's opaque identity through and normalizes the
// loosely-shaped responses before they reach the session core.
package testapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/classmark/session-gateway/internal/model"
	"github.com/rs/zerolog"
)

// Identity is the opaque caller identity forwarded on every platform call.
type Identity struct {
	UserID string
	Role   string
}

// API is the set of platform calls the session core depends on.
type API interface {
	// FetchTest loads test metadata plus the ordered question list.
	FetchTest(ctx context.Context, id Identity, testID string) (*model.Test, error)
	// FetchTestMeta loads the begin-screen metadata (no questions).
	FetchTestMeta(ctx context.Context, id Identity, testID string) (*model.TestOverview, error)
	// FetchAttemptCount returns how many attempts the student has used.
	FetchAttemptCount(ctx context.Context, id Identity, testID string) (int, error)
	// SubmitAttempt performs the terminal grading request.
	SubmitAttempt(ctx context.Context, id Identity, testID string, answers []model.Answer) (*model.SubmitResult, error)
}

// StatusError is returned for non-2xx platform responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("platform returned %d: %s", e.StatusCode, e.Body)
}

// Client is the HTTP implementation of API.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a platform API client with the given base URL and timeout.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "testapi").Logger(),
	}
}

func (c *Client) FetchTest(ctx context.Context, id Identity, testID string) (*model.Test, error) {
	var raw rawTest
	path := fmt.Sprintf("/api/student/test/%s", url.PathEscape(testID))
	if err := c.doJSON(ctx, id, http.MethodGet, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch test %s: %w", testID, err)
	}

	test, err := normalizeTest(testID, &raw)
	if err != nil {
		return nil, fmt.Errorf("normalize test %s: %w", testID, err)
	}
	return test, nil
}

func (c *Client) FetchTestMeta(ctx context.Context, id Identity, testID string) (*model.TestOverview, error) {
	var raw rawTestMeta
	path := fmt.Sprintf("/api/student/test/%s/meta", url.PathEscape(testID))
	if err := c.doJSON(ctx, id, http.MethodGet, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch test meta %s: %w", testID, err)
	}

	return &model.TestOverview{
		ID:              testID,
		Name:            raw.Name,
		Description:     raw.Description,
		IsTimed:         raw.IsTimed,
		DurationMinutes: raw.DurationMinutes,
		MaxAttempts:     raw.MaxAttempts,
		PassScore:       raw.PassScore,
	}, nil
}

func (c *Client) FetchAttemptCount(ctx context.Context, id Identity, testID string) (int, error) {
	var raw struct {
		AttemptCount int `json:"attempt_count"`
	}
	path := fmt.Sprintf("/api/student/tests/attempts/%s", url.PathEscape(testID))
	if err := c.doJSON(ctx, id, http.MethodGet, path, nil, &raw); err != nil {
		return 0, fmt.Errorf("fetch attempt count %s: %w", testID, err)
	}
	return raw.AttemptCount, nil
}

func (c *Client) SubmitAttempt(ctx context.Context, id Identity, testID string, answers []model.Answer) (*model.SubmitResult, error) {
	if answers == nil {
		answers = []model.Answer{}
	}
	body := map[string]interface{}{
		"test_id": testID,
		"answers": answers,
	}

	var result model.SubmitResult
	if err := c.doJSON(ctx, id, http.MethodPost, "/api/student/submit", body, &result); err != nil {
		return nil, fmt.Errorf("submit attempt %s: %w", testID, err)
	}
	return &result, nil
}

// doJSON performs one platform request with identity pass-through headers and
// decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, id Identity, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-User-ID", id.UserID)
	req.Header.Set("X-User-Role", id.Role)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Keep a bounded slice of the body for diagnostics.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("Platform request failed")
		return &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
