package handler

import (
	"errors"
	"net/http"

	"github.com/classmark/session-gateway/internal/middleware"
	"github.com/classmark/session-gateway/internal/model"
	"github.com/classmark/session-gateway/internal/response"
	"github.com/classmark/session-gateway/internal/session"
	"github.com/classmark/session-gateway/internal/testapi"
	"github.com/classmark/session-gateway/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SessionHandler exposes the mounted attempt to the presentational clients:
// snapshot reads plus the action surface (answer, mark, navigate, review,
// submit, abandon).
type SessionHandler struct {
	manager *session.Manager
	log     zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(manager *session.Manager, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		log:     log.With().Str("component", "session_handler").Logger(),
	}
}

// MountSession godoc
// POST /api/v1/student/tests/:test_id/session
// Mounts (or re-attaches to) the attempt. Without the started marker this
// signals a redirect back to the begin screen and issues no platform fetch.
func (h *SessionHandler) MountSession(c *gin.Context) {
	identity, testID, ok := h.requireTarget(c)
	if !ok {
		return
	}

	ctrl, err := h.manager.Mount(c.Request.Context(), *identity, testID)
	if err != nil {
		if errors.Is(err, session.ErrNotStarted) {
			response.Fail(c, http.StatusConflict, response.ErrTestNotStarted)
			return
		}
		h.log.Error().Err(err).Str("test_id", testID).Msg("Session mount failed")
		response.Fail(c, http.StatusBadGateway, response.ErrTestLoadFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": ctrl.Snapshot()})
}

// GetSnapshot godoc
// GET /api/v1/student/tests/:test_id/session
func (h *SessionHandler) GetSnapshot(c *gin.Context) {
	ctrl, ok := h.requireSession(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": ctrl.Snapshot()})
}

// SelectAnswer godoc
// PUT /api/v1/student/tests/:test_id/session/answer
// Upserts one answer. Selecting again for the same question replaces the
// prior choice; nothing is sent to the platform until submission.
func (h *SessionHandler) SelectAnswer(c *gin.Context) {
	ctrl, ok := h.requireSession(c)
	if !ok {
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := ctrl.SelectAnswer(req.QuestionID, req.SelectedChoice); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": ctrl.Snapshot()})
}

// ToggleMark godoc
// POST /api/v1/student/tests/:test_id/session/marks
func (h *SessionHandler) ToggleMark(c *gin.Context) {
	ctrl, ok := h.requireSession(c)
	if !ok {
		return
	}

	var req model.ToggleMarkRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	marked, err := ctrl.ToggleReviewMark(req.QuestionID)
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"marked": marked, "session": ctrl.Snapshot()})
}

// Navigate godoc
// POST /api/v1/student/tests/:test_id/session/navigation
// next/previous move the cursor (clamped no-ops at the edges); jump leaves
// the review screen for the given question.
func (h *SessionHandler) Navigate(c *gin.Context) {
	ctrl, ok := h.requireSession(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var err error
	switch req.Direction {
	case "next":
		err = ctrl.GoNext()
	case "previous":
		err = ctrl.GoPrevious()
	case "jump":
		if req.Index == nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"index": "index is required for jump"})
			return
		}
		err = ctrl.ReturnToQuestion(*req.Index)
	}
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": ctrl.Snapshot()})
}

// OpenReview godoc
// POST /api/v1/student/tests/:test_id/session/review
// Allowed only from the last question.
func (h *SessionHandler) OpenReview(c *gin.Context) {
	ctrl, ok := h.requireSession(c)
	if !ok {
		return
	}

	if err := ctrl.OpenReview(); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": ctrl.Snapshot()})
}

// Submit godoc
// POST /api/v1/student/tests/:test_id/session/submit
// The terminal submission. At most one platform call ever fires, even if a
// click races the deadline expiry. On failure the session stays open and the
// student may retry.
func (h *SessionHandler) Submit(c *gin.Context) {
	ctrl, ok := h.requireSession(c)
	if !ok {
		return
	}

	result, err := ctrl.RequestSubmit(c.Request.Context(), session.TriggerUser)
	if err != nil {
		if errors.Is(err, session.ErrSubmitInFlight) {
			response.Fail(c, http.StatusConflict, response.ErrSubmitInFlight)
			return
		}
		if errors.Is(err, session.ErrWrongState) {
			response.Fail(c, http.StatusConflict, response.ErrWrongState)
			return
		}
		response.Fail(c, http.StatusBadGateway, response.ErrSubmitFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Abandon godoc
// DELETE /api/v1/student/tests/:test_id/session
// Drops the in-memory session without submitting. The persisted deadline and
// started marker survive, so returning resumes the same countdown.
func (h *SessionHandler) Abandon(c *gin.Context) {
	identity, testID, ok := h.requireTarget(c)
	if !ok {
		return
	}

	if !h.manager.Unmount(*identity, testID) {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"abandoned": true})
}

// requireTarget extracts the identity and test id shared by every route.
func (h *SessionHandler) requireTarget(c *gin.Context) (*testapi.Identity, string, bool) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrIdentityRequired)
		return nil, "", false
	}
	testID := c.Param("test_id")
	if testID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, "", false
	}
	return identity, testID, true
}

// requireSession resolves the mounted controller for the target attempt.
func (h *SessionHandler) requireSession(c *gin.Context) (*session.Controller, bool) {
	identity, testID, ok := h.requireTarget(c)
	if !ok {
		return nil, false
	}
	ctrl, found := h.manager.Get(*identity, testID)
	if !found {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return nil, false
	}
	return ctrl, true
}

// failSession maps core sentinel errors onto response codes.
func (h *SessionHandler) failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	case errors.Is(err, session.ErrInvalidChoice):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidChoice)
	case errors.Is(err, session.ErrNotAtLastQuestion):
		response.Fail(c, http.StatusConflict, response.ErrNotAtLastQuestion)
	case errors.Is(err, session.ErrNotReviewing):
		response.Fail(c, http.StatusConflict, response.ErrNotReviewing)
	case errors.Is(err, session.ErrIndexOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, session.ErrWrongState):
		response.Fail(c, http.StatusConflict, response.ErrWrongState)
	default:
		h.log.Error().Err(err).Msg("Session operation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
