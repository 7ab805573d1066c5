package handler

import (
	"errors"
	"net/http"

	"github.com/classmark/session-gateway/internal/middleware"
	"github.com/classmark/session-gateway/internal/response"
	"github.com/classmark/session-gateway/internal/session"
	"github.com/classmark/session-gateway/internal/testapi"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// BeginHandler serves the begin-test screen: test overview, attempt count and
// the Begin Test confirmation that arms the started-attempt guard.
type BeginHandler struct {
	api   testapi.API
	guard *session.Guard
	log   zerolog.Logger
}

// NewBeginHandler creates a new BeginHandler.
func NewBeginHandler(api testapi.API, guard *session.Guard, log zerolog.Logger) *BeginHandler {
	return &BeginHandler{
		api:   api,
		guard: guard,
		log:   log.With().Str("component", "begin_handler").Logger(),
	}
}

// GetTestOverview godoc
// GET /api/v1/student/tests/:test_id/begin
// Returns the pre-test info the begin screen renders: name, description,
// timing, pass score, and whether the attempt limit has been reached.
func (h *BeginHandler) GetTestOverview(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrIdentityRequired)
		return
	}
	testID := c.Param("test_id")
	if testID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	overview, err := h.api.FetchTestMeta(c.Request.Context(), *identity, testID)
	if err != nil {
		h.failPlatform(c, err, "Fetch test meta failed")
		return
	}

	count, err := h.api.FetchAttemptCount(c.Request.Context(), *identity, testID)
	if err != nil {
		h.failPlatform(c, err, "Fetch attempt count failed")
		return
	}

	overview.AttemptCount = count
	overview.AttemptsExceeded = overview.MaxAttempts != nil && count >= *overview.MaxAttempts

	response.Success(c, http.StatusOK, gin.H{"test": overview})
}

// BeginTest godoc
// POST /api/v1/student/tests/:test_id/begin
// Confirms Begin Test: refuses when the attempt limit is reached, otherwise
// sets the started marker that gates the session mount.
func (h *BeginHandler) BeginTest(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrIdentityRequired)
		return
	}
	testID := c.Param("test_id")
	if testID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	overview, err := h.api.FetchTestMeta(c.Request.Context(), *identity, testID)
	if err != nil {
		h.failPlatform(c, err, "Fetch test meta failed")
		return
	}

	if overview.MaxAttempts != nil {
		count, err := h.api.FetchAttemptCount(c.Request.Context(), *identity, testID)
		if err != nil {
			h.failPlatform(c, err, "Fetch attempt count failed")
			return
		}
		if count >= *overview.MaxAttempts {
			response.Fail(c, http.StatusForbidden, response.ErrAttemptsExceeded)
			return
		}
	}

	if err := h.guard.MarkStarted(c.Request.Context(), identity.UserID, testID); err != nil {
		h.log.Error().Err(err).Str("test_id", testID).Msg("Mark started failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"started": true})
}

// failPlatform maps a collaborator failure onto the begin-screen error codes.
func (h *BeginHandler) failPlatform(c *gin.Context, err error, msg string) {
	var statusErr *testapi.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
		return
	}
	h.log.Error().Err(err).Msg(msg)
	response.Fail(c, http.StatusBadGateway, response.ErrTestLoadFailed)
}
