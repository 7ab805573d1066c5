package middleware

import (
	"net/http"
	"strings"

	"github.com/classmark/session-gateway/internal/response"
	"github.com/classmark/session-gateway/internal/testapi"
	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyIdentity is the Gin context key for the caller identity.
	ContextKeyIdentity = "identity"

	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"

	// RoleStudent is the only role allowed through the session surface.
	RoleStudent = "student"
)

// RequireIdentity extracts the opaque caller identity from the X-User-ID and
// X-User-Role headers. The gateway does not authenticate — the testing
// platform behind it is the authority; the headers are passed through on every
// collaborator call.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(headerUserID))
		role := strings.TrimSpace(c.GetHeader(headerUserRole))

		if userID == "" || role == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrIdentityRequired)
			return
		}

		c.Set(ContextKeyIdentity, testapi.Identity{UserID: userID, Role: role})
		c.Next()
	}
}

// RequireStudent gates a route group to callers carrying the student role.
// Real authorization lives in the testing platform.
func RequireStudent() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrIdentityRequired)
			return
		}
		if identity.Role != RoleStudent {
			response.AbortFail(c, http.StatusForbidden, response.ErrStudentAccessOnly)
			return
		}
		c.Next()
	}
}

// GetIdentity retrieves the caller identity set by RequireIdentity.
// Returns nil if the middleware did not run.
func GetIdentity(c *gin.Context) *testapi.Identity {
	v, ok := c.Get(ContextKeyIdentity)
	if !ok {
		return nil
	}
	identity, ok := v.(testapi.Identity)
	if !ok {
		return nil
	}
	return &identity
}
