package router

import (
	"net/http"
	"time"

	"github.com/classmark/session-gateway/internal/config"
	"github.com/classmark/session-gateway/internal/handler"
	"github.com/classmark/session-gateway/internal/middleware"
	"github.com/classmark/session-gateway/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Begin   *handler.BeginHandler
	Session *handler.SessionHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-User-ID", "X-User-Role", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the routes that reach the testing platform
	// (30 requests per minute per IP).
	platformLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── Student Group (Identity + Role Gate) ──────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireIdentity(),
		middleware.RequireStudent(),
	)
	{
		// Begin-test screen
		studentAPI.GET("/tests/:test_id/begin", handlers.Begin.GetTestOverview)
		studentAPI.POST("/tests/:test_id/begin", platformLimiter.Middleware(), handlers.Begin.BeginTest)

		// Test-taking session
		studentAPI.POST("/tests/:test_id/session", platformLimiter.Middleware(), handlers.Session.MountSession)
		studentAPI.GET("/tests/:test_id/session", handlers.Session.GetSnapshot)
		studentAPI.DELETE("/tests/:test_id/session", handlers.Session.Abandon)
		studentAPI.PUT("/tests/:test_id/session/answer", handlers.Session.SelectAnswer)
		studentAPI.POST("/tests/:test_id/session/marks", handlers.Session.ToggleMark)
		studentAPI.POST("/tests/:test_id/session/navigation", handlers.Session.Navigate)
		studentAPI.POST("/tests/:test_id/session/review", handlers.Session.OpenReview)
		studentAPI.POST("/tests/:test_id/session/submit", platformLimiter.Middleware(), handlers.Session.Submit)
	}

	// ─── WebSocket Group (Timer Stream) ────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireIdentity(),
		middleware.RequireStudent(),
	)
	{
		ws.GET("/student/tests/:test_id/timer", handlers.WS.TimerStream)
	}

	return router
}
