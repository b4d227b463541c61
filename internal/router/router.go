package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/skillstage/skillstage-backend/internal/config"
	"github.com/skillstage/skillstage-backend/internal/handler"
	"github.com/skillstage/skillstage-backend/internal/middleware"
	"github.com/skillstage/skillstage-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Test        *handler.TestHandler
	Question    *handler.QuestionHandler
	Certificate *handler.CertificateHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokens *middleware.TokenValidator,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Test Sessions (Authenticated Users) ────────────────────────
	testsAPI := router.Group("/api/v1/tests")
	testsAPI.Use(middleware.RequireUserJWT(tokens))
	{
		testsAPI.POST("", handlers.Test.StartTest)
		testsAPI.GET("", handlers.Test.ListSessions)
		testsAPI.GET("/:session_id", handlers.Test.GetSession)
		testsAPI.PUT("/:session_id/answers", handlers.Test.SaveAnswers)
		testsAPI.POST("/:session_id/submit", handlers.Test.SubmitTest)
	}

	// ─── 2. Certificates (Authenticated Users) ─────────────────────────
	certsAPI := router.Group("/api/v1/certificates")
	certsAPI.Use(middleware.RequireUserJWT(tokens))
	{
		certsAPI.GET("", handlers.Certificate.ListCertificates)
		certsAPI.GET("/:id", handlers.Certificate.GetCertificate)
	}

	// ─── 3. WebSocket Group (Query-Token Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireUserWSAuth(tokens))
	{
		ws.GET("/tests/:session_id/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Admin Group (Admin JWT) ────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(tokens))
	{
		adminAPI.GET("/questions", handlers.Question.ListQuestions)
		adminAPI.GET("/questions/pool-health", handlers.Question.PoolHealth)
		adminAPI.GET("/questions/:id", handlers.Question.GetQuestion)
		adminAPI.POST("/questions", handlers.Question.CreateQuestion)
		adminAPI.POST("/questions/bulk", handlers.Question.BulkUploadQuestions)
		adminAPI.PUT("/questions/:id", handlers.Question.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", handlers.Question.DeleteQuestion)
	}

	return router
}
