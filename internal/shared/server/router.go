package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/email"
	"intake-backend/internal/notify"
	"intake-backend/internal/shared/config"
	"intake-backend/internal/shared/metrics"
	"intake-backend/internal/shared/server/middleware"
	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/submissions"
)

// RouterDeps carries the constructed handlers the router mounts.
type RouterDeps struct {
	Config            config.Config
	SubmissionHandler *submissions.Handler
	FollowUpHandler   *email.Handler
	WebhookHandler    *notify.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterRoutes(api)
	}
	if deps.FollowUpHandler != nil {
		deps.FollowUpHandler.RegisterRoutes(api)
	}
	if deps.WebhookHandler != nil {
		deps.WebhookHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
