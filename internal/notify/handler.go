package notify

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/shared/server/middleware"
	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/shared/telemetry"
)

// Handler receives inbound webhook callbacks from other systems.
type Handler struct{}

// NewHandler constructs a Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes attaches the inbound webhook route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhook", h.receive)
}

func (h *Handler) receive(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}

	telemetry.Info("webhook.received", map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"keys":       len(body),
	})

	respond.OK(c, gin.H{"success": true})
}
