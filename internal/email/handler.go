package email

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/shared/telemetry"
)

// Handler exposes the follow-up scheduling endpoint.
type Handler struct {
	Scheduler Scheduler
	Now       func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(scheduler Scheduler) *Handler {
	return &Handler{Scheduler: scheduler, Now: time.Now}
}

// RegisterRoutes attaches follow-up routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/follow-ups", h.schedule)
}

type scheduleRequest struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	ScheduledTime string `json:"scheduledTime"`
}

func (h *Handler) schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "email is required", nil)
		return
	}
	if req.Name == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	sendAt := NextBusinessDay(h.Now())
	if raw := strings.TrimSpace(req.ScheduledTime); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "scheduledTime must be RFC3339", nil)
			return
		}
		sendAt = parsed
	}

	if h.Scheduler == nil {
		respond.Error(c, http.StatusServiceUnavailable, "schedule_error", "no follow-up scheduler configured", nil)
		return
	}

	msg := FollowUpMessage(req.Email, req.Name, sendAt)
	if err := h.Scheduler.Schedule(c.Request.Context(), msg); err != nil {
		telemetry.Error("email.schedule.failed", map[string]any{
			"error":      err.Error(),
			"request_id": c.GetString("requestId"),
			"send_at":    sendAt.UTC().Format(time.RFC3339),
		})
		respond.Error(c, http.StatusInternalServerError, "schedule_error", "failed to schedule follow-up email", nil)
		return
	}

	respond.OK(c, gin.H{"success": true, "scheduledTime": sendAt.UTC().Format(time.RFC3339)})
}
