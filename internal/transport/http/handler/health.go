package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/bootstrap"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Check reports liveness plus the state of every configured dependency.
// Dependencies that are not configured are left out.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{}
	allOK := true
	if h.app.Redis != nil {
		status := h.checkRedis(ctx)
		allOK = allOK && status.OK
		deps["redis"] = status
	}
	if h.app.MQConn != nil {
		status := h.checkRabbitMQ()
		allOK = allOK && status.OK
		deps["rabbitmq"] = status
	}

	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":             h.app.Config.App.Name,
		"env":             h.app.Config.App.Env,
		"uptime_sec":      int(time.Since(h.app.StartedAt).Seconds()),
		"session_backend": h.app.Config.Session.Backend,
		"llm_provider":    h.app.Config.LLM.Provider,
		"scanned_mode":    h.app.ScannedMode,
		"dependencies":    deps,
	})
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.MQConn.IsClosed() {
		return dependencyStatus{OK: false, Message: "connection closed"}
	}
	return dependencyStatus{OK: true}
}
