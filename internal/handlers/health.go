package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/database"
	"gorm.io/gorm"
)

// HealthHandler answers the liveness probe
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports whether the database answers. The probe itself always
// returns 200 so a slow database does not take the process out of rotation.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	if err := database.Ping(ctx, h.db); err != nil {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "TaskFlow API is running",
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
