package http

import (
	"net/http"

	"syncwatch/internal/core/services"
	"syncwatch/pkg/validation"

	"github.com/gin-gonic/gin"
)

// SessionHandler issues participant sessions. The token it mints is the
// identity the websocket transport (and the room core behind it) trusts.
type SessionHandler struct {
	authService services.AuthService
}

func NewSessionHandler(authService services.AuthService) *SessionHandler {
	return &SessionHandler{authService: authService}
}

func (h *SessionHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/sessions", h.CreateSession)
	}
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		DisplayName string `json:"display_name" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validation.ValidateDisplayName(req.DisplayName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, participantID, err := h.authService.IssueSession(req.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":          token,
		"participant_id": participantID,
		"display_name":   req.DisplayName,
	})
}
