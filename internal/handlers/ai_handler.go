package handlers

import (
	"net/http"

	"canteen-pos/internal/ai"

	"github.com/gin-gonic/gin"
)

// AIHandler exposes the admin assistant. Without an API key the endpoint
// declines cleanly instead of half-working.
type AIHandler struct {
	Agent  *ai.Agent
	APIKey string
}

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *AIHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	if h.APIKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured"})
		return
	}

	response, err := h.Agent.Run(c.Request.Context(), req.Message, h.APIKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Assistant request failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": response})
}
