package handlers

import (
	"errors"
	"log"
	"net/http"

	"canteen-pos/internal/shared"

	"github.com/gin-gonic/gin"
)

// respondError maps the error taxonomy onto HTTP statuses. Validation and
// not-found carry their message through; storage and unknown failures are
// reported generically with a correlation id and logged server-side.
func respondError(c *gin.Context, err error) {
	switch {
	case shared.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, shared.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, shared.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, shared.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent update, please retry"})
	case shared.IsStorage(err):
		log.Printf("storage error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":          "Internal error",
			"correlation_id": shared.CorrelationID(err),
		})
	default:
		log.Printf("unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
