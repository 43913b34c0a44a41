package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/models"
)

// publicBaseURL prefixes share URLs returned to clients. Set once at startup.
var publicBaseURL = "http://localhost:8080"

func Configure(baseURL string) {
	if baseURL != "" {
		publicBaseURL = baseURL
	}
}

func userIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}

// respondError maps domain errors to status codes. Unanticipated errors are
// logged and answered with an opaque 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrFileNotFound),
		errors.Is(err, models.ErrFolderNotFound),
		errors.Is(err, models.ErrShareNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, models.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, models.ErrSharePassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "password required or incorrect"})
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrFileNotReady),
		errors.Is(err, models.ErrShareExhausted),
		errors.Is(err, models.ErrFolderNotEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflicting update, retry"})
	default:
		log.Printf("[API] unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
