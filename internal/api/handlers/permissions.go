package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Vault-Service/internal/services"
)

// GrantPermission upserts a capability grant. Owner only; the supplied set
// replaces any existing grant for that user.
func GrantPermission(c *gin.Context) {
	ownerID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		UserID      string   `json:"user_id"`
		Permissions []string `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	mask, err := models.ParsePermissions(req.Permissions)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := services.GetFileService().Grant(c.Request.Context(), c.Param("id"), ownerID, req.UserID, mask); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     req.UserID,
		"permissions": mask.Names(),
	})
}

// RevokePermission removes a user's grant. Owner only.
func RevokePermission(c *gin.Context) {
	ownerID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	if err := services.GetFileService().Revoke(c.Request.Context(), c.Param("id"), ownerID, c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "permission revoked"})
}
