package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/services"
)

// CreateShare issues a tokenized share link for a ready file.
func CreateShare(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		ExpirationDate        *time.Time `json:"expiration_date"`
		MaxAccessCount        *int       `json:"max_access_count"`
		Password              string     `json:"password"`
		RequireAuthentication bool       `json:"require_authentication"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	share, err := services.GetShareService().Issue(c.Request.Context(), c.Param("id"), userID, services.ShareRequest{
		ExpirationDate:        req.ExpirationDate,
		MaxAccessCount:        req.MaxAccessCount,
		Password:              req.Password,
		RequireAuthentication: req.RequireAuthentication,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"share_id":               share.ID,
		"file_id":                share.FileID,
		"token":                  share.Token,
		"share_url":              publicBaseURL + "/api/files/share/" + share.Token,
		"expiration_date":        share.Policy.ExpirationDate,
		"max_access_count":       share.Policy.MaxAccessCount,
		"require_authentication": share.Policy.RequireAuthentication,
		"created_at":             share.CreatedAt,
	})
}

// AccessShare consumes a share token and streams the decrypted file. The route
// is public; the policy decides whether a password or authentication is
// required. The password travels in the query string or X-Share-Password.
func AccessShare(c *gin.Context) {
	password := c.Query("password")
	if password == "" {
		password = c.GetHeader("X-Share-Password")
	}
	userID, _ := userIDFromContext(c)

	res, err := services.GetShareService().ResolveAccess(
		c.Request.Context(),
		c.Param("token"),
		password,
		userID,
		c.ClientIP(),
		c.Request.UserAgent(),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	serveDownload(c, res)
}

// AccessHistory returns the file's access trail, newest first. Owner only.
func AccessHistory(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	trail, err := services.GetShareService().AccessHistory(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accesses": trail})
}
