package api

import (
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Vault-Service/cmd/middleware"
	"github.com/File-Sharing-BondBridg/Vault-Service/internal/api/handlers"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, PATCH, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Share-Password")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}

func RegisterRoutes(r *gin.Engine) {
	// Enable CORS for preflight requests
	r.Use(corsMiddleware())
	r.Use(gintrace.Middleware("vault-service"))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		// Public share access; the link policy decides whether auth is needed
		api.GET("/files/share/:token", middleware.OptionalAuth(), handlers.AccessShare)

		authed := api.Group("", middleware.RequireAuth())
		{
			// File endpoints
			authed.POST("/files/upload", handlers.UploadFile)
			authed.GET("/files", handlers.ListFiles)
			authed.GET("/files/:id/download", handlers.DownloadFile)
			authed.DELETE("/files/:id", handlers.DeleteFile)
			authed.PATCH("/files/:id/move", handlers.MoveFile)

			// Sharing
			authed.POST("/files/:id/share", handlers.CreateShare)
			authed.GET("/files/:id/access-history", handlers.AccessHistory)

			// Permission grants
			authed.POST("/files/:id/permissions", handlers.GrantPermission)
			authed.DELETE("/files/:id/permissions/:userId", handlers.RevokePermission)

			// Folders
			authed.POST("/folders", handlers.CreateFolder)
			authed.GET("/folders", handlers.ListFolders)
			authed.DELETE("/folders/:id", handlers.DeleteFolder)
		}
	}
}
