package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/services"
)

// HealthCheck reports per-dependency status; any failing dependency degrades
// the overall status and the response code.
func HealthCheck(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if err := services.GetPostgres().CheckConnection(); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if err := services.GetMinioService().CheckConnection(); err != nil {
		checks["storage"] = err.Error()
		healthy = false
	} else {
		checks["storage"] = "ok"
	}

	if err := services.GetScanner().CheckConnection(); err != nil {
		checks["scanner"] = err.Error()
		healthy = false
	} else {
		checks["scanner"] = "ok"
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}
