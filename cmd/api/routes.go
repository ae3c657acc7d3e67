package main

import (
	"calldata-platform/internal/auth"
	"calldata-platform/internal/httpapi"
	"calldata-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h *httpapi.Handlers, authMW gin.HandlerFunc, production bool) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public). The tenant id in the path is checked against the registry.
	r.POST("/webhooks/voice/:tenant_id", h.IngestVoiceWebhook)

	// Token issuance without credential checks is never exposed in production.
	if !production {
		r.POST("/v1/auth/login", h.Login)
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			tid, _ := auth.TenantID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "tenant_id": tid, "role": role})
		})

		calldata := v1.Group("/calldata")
		calldata.Use(httpapi.RequireTenantAndAnyRole(rbac.DashboardRoles...)...)
		{
			calldata.GET("", h.GetCallData)
		}

		// ADMIN routes. Platform staff only; tenant owners cannot drop sync state.
		admin := v1.Group("/admin")
		admin.Use(httpapi.RequireTenantAndAnyRole(rbac.RoleOperator)...)
		{
			admin.GET("/tenants/:tenant_id/sync", h.GetSyncState)
			admin.DELETE("/tenants/:tenant_id/sync", h.DeleteSyncState)
		}
	}
}
