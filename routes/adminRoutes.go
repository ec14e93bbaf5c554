package routes

import (
	"lostfound-bot/middlewares"

	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up the admin login and the routes it protects
func AdminRoutes(r *gin.Engine, h Handlers) {
	requireAdmin := middlewares.AdminAuth(h.AdminSecret, h.Now, h.Log)

	admin := r.Group("/api/admin")
	{
		admin.POST("/login", h.Auth.LoginAdmin)
	}

	api := r.Group("/api")
	{
		api.GET("/stats", requireAdmin, h.Reports.GetReportAnalytics)
	}

	r.GET("/debug/reports", requireAdmin, h.Reports.ListReports)
}
