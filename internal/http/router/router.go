package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agroflow/agroflow-backend/internal/config"
	"github.com/agroflow/agroflow-backend/internal/http/handlers"
	"github.com/agroflow/agroflow-backend/internal/http/middleware"
	"github.com/agroflow/agroflow-backend/internal/service"
	"github.com/agroflow/agroflow-backend/internal/workflow"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	requestHandler *handlers.RequestHandler,
	productHandler *handlers.ProductHandler,
	reportHandler *handlers.ReportHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/evidence", http.Dir(cfg.EvidenceStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	api.GET("/ws", wsHandler.Handle)

	adminRoles := []string{
		workflow.RoleKebeleAdmin,
		workflow.RoleWoredaAdmin,
		workflow.RoleZoneAdmin,
		workflow.RoleRegionAdmin,
		workflow.RoleFederalAdmin,
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/auth/me", authHandler.GetMe)

		protected.POST("/requests", requestHandler.CreateRequest)
		protected.GET("/requests", requestHandler.ListRequests)
		protected.GET("/requests/:id", middleware.UUIDValidator("id"), requestHandler.GetRequest)
		protected.GET("/requests/:id/status", middleware.UUIDValidator("id"), requestHandler.GetRequestStatus)
		protected.PUT("/requests/:id", middleware.UUIDValidator("id"), requestHandler.UpdateRequest)
		protected.DELETE("/requests/:id", middleware.UUIDValidator("id"), requestHandler.DeleteRequest)
		protected.PATCH("/requests/:id/status", middleware.UUIDValidator("id"),
			middleware.RequireRoles(adminRoles...), requestHandler.UpdateLevelStatus)
		protected.PATCH("/requests/bulk-status",
			middleware.RequireRoles(adminRoles...), requestHandler.BulkUpdateStatus)
		protected.POST("/requests/:id/delivery", middleware.UUIDValidator("id"), requestHandler.ConfirmDelivery)
		protected.GET("/deliveries", requestHandler.ListDeliveries)

		protected.GET("/products", productHandler.ListProducts)
		protected.GET("/products/:id", middleware.UUIDValidator("id"), productHandler.GetProduct)
		protected.POST("/products", middleware.RequireRoles(adminRoles...), productHandler.CreateProduct)
		protected.PUT("/products/:id", middleware.UUIDValidator("id"),
			middleware.RequireRoles(adminRoles...), productHandler.UpdateProduct)
		protected.DELETE("/products/:id", middleware.UUIDValidator("id"),
			middleware.RequireRoles(adminRoles...), productHandler.DeleteProduct)

		protected.POST("/reports", middleware.RequireRoles(adminRoles...), reportHandler.CreateReport)
		protected.POST("/reports/evidence", middleware.RequireRoles(adminRoles...), reportHandler.UploadEvidence)
		protected.GET("/reports", reportHandler.ListReports)
		protected.GET("/reports/:id", middleware.UUIDValidator("id"), reportHandler.GetReport)
		protected.PATCH("/reports/:id/status", middleware.UUIDValidator("id"),
			middleware.RequireRoles(workflow.RoleFederalAdmin), reportHandler.UpdateReportStatus)

		protected.GET("/notifications", notificationHandler.ListNotifications)
		protected.GET("/notifications/unread/count", notificationHandler.CountUnread)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	return r
}
