package router

import (
	"kohisync_backend/internal/events"
	"kohisync_backend/internal/handlers"
	"kohisync_backend/internal/middleware"
	"kohisync_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes sets up the routes reachable without a token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
}

// SetupAuthenticatedAuthRoutes sets up the profile and account management routes.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
	group.POST("/users", middleware.RoleAuthMiddleware(models.RoleAdmin), authHandler.CreateUser)
	group.GET("/users", middleware.RoleAuthMiddleware(models.RoleAdmin), authHandler.ListUsers)
}

// SetupOrderRoutes sets up the order and settlement routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/pending-kiosk", orderHandler.GetPendingKioskOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.POST("/:id/discount", orderHandler.ApplyDiscount)
		orderRoutes.POST("/:id/pay", orderHandler.PayOrder)
	}
}

// SetupInventoryRoutes sets up the catalogue and stock routes. Writes are admin only.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := authenticatedGroup.Group("/inventory")
	inventoryRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		inventoryRoutes.GET("", inventoryHandler.GetInventory)
		inventoryRoutes.GET("/low-stock", inventoryHandler.GetLowStock)
		inventoryRoutes.GET("/products/:id", inventoryHandler.GetProduct)

		adminRoutes := inventoryRoutes.Group("")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.GET("/adjustments", inventoryHandler.GetAdjustments)
			adminRoutes.POST("/products", inventoryHandler.CreateProduct)
			adminRoutes.PUT("/products/:id", inventoryHandler.UpdateProduct)
			adminRoutes.POST("/adjust", inventoryHandler.AdjustStock)
		}
	}
}

// SetupReportRoutes sets up the sales report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		reportRoutes.GET("/daily", reportHandler.GetDailyReport)
		reportRoutes.GET("/monthly", reportHandler.GetMonthlyReport)
		reportRoutes.GET("/top-products", reportHandler.GetTopProducts)
		reportRoutes.GET("/discounts", reportHandler.GetDiscountReport)
		reportRoutes.GET("/transaction-types", reportHandler.GetTransactionTypeReport)
		reportRoutes.GET("/hourly-trend", reportHandler.GetHourlyTrend)
	}
}

// SetupFeedRoutes mounts the live order feed used by counter screens.
func SetupFeedRoutes(authenticatedGroup *gin.RouterGroup, hub *events.Hub) {
	feedRoutes := authenticatedGroup.Group("/pos")
	feedRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		feedRoutes.GET("/feed", hub.ServeWS)
	}
}

// SetupKioskRoutes sets up the public self-service routes.
func SetupKioskRoutes(apiGroup *gin.RouterGroup, kioskHandler *handlers.KioskHandler) {
	kioskRoutes := apiGroup.Group("/kiosk")
	{
		kioskRoutes.POST("/sessions", kioskHandler.CreateSession)
		kioskRoutes.GET("/menu", kioskHandler.GetMenu)
		kioskRoutes.GET("/sessions/:session_id/cart", kioskHandler.GetCart)
		kioskRoutes.POST("/sessions/:session_id/items", kioskHandler.AddItem)
		kioskRoutes.DELETE("/sessions/:session_id/items/:product_id", kioskHandler.RemoveItem)
		kioskRoutes.POST("/sessions/:session_id/submit", kioskHandler.SubmitOrder)
	}
}
