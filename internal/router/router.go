package router

import (
	"net/http"

	"kohisync_backend/internal/events"
	"kohisync_backend/internal/handlers"
	"kohisync_backend/internal/middleware"
	"kohisync_backend/internal/services"
	"kohisync_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies is what Setup needs to mount the API.
type Dependencies struct {
	Services *services.Services
	Tokens   *utils.TokenManager
	Feed     *events.Hub
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.Services.Auth)
	orderHandler := handlers.NewOrderHandler(deps.Services.Orders, deps.Services.Settlement)
	inventoryHandler := handlers.NewInventoryHandler(deps.Services.Inventory)
	reportHandler := handlers.NewReportHandler(deps.Services.Reports)
	kioskHandler := handlers.NewKioskHandler(deps.Services.Kiosk)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)
	SetupKioskRoutes(apiV1, kioskHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(deps.Tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupReportRoutes(authenticated, reportHandler)
		if deps.Feed != nil {
			SetupFeedRoutes(authenticated, deps.Feed)
		}
	}
}
