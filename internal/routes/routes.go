package routes

import (
	"net/http"

	"investoriq_backend/internal/handlers"
	"investoriq_backend/internal/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes регистрирует HTTP API под /api и служебные маршруты.
// authMiddleware навешивается на защищённую группу.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	authMiddleware gin.HandlerFunc,
	metricsHandler http.Handler,
) {
	ginRouter.GET("/health", appHandlers.HealthHandler.Health)
	ginRouter.GET("/metrics", gin.WrapH(metricsHandler))
	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := ginRouter.Group("/api")
	protected := api.Group("")
	protected.Use(authMiddleware)
	{
		appHandlers.AuthHandler.RegisterRoutes(api, protected)
		appHandlers.PropertyHandler.RegisterRoutes(protected)
		appHandlers.AnalysisHandler.RegisterRoutes(protected)
		appHandlers.PaymentHandler.RegisterRoutes(api, protected)
		appHandlers.WebhookHandler.RegisterRoutes(api)
		appHandlers.SampleReportHandler.RegisterRoutes(api)
	}

	api.GET("/health", appHandlers.HealthHandler.Health)
	logger.Info("HTTP routes registered", "count", len(ginRouter.Routes()))
}
