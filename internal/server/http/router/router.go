package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/marketplace/internal/server/http/handlers"
	"github.com/polkiloo/marketplace/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.MarketplaceFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	catalogHandler := handlers.NewCatalogHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)

	api := engine.Group("/api")
	api.POST("/register/customer", authHandler.RegisterCustomer)
	api.POST("/register/seller", authHandler.RegisterSeller)
	api.POST("/login", authHandler.Login)
	api.GET("/products", catalogHandler.List)
	api.GET("/products/:id", catalogHandler.Get)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))
	authed.POST("/products", catalogHandler.Create)

	orders := authed.Group("/user/orders")
	orders.POST("", orderHandler.Place)
	orders.GET("", orderHandler.List)
	orders.GET("/history", orderHandler.History)
	orders.GET("/pending", orderHandler.Pending)
	orders.GET("/:id", orderHandler.Get)
	orders.PATCH("/:id/status", orderHandler.UpdateStatus)
	orders.POST("/:id/cancel", orderHandler.Cancel)

	return engine
}
