package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/happycapy/capy-community-backend/internal/handlers"
	"github.com/happycapy/capy-community-backend/internal/middleware"
	"github.com/happycapy/capy-community-backend/internal/types"
)

type RouterConfig struct {
	AuthMiddleware *middleware.AuthMiddleware
	PostHandler    *handlers.PostHandler
	CommentHandler *handlers.CommentHandler
	CapyHandler    *handlers.CapyHandler
	UserHandler    *handlers.UserHandler

	MediaDir     string
	TracingOn    bool
	AllowOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	if cfg.TracingOn {
		router.Use(otelgin.Middleware("capy-community-backend"))
	}

	// Cors
	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{
			"http://localhost:80",
			"http://localhost:3000",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-User-ID"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.MediaDir != "" {
		router.Static("/media", cfg.MediaDir)
	}

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.Identify())
	{
		api.GET("/posts", cfg.PostHandler.List)
		api.GET("/posts/:id", cfg.PostHandler.Get)
		api.GET("/comments", cfg.CommentHandler.List)
	}

	// ===============
	// || Protected ||
	// ===============
	authed := router.Group("/api")
	authed.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// Posting requires at least pro
		pro := authed.Group("/")
		pro.Use(cfg.AuthMiddleware.RequireTier(types.TierPro))
		pro.POST("/posts", cfg.PostHandler.Create)
		pro.POST("/comments", cfg.CommentHandler.Create)

		// Deleting is owner-or-max, checked in the service
		authed.DELETE("/posts/:id", cfg.PostHandler.Delete)
		authed.GET("/me", cfg.UserHandler.GetMe)

		// Capy agent surface is max only
		capy := authed.Group("/capy")
		capy.Use(cfg.AuthMiddleware.RequireCapyAccess())
		capy.GET("", cfg.CapyHandler.Get)
		capy.POST("", cfg.CapyHandler.Create)
		capy.GET("/recommendations", cfg.CapyHandler.ListRecommendations)
		capy.POST("/recommendations/generate", cfg.CapyHandler.GenerateRecommendations)
		capy.GET("/interactions", cfg.CapyHandler.ListInteractions)
	}

	return router
}
