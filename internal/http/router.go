package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/roadmap-backend/internal/http/handlers"
	httpMW "github.com/yungbote/roadmap-backend/internal/http/middleware"
	"github.com/yungbote/roadmap-backend/internal/observability"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	OAuthHandler   *httpH.OAuthHandler
	UserHandler    *httpH.UserHandler
	RoadmapHandler *httpH.RoadmapHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log, "/healthcheck", "/metrics"))
	r.Use(httpMW.Metrics(cfg.Metrics, "/metrics", "/healthcheck"))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Roadmaps (public)
	if cfg.RoadmapHandler != nil {
		r.POST("/generate-roadmap", cfg.RoadmapHandler.GenerateRoadmap)
		r.GET("/roadmaps", cfg.RoadmapHandler.ListRoadmaps)
		r.GET("/roadmaps/:id", cfg.RoadmapHandler.GetRoadmap)
	}

	// Auth (public)
	if cfg.AuthHandler != nil {
		r.POST("/register", cfg.AuthHandler.Register)
		r.POST("/login", cfg.AuthHandler.Login)
		r.POST("/refresh", cfg.AuthHandler.Refresh)
	}
	if cfg.OAuthHandler != nil {
		r.GET("/auth/:provider", cfg.OAuthHandler.Begin)
		r.GET("/auth/:provider/callback", cfg.OAuthHandler.Callback)
	}
	if cfg.UserHandler != nil {
		r.GET("/users/:id/avatar", cfg.UserHandler.GetAvatar)
	}

	protected := r.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/dashboard", cfg.UserHandler.GetMe)
		}
	}

	return r
}
