package app

import (
	"github.com/yungbote/roadmap-backend/internal/http"
	"github.com/yungbote/roadmap-backend/internal/observability"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, metrics *observability.Metrics, cfg Config, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.ServerConfig{
		Addr:         ":" + cfg.Port,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}, http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    serviceName(cfg),
		AllowedOrigins: cfg.AllowedOrigins,
		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,
		OAuthHandler:   handlers.OAuth,
		UserHandler:    handlers.User,
		RoadmapHandler: handlers.Roadmap,
		HealthHandler:  handlers.Health,
	})
}

func serviceName(cfg Config) string {
	if !cfg.Otel.Enabled {
		return ""
	}
	return cfg.Otel.ServiceName
}
