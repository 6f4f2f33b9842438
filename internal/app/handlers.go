package app

import (
	httpH "github.com/yungbote/roadmap-backend/internal/http/handlers"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

type Handlers struct {
	Auth    *httpH.AuthHandler
	OAuth   *httpH.OAuthHandler
	User    *httpH.UserHandler
	Roadmap *httpH.RoadmapHandler
	Health  *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:    httpH.NewAuthHandler(log, services.Auth),
		OAuth:   httpH.NewOAuthHandler(log, services.OAuth, cfg.OAuth.SuccessRedirect, cfg.OAuth.FailureRedirect),
		User:    httpH.NewUserHandler(services.User, services.Avatar),
		Roadmap: httpH.NewRoadmapHandler(log, services.Roadmap),
		Health:  httpH.NewHealthHandler(),
	}
}
