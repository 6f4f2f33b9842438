package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/roadmap-backend/internal/data/repos"
	"github.com/yungbote/roadmap-backend/internal/modules/roadmap"
	"github.com/yungbote/roadmap-backend/internal/observability"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
	"github.com/yungbote/roadmap-backend/internal/services"
)

type Services struct {
	Auth    services.AuthService
	Avatar  services.AvatarService
	User    services.UserService
	OAuth   services.OAuthService
	Roadmap services.RoadmapService
}

func wireServices(db *gorm.DB, log *logger.Logger, metrics *observability.Metrics, cfg Config, reposet repos.Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	// resolve the prompt template now so a bad override shows up at startup
	roadmap.LoadPromptTemplate(log)

	avatarService, err := services.NewAvatarService(log, reposet.User, reposet.UserAvatar)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	authService, err := services.NewAuthService(db, log, metrics, reposet.User, reposet.UserToken, avatarService, services.AuthConfig{
		JWTSecretKey: cfg.JWTSecretKey,
		AccessTTL:    cfg.AccessTokenTTL,
		RefreshTTL:   cfg.RefreshTokenTTL,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	var stateStore services.OAuthStateStore
	if clients.Redis != nil {
		stateStore = services.NewRedisStateStore(clients.Redis, log)
	} else {
		stateStore = services.NewDBStateStore(reposet.OAuthNonce, log)
	}
	oauthService := services.NewOAuthService(
		db, log, metrics,
		reposet.User, reposet.UserIdentity,
		avatarService, authService, stateStore,
		cfg.OAuth.StateTTL,
		clients.OAuthProviders...,
	)

	roadmapService := services.NewRoadmapService(
		log, metrics,
		services.NewOpenAIGenerationClient(clients.OpenAI, metrics),
		reposet.Roadmap,
		services.RoadmapServiceConfig{ParseOptions: roadmap.ParseOptions{StripCodeFences: cfg.StripCodeFences}},
	)

	return Services{
		Auth:    authService,
		Avatar:  avatarService,
		User:    services.NewUserService(log, reposet.User),
		OAuth:   oauthService,
		Roadmap: roadmapService,
	}, nil
}
