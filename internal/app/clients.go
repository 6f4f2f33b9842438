package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/roadmap-backend/internal/platform/logger"
	"github.com/yungbote/roadmap-backend/internal/platform/openai"
	"github.com/yungbote/roadmap-backend/internal/platform/redis"
	"github.com/yungbote/roadmap-backend/internal/services"
)

type Clients struct {
	OpenAI         openai.Client
	Redis          *goredis.Client
	OAuthProviders []services.OAuthProvider
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Openai
	openaiClient, err := openai.NewClient(log, cfg.OpenAI)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	c.OpenAI = openaiClient

	// Redis
	if cfg.RedisEnabled {
		rdb, err := redis.New(ctx, log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		c.Redis = rdb
	}

	// OAuth
	providers, err := wireOAuthProviders(ctx, cfg.OAuth)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	for _, p := range providers {
		log.Info("OAuth provider enabled", "provider", p.Name())
	}
	c.OAuthProviders = providers

	return c, nil
}

func wireOAuthProviders(ctx context.Context, cfg OAuthConfig) ([]services.OAuthProvider, error) {
	var providers []services.OAuthProvider
	if cfg.Google.Enabled() {
		p, err := services.NewOIDCProvider(ctx, services.GoogleProviderConfig(cfg.Google))
		if err != nil {
			return nil, fmt.Errorf("init google provider: %w", err)
		}
		providers = append(providers, p)
	}
	if cfg.LinkedIn.Enabled() {
		p, err := services.NewOIDCProvider(ctx, services.LinkedInProviderConfig(cfg.LinkedIn))
		if err != nil {
			return nil, fmt.Errorf("init linkedin provider: %w", err)
		}
		providers = append(providers, p)
	}
	if cfg.GitHub.Enabled() {
		p, err := services.NewGitHubProvider(services.GitHubProviderConfig{Client: cfg.GitHub})
		if err != nil {
			return nil, fmt.Errorf("init github provider: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
