package app

import (
	"fmt"
	"time"

	"github.com/yungbote/roadmap-backend/internal/data/db"
	"github.com/yungbote/roadmap-backend/internal/observability"
	"github.com/yungbote/roadmap-backend/internal/platform/envutil"
	"github.com/yungbote/roadmap-backend/internal/platform/openai"
	"github.com/yungbote/roadmap-backend/internal/platform/redis"
	"github.com/yungbote/roadmap-backend/internal/services"
)

type OAuthConfig struct {
	Google          services.OAuthClientConfig
	LinkedIn        services.OAuthClientConfig
	GitHub          services.OAuthClientConfig
	SuccessRedirect string
	FailureRedirect string
	StateTTL        time.Duration
}

type Config struct {
	LogMode          string
	Port             string
	JWTSecretKey     string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration
	JanitorInterval  time.Duration
	AllowedOrigins   []string

	StripCodeFences bool

	OpenAI       openai.Config
	Postgres     db.PostgresConfig
	Redis        redis.Config
	RedisEnabled bool
	Otel         observability.OtelConfig
	OAuth        OAuthConfig
}

// LoadConfig reads the environment once. JWT_SECRET_KEY and OPENAI_API_KEY have no fallback.
func LoadConfig() (Config, error) {
	jwtSecretKey, err := envutil.Required("JWT_SECRET_KEY")
	if err != nil {
		return Config{}, err
	}
	openaiCfg, err := openai.ConfigFromEnv()
	if err != nil {
		return Config{}, fmt.Errorf("openai config: %w", err)
	}
	redisCfg, redisEnabled := redis.ConfigFromEnv()

	return Config{
		LogMode:          envutil.String("LOG_MODE", "development"),
		Port:             envutil.String("PORT", "8080"),
		JWTSecretKey:     jwtSecretKey,
		AccessTokenTTL:   envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL:  envutil.Seconds("REFRESH_TOKEN_TTL", 24*time.Hour),
		HTTPWriteTimeout: envutil.Seconds("HTTP_WRITE_TIMEOUT_SECONDS", 300*time.Second),
		ShutdownTimeout:  envutil.Seconds("HTTP_SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		JanitorInterval:  envutil.Seconds("TOKEN_JANITOR_INTERVAL_SECONDS", time.Hour),
		AllowedOrigins:   envutil.List("CORS_ALLOWED_ORIGINS", nil),
		StripCodeFences:  envutil.Bool("ROADMAP_STRIP_CODE_FENCES", false),
		OpenAI:           openaiCfg,
		Postgres:         db.PostgresConfigFromEnv(),
		Redis:            redisCfg,
		RedisEnabled:     redisEnabled,
		Otel:             observability.OtelConfigFromEnv(),
		OAuth: OAuthConfig{
			Google:          oauthClientFromEnv("GOOGLE"),
			LinkedIn:        oauthClientFromEnv("LINKEDIN"),
			GitHub:          oauthClientFromEnv("GITHUB"),
			SuccessRedirect: envutil.String("OAUTH_SUCCESS_REDIRECT", "/dashboard"),
			FailureRedirect: envutil.String("OAUTH_FAILURE_REDIRECT", "/login"),
			StateTTL:        envutil.Seconds("OAUTH_STATE_TTL_SECONDS", 10*time.Minute),
		},
	}, nil
}

func oauthClientFromEnv(provider string) services.OAuthClientConfig {
	prefix := "OAUTH_" + provider + "_"
	return services.OAuthClientConfig{
		ClientID:     envutil.String(prefix+"CLIENT_ID", ""),
		ClientSecret: envutil.String(prefix+"CLIENT_SECRET", ""),
		RedirectURL:  envutil.String(prefix+"REDIRECT_URL", ""),
	}
}
