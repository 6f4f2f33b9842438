package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/roadmap-backend/internal/data/repos/testutil"
	"github.com/yungbote/roadmap-backend/internal/platform/openai"
	"github.com/yungbote/roadmap-backend/internal/platform/redis"
	"github.com/yungbote/roadmap-backend/internal/services"
)

func clientsConfig(mr *miniredis.Miniredis) Config {
	return Config{
		OpenAI:       openai.Config{APIKey: "k", BaseURL: "http://127.0.0.1:0"},
		Redis:        redis.Config{Addr: mr.Addr()},
		RedisEnabled: true,
	}
}

func TestWireClientsWithRedisAndProviders(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := clientsConfig(mr)
	cfg.OAuth.GitHub = services.OAuthClientConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "https://app.example.com/auth/github/callback"}

	c, err := wireClients(context.Background(), testutil.Logger(t), cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Redis)
	require.Len(t, c.OAuthProviders, 1)
	assert.Equal(t, services.ProviderGitHub, c.OAuthProviders[0].Name())
}

func TestWireClientsClosesRedisWhenProviderFails(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := clientsConfig(mr)
	cfg.OAuth.GitHub = services.OAuthClientConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "not-a-url"}

	_, err := wireClients(context.Background(), testutil.Logger(t), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github")

	require.Eventually(t, func() bool {
		return mr.CurrentConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
