package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/roadmap-backend/internal/data/repos"
	authrepo "github.com/yungbote/roadmap-backend/internal/data/repos/auth"
	authtypes "github.com/yungbote/roadmap-backend/internal/domain/auth"
	"github.com/yungbote/roadmap-backend/internal/platform/dbctx"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

var ErrStateInvalid = errors.New("oauth state invalid or expired")

// OAuthStateStore remembers issued states until they are consumed once or expire.
type OAuthStateStore interface {
	Save(ctx context.Context, provider, state string, ttl time.Duration) error
	Consume(ctx context.Context, provider, state string) error
}

func newOAuthState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashState(state string) string {
	sum := sha256.Sum256([]byte(state))
	return hex.EncodeToString(sum[:])
}

type redisStateStore struct {
	client *goredis.Client
	log    *logger.Logger
}

func NewRedisStateStore(client *goredis.Client, log *logger.Logger) OAuthStateStore {
	return &redisStateStore{client: client, log: log.With("store", "RedisStateStore")}
}

func (s *redisStateStore) key(provider, state string) string {
	return "oauth:state:" + provider + ":" + hashState(state)
}

func (s *redisStateStore) Save(ctx context.Context, provider, state string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(provider, state), "1", ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

func (s *redisStateStore) Consume(ctx context.Context, provider, state string) error {
	_, err := s.client.GetDel(ctx, s.key(provider, state)).Result()
	if errors.Is(err, goredis.Nil) {
		return ErrStateInvalid
	}
	if err != nil {
		return fmt.Errorf("consume oauth state: %w", err)
	}
	return nil
}

type dbStateStore struct {
	nonceRepo repos.OAuthNonceRepo
	log       *logger.Logger
	now       func() time.Time
}

// NewDBStateStore keeps states as hashed oauth_nonce rows.
func NewDBStateStore(nonceRepo repos.OAuthNonceRepo, log *logger.Logger) OAuthStateStore {
	return &dbStateStore{
		nonceRepo: nonceRepo,
		log:       log.With("store", "DBStateStore"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *dbStateStore) Save(ctx context.Context, provider, state string, ttl time.Duration) error {
	now := s.now()
	dbc := dbctx.Of(ctx)
	if err := s.nonceRepo.FullDeleteExpired(dbc, now); err != nil {
		s.log.Warn("Failed to prune expired oauth states", "error", err)
	}
	_, err := s.nonceRepo.Create(dbc, []*authtypes.OAuthNonce{{
		Provider:  provider,
		NonceHash: hashState(state),
		ExpiresAt: now.Add(ttl),
	}})
	if err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

func (s *dbStateStore) Consume(ctx context.Context, provider, state string) error {
	err := s.nonceRepo.Consume(dbctx.Of(ctx), provider, hashState(state), s.now())
	if errors.Is(err, authrepo.ErrNonceUnavailable) {
		return ErrStateInvalid
	}
	if err != nil {
		return fmt.Errorf("consume oauth state: %w", err)
	}
	return nil
}
