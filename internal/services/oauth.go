package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/roadmap-backend/internal/data/repos"
	userrepo "github.com/yungbote/roadmap-backend/internal/data/repos/user"
	authtypes "github.com/yungbote/roadmap-backend/internal/domain/auth"
	"github.com/yungbote/roadmap-backend/internal/domain/user"
	"github.com/yungbote/roadmap-backend/internal/observability"
	"github.com/yungbote/roadmap-backend/internal/platform/dbctx"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

var (
	ErrProviderUnknown = errors.New("oauth provider not configured")
	ErrEmailUnverified = errors.New("provider email is not verified")
	ErrEmailMissing    = errors.New("provider returned no email")
)

type OAuthService interface {
	Providers() []string
	AuthURL(ctx context.Context, provider string) (string, error)
	HandleCallback(ctx context.Context, provider, code, state string) (TokenPair, error)
}

type oauthService struct {
	db               *gorm.DB
	log              *logger.Logger
	metrics          *observability.Metrics
	userRepo         repos.UserRepo
	userIdentityRepo repos.UserIdentityRepo
	avatarService    AvatarService
	authService      AuthService
	stateStore       OAuthStateStore
	stateTTL         time.Duration
	providers        map[string]OAuthProvider
	order            []string
}

func NewOAuthService(
	db *gorm.DB,
	log *logger.Logger,
	metrics *observability.Metrics,
	userRepo repos.UserRepo,
	userIdentityRepo repos.UserIdentityRepo,
	avatarService AvatarService,
	authService AuthService,
	stateStore OAuthStateStore,
	stateTTL time.Duration,
	providers ...OAuthProvider,
) OAuthService {
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	svc := &oauthService{
		db:               db,
		log:              log.With("service", "OAuthService"),
		metrics:          metrics,
		userRepo:         userRepo,
		userIdentityRepo: userIdentityRepo,
		avatarService:    avatarService,
		authService:      authService,
		stateStore:       stateStore,
		stateTTL:         stateTTL,
		providers:        make(map[string]OAuthProvider, len(providers)),
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		svc.providers[p.Name()] = p
		svc.order = append(svc.order, p.Name())
	}
	return svc
}

func (s *oauthService) Providers() []string {
	return append([]string(nil), s.order...)
}

// AuthURL issues and stores a fresh state and returns the provider consent URL.
func (s *oauthService) AuthURL(ctx context.Context, provider string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrProviderUnknown
	}
	state, err := newOAuthState()
	if err != nil {
		return "", err
	}
	if err := s.stateStore.Save(ctx, provider, state, s.stateTTL); err != nil {
		return "", err
	}
	return p.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider, code, state string) (TokenPair, error) {
	pair, err := s.handleCallback(ctx, provider, code, state)
	result := "ok"
	if err != nil {
		result = "error"
		s.log.Warn("OAuth callback failed", "provider", provider, "error", err)
	}
	s.metrics.IncAuthEvent(s.eventName(provider), result)
	return pair, err
}

// eventName keeps the metric label set bounded: provider comes straight from the URL.
func (s *oauthService) eventName(provider string) string {
	if _, ok := s.providers[provider]; !ok {
		return "oauth_unknown"
	}
	return "oauth_" + provider
}

func (s *oauthService) handleCallback(ctx context.Context, provider, code, state string) (TokenPair, error) {
	p, ok := s.providers[provider]
	if !ok {
		return TokenPair{}, ErrProviderUnknown
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(state) == "" {
		return TokenPair{}, ErrStateInvalid
	}
	if err := s.stateStore.Consume(ctx, provider, state); err != nil {
		return TokenPair{}, err
	}
	ident, err := p.Exchange(ctx, code, state)
	if err != nil {
		return TokenPair{}, err
	}
	if ident.Sub == "" {
		return TokenPair{}, fmt.Errorf("%s: identity has no subject", provider)
	}

	var u *user.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		u, txErr = s.linkIdentity(dbctx.Context{Ctx: ctx, Tx: tx}, ident)
		return txErr
	})
	if err != nil {
		return TokenPair{}, err
	}
	return s.authService.IssueTokens(ctx, u)
}

// linkIdentity resolves ident to a local user: an existing link wins, then a
// verified email match, otherwise a new account is created.
func (s *oauthService) linkIdentity(dbc dbctx.Context, ident *ExternalIdentity) (*user.User, error) {
	links, err := s.userIdentityRepo.GetByProviderSubs(dbc, ident.Provider, []string{ident.Sub})
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if len(links) > 0 {
		users, err := s.userRepo.GetByIDs(dbc, []uuid.UUID{links[0].UserID})
		if err != nil {
			return nil, fmt.Errorf("load linked user: %w", err)
		}
		if len(users) == 0 {
			return nil, ErrUserNotFound
		}
		return users[0], nil
	}

	email := userrepo.NormalizeEmail(ident.Email)
	if email == "" {
		return nil, ErrEmailMissing
	}
	existing, err := s.userRepo.GetByEmails(dbc, []string{email})
	if err != nil {
		return nil, fmt.Errorf("load user by email: %w", err)
	}

	var u *user.User
	if len(existing) > 0 {
		if !ident.EmailVerified {
			return nil, ErrEmailUnverified
		}
		u = existing[0]
	} else {
		u = &user.User{
			Email:     email,
			FirstName: ident.FirstName,
			LastName:  ident.LastName,
		}
		if _, err := s.userRepo.Create(dbc, []*user.User{u}); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		if s.avatarService != nil {
			if err := s.avatarService.CreateUserAvatar(dbc, u); err != nil {
				return nil, fmt.Errorf("create user avatar: %w", err)
			}
		}
		s.log.Info("User created from identity provider", "provider", ident.Provider, "user_id", u.ID.String())
	}

	_, err = s.userIdentityRepo.Create(dbc, []*authtypes.UserIdentity{{
		UserID:        u.ID,
		Provider:      ident.Provider,
		ProviderSub:   ident.Sub,
		Email:         email,
		EmailVerified: ident.EmailVerified,
	}})
	if err != nil {
		return nil, fmt.Errorf("link identity: %w", err)
	}
	return u, nil
}
