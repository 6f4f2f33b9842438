package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/roadmap-backend/internal/data/db"
	"github.com/yungbote/roadmap-backend/internal/data/repos"
	userrepo "github.com/yungbote/roadmap-backend/internal/data/repos/user"
	authtypes "github.com/yungbote/roadmap-backend/internal/domain/auth"
	"github.com/yungbote/roadmap-backend/internal/domain/user"
	"github.com/yungbote/roadmap-backend/internal/observability"
	"github.com/yungbote/roadmap-backend/internal/platform/ctxutil"
	"github.com/yungbote/roadmap-backend/internal/platform/dbctx"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrUserExists         = errors.New("User already exists")
	ErrPasswordMismatch   = errors.New("Passwords do not match")
	ErrUserNotFound       = errors.New("User not found")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const bcryptCost = 10

type RegisterInput struct {
	FirstName       string
	LastName        string
	Contact         string
	Email           string
	Password        string
	ConfirmPassword string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*user.User, error)
	LoginUser(ctx context.Context, email, password string) (TokenPair, error)
	RefreshUser(ctx context.Context, refreshToken string) (TokenPair, error)
	LogoutUser(ctx context.Context) error
	IssueTokens(ctx context.Context, u *user.User) (TokenPair, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type AuthConfig struct {
	JWTSecretKey string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	metrics       *observability.Metrics
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	avatarService AvatarService
	jwtSecretKey  []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	metrics *observability.Metrics,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	avatarService AvatarService,
	cfg AuthConfig,
) (AuthService, error) {
	if strings.TrimSpace(cfg.JWTSecretKey) == "" {
		return nil, errors.New("jwt secret key is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		metrics:       metrics,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
		jwtSecretKey:  []byte(cfg.JWTSecretKey),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// RegisterUser checks for an existing account before comparing passwords.
func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*user.User, error) {
	email := userrepo.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrMissingCredentials
	}
	exists, err := as.userRepo.EmailExists(dbctx.Of(ctx), email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		as.metrics.IncAuthEvent("register", "exists")
		return nil, ErrUserExists
	}
	if in.Password != in.ConfirmPassword {
		as.metrics.IncAuthEvent("register", "mismatch")
		return nil, ErrPasswordMismatch
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		Email:     email,
		Password:  string(hash),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Contact:   strings.TrimSpace(in.Contact),
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.userRepo.Create(dbc, []*user.User{u}); err != nil {
			if db.IsUniqueViolation(err) {
				return ErrUserExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		if as.avatarService != nil {
			if err := as.avatarService.CreateUserAvatar(dbc, u); err != nil {
				return fmt.Errorf("create user avatar: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		as.metrics.IncAuthEvent("register", "error")
		return nil, err
	}
	as.metrics.IncAuthEvent("register", "ok")
	as.log.Info("User registered", "user_id", u.ID.String())
	return u, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (TokenPair, error) {
	email = userrepo.NormalizeEmail(email)
	users, err := as.userRepo.GetByEmails(dbctx.Of(ctx), []string{email})
	if err != nil {
		return TokenPair{}, fmt.Errorf("load user by email: %w", err)
	}
	if email == "" || len(users) == 0 {
		as.metrics.IncAuthEvent("login", "not_found")
		return TokenPair{}, ErrUserNotFound
	}
	u := users[0]
	if u.Password == "" || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		as.metrics.IncAuthEvent("login", "invalid")
		return TokenPair{}, ErrInvalidCredentials
	}
	pair, err := as.IssueTokens(ctx, u)
	if err != nil {
		as.metrics.IncAuthEvent("login", "error")
		return TokenPair{}, err
	}
	as.metrics.IncAuthEvent("login", "ok")
	return pair, nil
}

// IssueTokens starts a new session for u. Existing sessions stay valid.
func (as *authService) IssueTokens(ctx context.Context, u *user.User) (TokenPair, error) {
	return as.issueTokens(dbctx.Of(ctx), u)
}

func (as *authService) issueTokens(dbc dbctx.Context, u *user.User) (TokenPair, error) {
	if u == nil || u.ID == uuid.Nil {
		return TokenPair{}, errors.New("user required")
	}
	access, err := as.generateAccessToken(u)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate access token: %w", err)
	}
	ut := &authtypes.UserToken{
		UserID:       u.ID,
		AccessToken:  access,
		RefreshToken: uuid.New().String(),
		ExpiresAt:    as.now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*authtypes.UserToken{ut}); err != nil {
		return TokenPair{}, fmt.Errorf("create user token: %w", err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: ut.RefreshToken,
		ExpiresIn:    int(as.accessTTL.Seconds()),
	}, nil
}

// RefreshUser rotates a session: the presented refresh token is spent and a new pair issued.
func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		as.metrics.IncAuthEvent("refresh", "invalid")
		return TokenPair{}, ErrInvalidToken
	}
	found, err := as.userTokenRepo.GetByRefreshTokens(dbctx.Of(ctx), []string{refreshToken})
	if err != nil {
		return TokenPair{}, fmt.Errorf("load refresh token: %w", err)
	}
	if len(found) == 0 {
		as.metrics.IncAuthEvent("refresh", "invalid")
		return TokenPair{}, ErrInvalidToken
	}
	existing := found[0]
	if !existing.ExpiresAt.After(as.now()) {
		if err := as.userTokenRepo.FullDeleteByIDs(dbctx.Of(ctx), []uuid.UUID{existing.ID}); err != nil {
			as.log.Warn("Failed to delete expired refresh token", "error", err)
		}
		as.metrics.IncAuthEvent("refresh", "expired")
		return TokenPair{}, ErrInvalidToken
	}

	var pair TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("remove old refresh token: %w", err)
		}
		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}
		if len(users) == 0 {
			return ErrInvalidToken
		}
		pair, err = as.issueTokens(dbc, users[0])
		return err
	})
	if err != nil {
		as.metrics.IncAuthEvent("refresh", "error")
		return TokenPair{}, err
	}
	as.metrics.IncAuthEvent("refresh", "ok")
	return pair, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return ErrInvalidToken
	}
	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.Of(ctx), []string{rd.TokenString})
	if err != nil {
		return fmt.Errorf("load user token: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(found))
	for _, t := range found {
		ids = append(ids, t.ID)
	}
	if err := as.userTokenRepo.FullDeleteByIDs(dbctx.Of(ctx), ids); err != nil {
		return fmt.Errorf("delete user token: %w", err)
	}
	as.metrics.IncAuthEvent("logout", "ok")
	return nil
}

func (as *authService) generateAccessToken(u *user.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.jwtSecretKey)
}

// SetContextFromToken verifies tokenString and that its session has not been
// revoked, then attaches the caller to ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, ErrInvalidToken
	}
	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil || !parsed.Valid {
		return ctx, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.Of(ctx), []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("load user token: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return ctx, fmt.Errorf("%w: session revoked", ErrInvalidToken)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
