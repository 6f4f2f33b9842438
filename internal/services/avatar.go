package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/roadmap-backend/internal/data/repos"
	"github.com/yungbote/roadmap-backend/internal/domain/user"
	"github.com/yungbote/roadmap-backend/internal/platform/avatar"
	"github.com/yungbote/roadmap-backend/internal/platform/dbctx"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

var ErrAvatarNotFound = errors.New("avatar not found")

type AvatarService interface {
	CreateUserAvatar(dbc dbctx.Context, u *user.User) error
	GetUserAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

type avatarService struct {
	log            *logger.Logger
	userRepo       repos.UserRepo
	userAvatarRepo repos.UserAvatarRepo
	renderer       *avatar.Renderer
}

func NewAvatarService(log *logger.Logger, userRepo repos.UserRepo, userAvatarRepo repos.UserAvatarRepo) (AvatarService, error) {
	renderer, err := avatar.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("init avatar renderer: %w", err)
	}
	return &avatarService{
		log:            log.With("service", "AvatarService"),
		userRepo:       userRepo,
		userAvatarRepo: userAvatarRepo,
		renderer:       renderer,
	}, nil
}

func AvatarURL(userID uuid.UUID) string {
	return "/users/" + userID.String() + "/avatar"
}

// CreateUserAvatar renders the initials avatar for u, stores it and points u at it.
func (as *avatarService) CreateUserAvatar(dbc dbctx.Context, u *user.User) error {
	if u == nil || u.ID == uuid.Nil {
		return errors.New("user required")
	}
	colorHex := as.renderer.ColorFor(u.AvatarColor, u.ID.String())
	png, err := as.renderer.Render(u.FirstName, u.LastName, colorHex)
	if err != nil {
		return err
	}
	if err := as.userAvatarRepo.Upsert(dbc, &user.UserAvatar{UserID: u.ID, PNG: png}); err != nil {
		return fmt.Errorf("store avatar: %w", err)
	}
	url := AvatarURL(u.ID)
	if err := as.userRepo.UpdateAvatarFields(dbc, u.ID, colorHex, url); err != nil {
		return fmt.Errorf("update avatar fields: %w", err)
	}
	u.AvatarColor = colorHex
	u.AvatarURL = url
	as.log.Debug("Avatar created", "user_id", u.ID.String(), "color", colorHex)
	return nil
}

func (as *avatarService) GetUserAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	found, err := as.userAvatarRepo.GetByUserIDs(dbctx.Of(ctx), []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load avatar: %w", err)
	}
	if len(found) == 0 || len(found[0].PNG) == 0 {
		return nil, ErrAvatarNotFound
	}
	return found[0].PNG, nil
}
