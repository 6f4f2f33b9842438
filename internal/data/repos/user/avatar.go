package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/roadmap-backend/internal/domain/user"
	"github.com/yungbote/roadmap-backend/internal/platform/dbctx"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

type UserAvatarRepo interface {
	Upsert(dbc dbctx.Context, avatar *types.UserAvatar) error
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserAvatar, error)
}

type userAvatarRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserAvatarRepo(db *gorm.DB, baseLog *logger.Logger) UserAvatarRepo {
	return &userAvatarRepo{db: db, log: baseLog.With("repo", "UserAvatarRepo")}
}

func (r *userAvatarRepo) Upsert(dbc dbctx.Context, avatar *types.UserAvatar) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	avatar.UpdatedAt = time.Now().UTC()
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"png", "updated_at"}),
		}).
		Create(avatar).Error
}

func (r *userAvatarRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserAvatar, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var results []*types.UserAvatar
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
