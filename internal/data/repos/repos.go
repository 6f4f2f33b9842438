package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/roadmap-backend/internal/data/repos/auth"
	"github.com/yungbote/roadmap-backend/internal/data/repos/roadmap"
	"github.com/yungbote/roadmap-backend/internal/data/repos/user"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserAvatarRepo = user.UserAvatarRepo
type UserTokenRepo = auth.UserTokenRepo
type UserIdentityRepo = auth.UserIdentityRepo
type OAuthNonceRepo = auth.OAuthNonceRepo
type RoadmapRepo = roadmap.RoadmapRepo

type Repos struct {
	User         UserRepo
	UserAvatar   UserAvatarRepo
	UserToken    UserTokenRepo
	UserIdentity UserIdentityRepo
	OAuthNonce   OAuthNonceRepo
	Roadmap      RoadmapRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:         user.NewUserRepo(db, log),
		UserAvatar:   user.NewUserAvatarRepo(db, log),
		UserToken:    auth.NewUserTokenRepo(db, log),
		UserIdentity: auth.NewUserIdentityRepo(db, log),
		OAuthNonce:   auth.NewOAuthNonceRepo(db, log),
		Roadmap:      roadmap.NewRoadmapRepo(db, log),
	}
}
