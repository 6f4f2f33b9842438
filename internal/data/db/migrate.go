package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/roadmap-backend/internal/domain/auth"
	"github.com/yungbote/roadmap-backend/internal/domain/roadmap"
	"github.com/yungbote/roadmap-backend/internal/domain/user"
)

// Models lists every table owned by the service, parents first.
func Models() []any {
	return []any{
		&user.User{},
		&user.UserAvatar{},
		&auth.UserToken{},
		&auth.UserIdentity{},
		&auth.OAuthNonce{},
		&roadmap.Roadmap{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
