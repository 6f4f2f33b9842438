package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/roadmap-backend/internal/domain/user"
)

// UserIdentity links a third-party account (provider + subject) to a local user.
type UserIdentity struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;index;not null" json:"userId"`
	User          *user.User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Provider      string         `gorm:"not null;column:provider;uniqueIndex:idx_user_identity_provider_sub,priority:1" json:"provider"`
	ProviderSub   string         `gorm:"not null;column:provider_sub;uniqueIndex:idx_user_identity_provider_sub,priority:2" json:"providerSub"`
	Email         string         `gorm:"column:email" json:"email"`
	EmailVerified bool           `gorm:"not null;default:false;column:email_verified" json:"emailVerified"`
	CreatedAt     time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UserIdentity) TableName() string { return "user_identity" }

func (i *UserIdentity) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
