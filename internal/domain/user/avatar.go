package user

import (
	"time"

	"github.com/google/uuid"
)

// UserAvatar holds the rendered PNG for a user, one row per user.
type UserAvatar struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id" json:"userId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	PNG       []byte    `gorm:"not null;column:png" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (UserAvatar) TableName() string { return "user_avatar" }
