package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password    string         `gorm:"not null;column:password" json:"-"`
	FirstName   string         `gorm:"not null;column:first_name" json:"firstName"`
	LastName    string         `gorm:"not null;column:last_name" json:"lastName"`
	Contact     string         `gorm:"column:contact" json:"contact"`
	AvatarColor string         `gorm:"column:avatar_color" json:"avatarColor"`
	AvatarURL   string         `gorm:"column:avatar_url" json:"avatarUrl"`
	CreatedAt   time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
