package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OAuthNonce records an issued OAuth state by hash so it can be consumed exactly once.
type OAuthNonce struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Provider  string     `gorm:"not null;column:provider" json:"provider"`
	NonceHash string     `gorm:"not null;uniqueIndex;column:nonce_hash" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;column:expires_at" json:"expiresAt"`
	UsedAt    *time.Time `gorm:"column:used_at" json:"usedAt,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
}

func (OAuthNonce) TableName() string { return "oauth_nonce" }

func (n *OAuthNonce) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
