package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/roadmap-backend/internal/domain/auth"
	"github.com/yungbote/roadmap-backend/internal/platform/dbctx"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

// ErrNonceUnavailable means the nonce is unknown, expired or already used.
var ErrNonceUnavailable = errors.New("nonce already used, expired or not found")

type OAuthNonceRepo interface {
	Create(dbc dbctx.Context, nonces []*types.OAuthNonce) ([]*types.OAuthNonce, error)
	Consume(dbc dbctx.Context, provider, nonceHash string, now time.Time) error
	FullDeleteExpired(dbc dbctx.Context, before time.Time) error
}

type oauthNonceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOAuthNonceRepo(db *gorm.DB, baseLog *logger.Logger) OAuthNonceRepo {
	repoLog := baseLog.With("repo", "OAuthNonceRepo")
	return &oauthNonceRepo{db: db, log: repoLog}
}

func (r *oauthNonceRepo) Create(dbc dbctx.Context, nonces []*types.OAuthNonce) ([]*types.OAuthNonce, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(nonces) == 0 {
		return []*types.OAuthNonce{}, nil
	}
	if err := txx.WithContext(dbc.Ctx).Create(&nonces).Error; err != nil {
		return nil, err
	}
	return nonces, nil
}

// Consume marks the nonce used in a single conditional update so two concurrent
// callbacks cannot both succeed.
func (r *oauthNonceRepo) Consume(dbc dbctx.Context, provider, nonceHash string, now time.Time) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Model(&types.OAuthNonce{}).
		Where("provider = ? AND nonce_hash = ? AND used_at IS NULL AND expires_at > ?", provider, nonceHash, now).
		Update("used_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNonceUnavailable
	}
	return nil
}

func (r *oauthNonceRepo) FullDeleteExpired(dbc dbctx.Context, before time.Time) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("expires_at < ?", before).
		Delete(&types.OAuthNonce{}).Error
}
