package app

import (
	"context"
	"time"

	"github.com/yungbote/roadmap-backend/internal/data/repos"
	"github.com/yungbote/roadmap-backend/internal/platform/dbctx"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

// tokenJanitor deletes expired sessions and OAuth states on an interval.
type tokenJanitor struct {
	log      *logger.Logger
	tokens   repos.UserTokenRepo
	nonces   repos.OAuthNonceRepo
	interval time.Duration
	now      func() time.Time
}

func newTokenJanitor(log *logger.Logger, reposet repos.Repos, interval time.Duration) *tokenJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &tokenJanitor{
		log:      log.With("worker", "TokenJanitor"),
		tokens:   reposet.UserToken,
		nonces:   reposet.OAuthNonce,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (j *tokenJanitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		j.sweep(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (j *tokenJanitor) sweep(ctx context.Context) {
	now := j.now()
	dbc := dbctx.Of(ctx)
	n, err := j.tokens.FullDeleteExpired(dbc, now)
	if err != nil {
		if ctx.Err() == nil {
			j.log.Warn("Failed to delete expired user tokens", "error", err)
		}
		return
	}
	if err := j.nonces.FullDeleteExpired(dbc, now); err != nil && ctx.Err() == nil {
		j.log.Warn("Failed to delete expired oauth states", "error", err)
	}
	if n > 0 {
		j.log.Info("Expired user tokens deleted", "count", n)
	}
}
