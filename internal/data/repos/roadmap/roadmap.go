package roadmap

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/roadmap-backend/internal/domain/roadmap"
	"github.com/yungbote/roadmap-backend/internal/platform/dbctx"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type RoadmapRepo interface {
	Create(dbc dbctx.Context, roadmaps []*types.Roadmap) ([]*types.Roadmap, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Roadmap, error)
	List(dbc dbctx.Context, limit, offset int) ([]*types.Roadmap, error)
}

type roadmapRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoadmapRepo(db *gorm.DB, baseLog *logger.Logger) RoadmapRepo {
	repoLog := baseLog.With("repo", "RoadmapRepo")
	return &roadmapRepo{db: db, log: repoLog}
}

// Create inserts the rows as given; ids and created_at are filled in by the model hook.
func (r *roadmapRepo) Create(dbc dbctx.Context, roadmaps []*types.Roadmap) ([]*types.Roadmap, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(roadmaps) == 0 {
		return []*types.Roadmap{}, nil
	}
	if err := txx.WithContext(dbc.Ctx).Create(&roadmaps).Error; err != nil {
		return nil, err
	}
	return roadmaps, nil
}

func (r *roadmapRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Roadmap, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var results []*types.Roadmap
	if len(ids) == 0 {
		return results, nil
	}
	if err := txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// List returns roadmaps newest first. limit is clamped to [1, MaxListLimit].
func (r *roadmapRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Roadmap, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	var results []*types.Roadmap
	if err := txx.WithContext(dbc.Ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
