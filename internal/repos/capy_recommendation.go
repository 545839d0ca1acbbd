package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/types"
)

type CapyRecommendationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, recs []*types.CapyRecommendation) ([]*types.CapyRecommendation, error)
	ListByCapy(ctx context.Context, tx *gorm.DB, capyID uuid.UUID, limit int) ([]*types.CapyRecommendation, error)
}

type capyRecommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCapyRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) CapyRecommendationRepo {
	return &capyRecommendationRepo{db: db, log: baseLog.With("repo", "CapyRecommendationRepo")}
}

func (rr *capyRecommendationRepo) Create(ctx context.Context, tx *gorm.DB, recs []*types.CapyRecommendation) ([]*types.CapyRecommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if len(recs) == 0 {
		return []*types.CapyRecommendation{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (rr *capyRecommendationRepo) ListByCapy(ctx context.Context, tx *gorm.DB, capyID uuid.UUID, limit int) ([]*types.CapyRecommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var results []*types.CapyRecommendation
	if err := transaction.WithContext(ctx).
		Preload("Post").
		Preload("Post.Author").
		Where("capy_id = ?", capyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
