package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/types"
)

type CapyInteractionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, interactions []*types.CapyInteraction) ([]*types.CapyInteraction, error)
	ListByCapy(ctx context.Context, tx *gorm.DB, capyID uuid.UUID, limit int) ([]*types.CapyInteraction, error)
}

type capyInteractionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCapyInteractionRepo(db *gorm.DB, baseLog *logger.Logger) CapyInteractionRepo {
	return &capyInteractionRepo{db: db, log: baseLog.With("repo", "CapyInteractionRepo")}
}

func (ir *capyInteractionRepo) Create(ctx context.Context, tx *gorm.DB, interactions []*types.CapyInteraction) ([]*types.CapyInteraction, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	if len(interactions) == 0 {
		return []*types.CapyInteraction{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&interactions).Error; err != nil {
		return nil, err
	}
	return interactions, nil
}

func (ir *capyInteractionRepo) ListByCapy(ctx context.Context, tx *gorm.DB, capyID uuid.UUID, limit int) ([]*types.CapyInteraction, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	var results []*types.CapyInteraction
	if err := transaction.WithContext(ctx).
		Where("capy_id_1 = ? OR capy_id_2 = ?", capyID, capyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
