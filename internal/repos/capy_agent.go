package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/types"
)

type CapyAgentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, agents []*types.CapyAgent) ([]*types.CapyAgent, error)
	GetByID(ctx context.Context, tx *gorm.DB, capyID uuid.UUID) (*types.CapyAgent, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CapyAgent, error)
	ExistsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.CapyAgent, error)
	UpdateMemory(ctx context.Context, tx *gorm.DB, capyID uuid.UUID, memory datatypes.JSON) error
	TouchLastActive(ctx context.Context, tx *gorm.DB, capyID uuid.UUID, at time.Time) error
}

type capyAgentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCapyAgentRepo(db *gorm.DB, baseLog *logger.Logger) CapyAgentRepo {
	return &capyAgentRepo{db: db, log: baseLog.With("repo", "CapyAgentRepo")}
}

func (cr *capyAgentRepo) Create(ctx context.Context, tx *gorm.DB, agents []*types.CapyAgent) ([]*types.CapyAgent, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(agents) == 0 {
		return []*types.CapyAgent{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func (cr *capyAgentRepo) GetByID(ctx context.Context, tx *gorm.DB, capyID uuid.UUID) (*types.CapyAgent, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.CapyAgent
	if err := transaction.WithContext(ctx).
		Where("id = ?", capyID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *capyAgentRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CapyAgent, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.CapyAgent
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *capyAgentRepo) ExistsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CapyAgent{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (cr *capyAgentRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.CapyAgent, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.CapyAgent
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *capyAgentRepo) UpdateMemory(ctx context.Context, tx *gorm.DB, capyID uuid.UUID, memory datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.CapyAgent{}).
		Where("id = ?", capyID).
		Update("memory", memory).Error
}

func (cr *capyAgentRepo) TouchLastActive(ctx context.Context, tx *gorm.DB, capyID uuid.UUID, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.CapyAgent{}).
		Where("id = ?", capyID).
		Update("last_active_at", at).Error
}
