package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/types"
)

const (
	PostSortHot = "hot"
	PostSortNew = "new"
	PostSortTop = "top"
)

type ListPostsParams struct {
	Page     int
	Limit    int
	Category string
	Sort     string
}

type PostRepo interface {
	Create(ctx context.Context, tx *gorm.DB, posts []*types.Post) ([]*types.Post, error)
	GetByID(ctx context.Context, tx *gorm.DB, postID uuid.UUID) (*types.Post, error)
	// GetAnyByID also returns soft-deleted rows, for callers that must
	// distinguish "never existed" from "deleted".
	GetAnyByID(ctx context.Context, tx *gorm.DB, postID uuid.UUID) (*types.Post, error)
	// List returns one page of non-deleted posts plus the total count under
	// the same filter, so pagination always derives from one predicate.
	List(ctx context.Context, tx *gorm.DB, params ListPostsParams) ([]*types.Post, int64, error)
	GetRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Post, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, postID uuid.UUID) (int64, error)
	IncrementCommentCount(ctx context.Context, tx *gorm.DB, postID uuid.UUID) error
}

type postRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	return &postRepo{db: db, log: baseLog.With("repo", "PostRepo")}
}

func (pr *postRepo) Create(ctx context.Context, tx *gorm.DB, posts []*types.Post) ([]*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(posts) == 0 {
		return []*types.Post{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (pr *postRepo) GetByID(ctx context.Context, tx *gorm.DB, postID uuid.UUID) (*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.Post
	if err := transaction.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND is_deleted = ?", postID, false).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *postRepo) GetAnyByID(ctx context.Context, tx *gorm.DB, postID uuid.UUID) (*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.Post
	if err := transaction.WithContext(ctx).
		Where("id = ?", postID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *postRepo) List(ctx context.Context, tx *gorm.DB, params ListPostsParams) ([]*types.Post, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	query := transaction.WithContext(ctx).
		Model(&types.Post{}).
		Where("is_deleted = ?", false)
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch params.Sort {
	case PostSortNew:
		query = query.Order("created_at DESC")
	case PostSortTop:
		query = query.Order("likes_count DESC")
	default:
		query = query.Order("hotness DESC")
	}

	offset := (params.Page - 1) * params.Limit
	var results []*types.Post
	if err := query.
		Preload("Author").
		Offset(offset).
		Limit(params.Limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (pr *postRepo) GetRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Post
	if err := transaction.WithContext(ctx).
		Preload("Author").
		Where("is_deleted = ?", false).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// SoftDelete flips is_deleted on a live row only; deleting an already
// deleted post affects zero rows, which callers surface as not found.
func (pr *postRepo) SoftDelete(ctx context.Context, tx *gorm.DB, postID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	result := transaction.WithContext(ctx).
		Model(&types.Post{}).
		Where("id = ? AND is_deleted = ?", postID, false).
		Update("is_deleted", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (pr *postRepo) IncrementCommentCount(ctx context.Context, tx *gorm.DB, postID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Post{}).
		Where("id = ?", postID).
		Update("comment_count", gorm.Expr("comment_count + 1")).Error
}
