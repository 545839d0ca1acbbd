package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/apierr"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/repos"
	"github.com/happycapy/capy-community-backend/internal/types"
)

const defaultCommentLimit = 50

type CreateCommentInput struct {
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

type CommentService interface {
	ListByPost(ctx context.Context, rawPostID string, page, limit int) ([]*types.Comment, Pagination, error)
	Create(ctx context.Context, author *types.User, input CreateCommentInput) (*types.Comment, error)
}

type commentService struct {
	db          *gorm.DB
	log         *logger.Logger
	commentRepo repos.CommentRepo
	postRepo    repos.PostRepo
}

func NewCommentService(db *gorm.DB, log *logger.Logger, commentRepo repos.CommentRepo, postRepo repos.PostRepo) CommentService {
	return &commentService{
		db:          db,
		log:         log.With("service", "CommentService"),
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

func (cs *commentService) ListByPost(ctx context.Context, rawPostID string, page, limit int) ([]*types.Comment, Pagination, error) {
	if rawPostID == "" {
		return nil, Pagination{}, apierr.New(http.StatusBadRequest, "invalid_post_id", errors.New("post_id is required"))
	}
	postID, err := uuid.Parse(rawPostID)
	if err != nil {
		return nil, Pagination{}, apierr.New(http.StatusBadRequest, "invalid_post_id", errors.New("post_id must be a valid ID"))
	}

	params := repos.ListCommentsParams{
		PostID: postID,
		Page:   normalizePage(page),
		Limit:  normalizeLimit(limit, defaultCommentLimit, maxPageLimit),
	}
	comments, total, err := cs.commentRepo.ListByPost(ctx, nil, params)
	if err != nil {
		cs.log.Error("List comments failed", "post_id", rawPostID, "error", err)
		return nil, Pagination{}, apierr.New(http.StatusInternalServerError, "list_comments_failed", err)
	}
	return comments, buildPagination(params.Page, params.Limit, total), nil
}

func (cs *commentService) Create(ctx context.Context, author *types.User, input CreateCommentInput) (*types.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_content", errors.New("Content is required"))
	}
	if input.PostID == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_post_id", errors.New("post_id is required"))
	}
	postID, err := uuid.Parse(input.PostID)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_post_id", errors.New("post_id must be a valid ID"))
	}

	// A missing post and a deleted post answer differently, so the lookup
	// must see soft-deleted rows.
	post, err := cs.postRepo.GetAnyByID(ctx, nil, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(http.StatusNotFound, "post_not_found", errors.New("Post not found"))
		}
		cs.log.Error("Comment target lookup failed", "post_id", input.PostID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "create_comment_failed", err)
	}
	if post.IsDeleted {
		return nil, apierr.New(http.StatusBadRequest, "post_deleted", errors.New("Cannot comment on deleted post"))
	}

	comment := &types.Comment{
		PostID:   postID,
		AuthorID: author.ID,
		Content:  content,
	}
	if _, err := cs.commentRepo.Create(ctx, nil, []*types.Comment{comment}); err != nil {
		cs.log.Error("Create comment failed", "post_id", input.PostID, "user_id", author.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "create_comment_failed", err)
	}

	// Counter update runs after the insert; on failure the comment stands
	// and the count lags until the next write.
	if err := cs.postRepo.IncrementCommentCount(ctx, nil, postID); err != nil {
		cs.log.Warn("Failed to bump comment_count", "post_id", input.PostID, "error", err)
	}

	comment.Author = author
	return comment, nil
}
