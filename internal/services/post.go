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

const (
	maxPostTitleLength = 200
	defaultPostLimit   = 20
	maxPageLimit       = 100
)

type CreatePostInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type PostService interface {
	List(ctx context.Context, params repos.ListPostsParams) ([]*types.Post, Pagination, error)
	Get(ctx context.Context, rawPostID string) (*types.Post, error)
	Create(ctx context.Context, author *types.User, input CreatePostInput) (*types.Post, error)
	// Delete soft-deletes; allowed for the author or any max-tier user.
	Delete(ctx context.Context, caller *types.User, rawPostID string) error
}

type postService struct {
	db          *gorm.DB
	log         *logger.Logger
	postRepo    repos.PostRepo
	authService AuthService
}

func NewPostService(db *gorm.DB, log *logger.Logger, postRepo repos.PostRepo, authService AuthService) PostService {
	return &postService{
		db:          db,
		log:         log.With("service", "PostService"),
		postRepo:    postRepo,
		authService: authService,
	}
}

func (ps *postService) List(ctx context.Context, params repos.ListPostsParams) ([]*types.Post, Pagination, error) {
	params.Page = normalizePage(params.Page)
	params.Limit = normalizeLimit(params.Limit, defaultPostLimit, maxPageLimit)
	if params.Sort == "" {
		params.Sort = repos.PostSortHot
	}

	posts, total, err := ps.postRepo.List(ctx, nil, params)
	if err != nil {
		ps.log.Error("List posts failed", "error", err)
		return nil, Pagination{}, apierr.New(http.StatusInternalServerError, "list_posts_failed", err)
	}
	return posts, buildPagination(params.Page, params.Limit, total), nil
}

func (ps *postService) Get(ctx context.Context, rawPostID string) (*types.Post, error) {
	postID, err := uuid.Parse(rawPostID)
	if err != nil {
		return nil, apierr.New(http.StatusNotFound, "post_not_found", errors.New("Post not found"))
	}
	post, err := ps.postRepo.GetByID(ctx, nil, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(http.StatusNotFound, "post_not_found", errors.New("Post not found"))
		}
		ps.log.Error("Get post failed", "post_id", rawPostID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "get_post_failed", err)
	}
	return post, nil
}

func (ps *postService) Create(ctx context.Context, author *types.User, input CreatePostInput) (*types.Post, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	category := strings.TrimSpace(input.Category)

	if title == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_title", errors.New("Title is required"))
	}
	if len([]rune(title)) > maxPostTitleLength {
		return nil, apierr.New(http.StatusBadRequest, "invalid_title", errors.New("Title must be 200 characters or less"))
	}
	if content == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_content", errors.New("Content is required"))
	}
	if category == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_category", errors.New("Category is required"))
	}

	post := &types.Post{
		AuthorID: author.ID,
		Title:    title,
		Content:  content,
		Category: category,
	}
	if _, err := ps.postRepo.Create(ctx, nil, []*types.Post{post}); err != nil {
		ps.log.Error("Create post failed", "user_id", author.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "create_post_failed", err)
	}
	post.Author = author
	return post, nil
}

func (ps *postService) Delete(ctx context.Context, caller *types.User, rawPostID string) error {
	postID, err := uuid.Parse(rawPostID)
	if err != nil {
		return apierr.New(http.StatusNotFound, "post_not_found", errors.New("Post not found"))
	}
	post, err := ps.postRepo.GetByID(ctx, nil, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Absent and already-deleted look the same here, which keeps
			// repeat deletes idempotent.
			return apierr.New(http.StatusNotFound, "post_not_found", errors.New("Post not found"))
		}
		return apierr.New(http.StatusInternalServerError, "delete_post_failed", err)
	}
	if !ps.authService.CanDeletePost(caller, post) {
		return apierr.New(http.StatusForbidden, "delete_forbidden",
			errors.New("Forbidden: You can only delete your own posts unless you have Max tier"))
	}
	rows, err := ps.postRepo.SoftDelete(ctx, nil, postID)
	if err != nil {
		ps.log.Error("Soft delete failed", "post_id", rawPostID, "error", err)
		return apierr.New(http.StatusInternalServerError, "delete_post_failed", err)
	}
	if rows == 0 {
		return apierr.New(http.StatusNotFound, "post_not_found", errors.New("Post not found"))
	}
	return nil
}
