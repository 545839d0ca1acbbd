package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/apierr"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/repos"
	"github.com/happycapy/capy-community-backend/internal/types"
)

// AuthService is the single policy point for identity resolution, tier
// gating and ownership checks. Routes never re-implement these rules.
type AuthService interface {
	// ResolveUser maps the raw X-User-ID header value to an active user.
	ResolveUser(ctx context.Context, rawUserID string) (*types.User, error)
	// AuthorizeMinTier admits callers at or above min (free < pro < max).
	AuthorizeMinTier(user *types.User, min types.UserTier) error
	// AuthorizeCapyAccess requires exactly the max tier.
	AuthorizeCapyAccess(user *types.User) error
	// CanDeletePost allows the author or any max-tier user.
	CanDeletePost(user *types.User, post *types.Post) bool
	// CanDeleteComment allows the author or any max-tier user.
	CanDeleteComment(user *types.User, comment *types.Comment) bool
}

type authService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) AuthService {
	return &authService{
		db:       db,
		log:      log.With("service", "AuthService"),
		userRepo: userRepo,
	}
}

func (as *authService) ResolveUser(ctx context.Context, rawUserID string) (*types.User, error) {
	if rawUserID == "" {
		return nil, apierr.New(http.StatusForbidden, "unauthorized", errors.New("Unauthorized: No user ID provided"))
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, apierr.New(http.StatusForbidden, "unauthorized", errors.New("Unauthorized: Invalid user ID"))
	}
	user, err := as.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(http.StatusForbidden, "unauthorized", errors.New("Unauthorized: Unknown user"))
		}
		as.log.Error("ResolveUser lookup failed", "user_id", rawUserID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "user_lookup_failed", err)
	}
	if !user.IsActive {
		return nil, apierr.New(http.StatusForbidden, "unauthorized", errors.New("Unauthorized: User is inactive"))
	}
	return user, nil
}

func (as *authService) AuthorizeMinTier(user *types.User, min types.UserTier) error {
	if user == nil {
		return apierr.New(http.StatusForbidden, "unauthorized", errors.New("Unauthorized: No user ID provided"))
	}
	if types.TierLevel(user.Tier) < types.TierLevel(min) {
		return apierr.New(http.StatusForbidden, "insufficient_tier",
			fmt.Errorf("Insufficient permissions: %s tier required, current tier is %s", min, user.Tier))
	}
	return nil
}

func (as *authService) AuthorizeCapyAccess(user *types.User) error {
	if err := as.AuthorizeMinTier(user, types.TierMax); err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) && ae.Code == "insufficient_tier" {
			return apierr.New(http.StatusForbidden, "capy_access_denied",
				errors.New("Capy Agent access requires Max tier subscription"))
		}
		return err
	}
	return nil
}

func (as *authService) CanDeletePost(user *types.User, post *types.Post) bool {
	if user == nil || post == nil {
		return false
	}
	return post.AuthorID == user.ID || user.Tier == types.TierMax
}

func (as *authService) CanDeleteComment(user *types.User, comment *types.Comment) bool {
	if user == nil || comment == nil {
		return false
	}
	return comment.AuthorID == user.ID || user.Tier == types.TierMax
}
