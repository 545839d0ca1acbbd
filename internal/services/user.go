package services

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/apierr"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/repos"
	"github.com/happycapy/capy-community-backend/internal/types"
)

// Me bundles the account row with its display profile.
type Me struct {
	User    *types.User    `json:"user"`
	Profile *types.Profile `json:"profile"`
}

type UserService interface {
	GetMe(ctx context.Context, user *types.User) (*Me, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	profileRepo   repos.ProfileRepo
	avatarService AvatarService
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, profileRepo repos.ProfileRepo, avatarService AvatarService) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		profileRepo:   profileRepo,
		avatarService: avatarService,
	}
}

func (us *userService) GetMe(ctx context.Context, user *types.User) (*Me, error) {
	if user == nil {
		return nil, apierr.New(http.StatusForbidden, "unauthorized", errors.New("Unauthorized: No user ID provided"))
	}
	profile, err := us.profileRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Accounts provisioned before the profile table existed get a
			// profile on first read.
			profile = &types.Profile{UserID: user.ID, Username: user.Name}
			if _, err := us.profileRepo.Create(ctx, nil, []*types.Profile{profile}); err != nil {
				us.log.Error("Profile backfill failed", "user_id", user.ID, "error", err)
				return nil, apierr.New(http.StatusInternalServerError, "get_me_failed", err)
			}
		} else {
			us.log.Error("Profile lookup failed", "user_id", user.ID, "error", err)
			return nil, apierr.New(http.StatusInternalServerError, "get_me_failed", err)
		}
	}

	if profile.AvatarURL == "" && us.avatarService != nil {
		if err := us.avatarService.CreateProfileAvatar(profile); err != nil {
			us.log.Warn("Profile avatar generation failed", "user_id", user.ID, "error", err)
		} else if err := us.profileRepo.UpdateAvatarURL(ctx, nil, user.ID, profile.AvatarURL); err != nil {
			us.log.Warn("Failed to persist profile avatar URL", "user_id", user.ID, "error", err)
		}
	}

	return &Me{User: user, Profile: profile}, nil
}
