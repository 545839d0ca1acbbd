package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/apierr"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/repos"
	"github.com/happycapy/capy-community-backend/internal/types"
)

const (
	maxCapyNameLength = 50

	defaultRecommendationLimit = 10
	maxRecommendationLimit     = 50

	defaultInteractionLimit = 20
	maxInteractionLimit     = 100
)

type CreateCapyInput struct {
	Name        string          `json:"name"`
	Personality string          `json:"personality"`
	Bio         string          `json:"bio"`
	Config      json.RawMessage `json:"config"`
}

type CapyService interface {
	// GetForUser returns (nil, nil) when the user has no agent yet.
	GetForUser(ctx context.Context, user *types.User) (*types.CapyAgent, error)
	Create(ctx context.Context, user *types.User, input CreateCapyInput) (*types.CapyAgent, error)
	ListRecommendations(ctx context.Context, user *types.User, limit int) ([]*types.CapyRecommendation, error)
	ListInteractions(ctx context.Context, user *types.User, limit int) ([]*types.CapyInteraction, error)
	// GenerateRecommendations runs one agent cycle on demand for the
	// caller's own capy.
	GenerateRecommendations(ctx context.Context, user *types.User) ([]*types.CapyRecommendation, error)
}

type capyService struct {
	db              *gorm.DB
	log             *logger.Logger
	capyAgentRepo   repos.CapyAgentRepo
	recRepo         repos.CapyRecommendationRepo
	interactionRepo repos.CapyInteractionRepo
	avatarService   AvatarService
	recService      RecommendationService
}

func NewCapyService(
	db *gorm.DB,
	log *logger.Logger,
	capyAgentRepo repos.CapyAgentRepo,
	recRepo repos.CapyRecommendationRepo,
	interactionRepo repos.CapyInteractionRepo,
	avatarService AvatarService,
	recService RecommendationService,
) CapyService {
	return &capyService{
		db:              db,
		log:             log.With("service", "CapyService"),
		capyAgentRepo:   capyAgentRepo,
		recRepo:         recRepo,
		interactionRepo: interactionRepo,
		avatarService:   avatarService,
		recService:      recService,
	}
}

func (cs *capyService) GetForUser(ctx context.Context, user *types.User) (*types.CapyAgent, error) {
	agent, err := cs.capyAgentRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		cs.log.Error("Capy lookup failed", "user_id", user.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "get_capy_failed", err)
	}
	return agent, nil
}

func (cs *capyService) Create(ctx context.Context, user *types.User, input CreateCapyInput) (*types.CapyAgent, error) {
	exists, err := cs.capyAgentRepo.ExistsForUser(ctx, nil, user.ID)
	if err != nil {
		cs.log.Error("Capy existence check failed", "user_id", user.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "create_capy_failed", err)
	}
	if exists {
		return nil, apierr.New(http.StatusBadRequest, "capy_exists",
			errors.New("You already have a Capy Agent. Each Max user can only have one Capy."))
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_name", errors.New("Name is required"))
	}
	if len([]rune(name)) > maxCapyNameLength {
		return nil, apierr.New(http.StatusBadRequest, "invalid_name", errors.New("Name must be 50 characters or less"))
	}

	personality, err := resolvePersonality(input.Personality)
	if err != nil {
		return nil, err
	}

	agentConfig := datatypes.JSON([]byte(`{}`))
	if len(input.Config) > 0 {
		// Decode through the typed view so mistyped hint fields (say,
		// interests as a bare string) are rejected up front instead of
		// breaking the recommendation cycle later.
		candidate := types.CapyAgent{Config: datatypes.JSON(input.Config)}
		if _, err := candidate.DecodeConfig(); err != nil {
			return nil, apierr.New(http.StatusBadRequest, "invalid_config", errors.New("Config must be a JSON object"))
		}
		agentConfig = datatypes.JSON(input.Config)
	}

	agent := &types.CapyAgent{
		UserID:      user.ID,
		Name:        name,
		Personality: personality,
		Bio:         strings.TrimSpace(input.Bio),
		IsActive:    true,
		Config:      agentConfig,
		Memory:      datatypes.JSON([]byte(`{}`)),
	}
	if _, err := cs.capyAgentRepo.Create(ctx, nil, []*types.CapyAgent{agent}); err != nil {
		cs.log.Error("Create capy failed", "user_id", user.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "create_capy_failed", err)
	}

	// Avatar is decoration; the agent stands without one.
	if cs.avatarService != nil {
		if err := cs.avatarService.CreateCapyAvatar(agent); err != nil {
			cs.log.Warn("Capy avatar generation failed", "capy_id", agent.ID, "error", err)
		} else if err := cs.db.WithContext(ctx).
			Model(&types.CapyAgent{}).
			Where("id = ?", agent.ID).
			Update("avatar_url", agent.AvatarURL).Error; err != nil {
			cs.log.Warn("Failed to persist avatar URL", "capy_id", agent.ID, "error", err)
		}
	}

	return agent, nil
}

func (cs *capyService) ListRecommendations(ctx context.Context, user *types.User, limit int) ([]*types.CapyRecommendation, error) {
	agent, err := cs.requireAgent(ctx, user)
	if err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit, defaultRecommendationLimit, maxRecommendationLimit)
	recs, err := cs.recRepo.ListByCapy(ctx, nil, agent.ID, limit)
	if err != nil {
		cs.log.Error("List recommendations failed", "capy_id", agent.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "list_recommendations_failed", err)
	}
	return recs, nil
}

func (cs *capyService) ListInteractions(ctx context.Context, user *types.User, limit int) ([]*types.CapyInteraction, error) {
	agent, err := cs.requireAgent(ctx, user)
	if err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit, defaultInteractionLimit, maxInteractionLimit)
	interactions, err := cs.interactionRepo.ListByCapy(ctx, nil, agent.ID, limit)
	if err != nil {
		cs.log.Error("List interactions failed", "capy_id", agent.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "list_interactions_failed", err)
	}
	return interactions, nil
}

func (cs *capyService) GenerateRecommendations(ctx context.Context, user *types.User) ([]*types.CapyRecommendation, error) {
	agent, err := cs.requireAgent(ctx, user)
	if err != nil {
		return nil, err
	}
	recs, err := cs.recService.RunCycle(ctx, agent)
	if err != nil {
		if errors.Is(err, ErrRecommendationGeneration) {
			return nil, apierr.New(http.StatusBadGateway, "recommendation_generation_failed", err)
		}
		cs.log.Error("Recommendation cycle failed", "capy_id", agent.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "recommendation_generation_failed", err)
	}
	return recs, nil
}

func (cs *capyService) requireAgent(ctx context.Context, user *types.User) (*types.CapyAgent, error) {
	agent, err := cs.capyAgentRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(http.StatusNotFound, "capy_not_found",
				errors.New("You must create a Capy Agent first to receive recommendations"))
		}
		cs.log.Error("Capy lookup failed", "user_id", user.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "get_capy_failed", err)
	}
	return agent, nil
}

// resolvePersonality accepts the public vocabulary, which calls the active
// temperament "diligent", and maps it onto the stored enum.
func resolvePersonality(raw string) (types.CapyPersonality, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "lazy":
		return types.PersonalityLazy, nil
	case "diligent", "active":
		return types.PersonalityActive, nil
	case "curious":
		return types.PersonalityCurious, nil
	case "friendly":
		return types.PersonalityFriendly, nil
	case "shy":
		return types.PersonalityShy, nil
	default:
		return "", apierr.New(http.StatusBadRequest, "invalid_personality",
			errors.New("Personality must be one of: lazy, diligent, curious, friendly, shy"))
	}
}
