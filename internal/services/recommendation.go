package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/repos"
	"github.com/happycapy/capy-community-backend/internal/types"
)

// ErrRecommendationGeneration wraps any gateway or parse stage failure so
// callers see one error kind for the whole generation step.
var ErrRecommendationGeneration = errors.New("failed to generate recommendations")

// RecommendationService runs the capy agent cycle:
// perceive recent posts, decide via the gateway, act by persisting
// recommendations, remember by logging the cycle.
type RecommendationService interface {
	RunCycle(ctx context.Context, agent *types.CapyAgent) ([]*types.CapyRecommendation, error)
}

type recommendationService struct {
	db              *gorm.DB
	log             *logger.Logger
	postRepo        repos.PostRepo
	userRepo        repos.UserRepo
	capyAgentRepo   repos.CapyAgentRepo
	recRepo         repos.CapyRecommendationRepo
	interactionRepo repos.CapyInteractionRepo
	aiCallLogRepo   repos.AICallLogRepo
	aiClient        AIClient

	postLimit int
}

func NewRecommendationService(
	db *gorm.DB,
	log *logger.Logger,
	postRepo repos.PostRepo,
	userRepo repos.UserRepo,
	capyAgentRepo repos.CapyAgentRepo,
	recRepo repos.CapyRecommendationRepo,
	interactionRepo repos.CapyInteractionRepo,
	aiCallLogRepo repos.AICallLogRepo,
	aiClient AIClient,
	postLimit int,
) RecommendationService {
	if postLimit <= 0 {
		postLimit = 10
	}
	return &recommendationService{
		db:              db,
		log:             log.With("service", "RecommendationService"),
		postRepo:        postRepo,
		userRepo:        userRepo,
		capyAgentRepo:   capyAgentRepo,
		recRepo:         recRepo,
		interactionRepo: interactionRepo,
		aiCallLogRepo:   aiCallLogRepo,
		aiClient:        aiClient,
		postLimit:       postLimit,
	}
}

func (rs *recommendationService) RunCycle(ctx context.Context, agent *types.CapyAgent) ([]*types.CapyRecommendation, error) {
	cycleLog := rs.log.With("capy_id", agent.ID, "capy_name", agent.Name)

	// Perceive.
	posts, err := rs.postRepo.GetRecent(ctx, nil, rs.postLimit)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		cycleLog.Info("No posts to analyze, skipping cycle")
		return []*types.CapyRecommendation{}, nil
	}

	// Decide.
	owner, err := rs.userRepo.GetByID(ctx, nil, agent.UserID)
	if err != nil {
		return nil, err
	}
	agentConfig, err := agent.DecodeConfig()
	if err != nil {
		cycleLog.Warn("Failed to decode capy config, prompting without interests", "error", err)
	}
	profile := CapyProfile{
		OwnerName:   owner.Name,
		CapyName:    agent.Name,
		Personality: string(agent.Personality),
		Interests:   agentConfig.Interests,
	}
	model := selectModelForCapy(agent.Name, string(agent.Personality))
	prompt := buildRecommendationPrompt(posts, profile)
	cycleLog.Info("Calling gateway", "model", model, "posts_analyzed", len(posts))

	result, err := rs.aiClient.Complete(ctx, model, prompt)
	if err != nil {
		rs.logCall(ctx, agent.ID, model, prompt, "", nil, err)
		return nil, fmt.Errorf("%w: %v", ErrRecommendationGeneration, err)
	}
	parsed := parseRecommendations(result.Content, posts, cycleLog)
	if len(parsed) == 0 {
		cycleLog.Info("No recommendations generated")
		rs.logCall(ctx, agent.ID, model, prompt, result.Content, result.Usage, nil)
		return []*types.CapyRecommendation{}, nil
	}

	// Act. Entries whose post_id is not a uuid cannot reference a stored
	// post and are dropped before the insert.
	recs := make([]*types.CapyRecommendation, 0, len(parsed))
	for _, p := range parsed {
		postID, parseErr := uuid.Parse(p.PostID)
		if parseErr != nil {
			cycleLog.Warn("Dropping recommendation with non-uuid post_id", "post_id", p.PostID)
			continue
		}
		recs = append(recs, &types.CapyRecommendation{
			CapyID:          agent.ID,
			PostID:          postID,
			PostTitle:       p.PostTitle,
			Reason:          p.Reason,
			ConfidenceScore: clamp01(p.Confidence),
		})
	}
	if len(recs) > 0 {
		if _, err := rs.recRepo.Create(ctx, nil, recs); err != nil {
			return nil, err
		}
	}

	// Remember. Best effort: a failure here never overrides a successful
	// cycle.
	rs.logCall(ctx, agent.ID, model, prompt, result.Content, result.Usage, nil)
	rs.remember(ctx, agent, len(posts), recs)

	cycleLog.Info("Agent cycle completed", "recommendations_generated", len(recs))
	return recs, nil
}

func (rs *recommendationService) remember(ctx context.Context, agent *types.CapyAgent, postsAnalyzed int, recs []*types.CapyRecommendation) {
	summary := map[string]any{
		"type":                      "recommendation_cycle",
		"posts_analyzed":            postsAnalyzed,
		"recommendations_generated": len(recs),
		"timestamp":                 time.Now().UTC().Format(time.RFC3339),
	}
	content, _ := json.Marshal(summary)
	if _, err := rs.interactionRepo.Create(ctx, nil, []*types.CapyInteraction{{
		CapyID1:         agent.ID,
		CapyID2:         agent.ID,
		Content:         string(content),
		InteractionType: types.InteractionRecommendation,
	}}); err != nil {
		rs.log.Warn("Failed to record cycle interaction", "capy_id", agent.ID, "error", err)
	}

	memory, err := agent.DecodeMemory()
	if err != nil {
		rs.log.Warn("Failed to decode capy memory", "capy_id", agent.ID, "error", err)
		return
	}
	memory.InteractionCount++
	for _, rec := range recs {
		memory.RecentRecommendations = append(memory.RecentRecommendations, rec.PostID.String())
	}
	if n := len(memory.RecentRecommendations); n > 20 {
		memory.RecentRecommendations = memory.RecentRecommendations[n-20:]
	}
	encoded, err := memory.Encode()
	if err != nil {
		rs.log.Warn("Failed to encode capy memory", "capy_id", agent.ID, "error", err)
		return
	}
	if err := rs.capyAgentRepo.UpdateMemory(ctx, nil, agent.ID, encoded); err != nil {
		rs.log.Warn("Failed to update capy memory", "capy_id", agent.ID, "error", err)
	}
	if err := rs.capyAgentRepo.TouchLastActive(ctx, nil, agent.ID, time.Now().UTC()); err != nil {
		rs.log.Warn("Failed to touch last_active_at", "capy_id", agent.ID, "error", err)
	}
}

// logCall records the gateway exchange; failures are logged and dropped.
func (rs *recommendationService) logCall(ctx context.Context, capyID uuid.UUID, model, prompt, response string, usage *GatewayUsage, callErr error) {
	entry := &types.AICallLog{
		CapyID:   &capyID,
		CallType: "recommendation",
		Model:    model,
		Prompt:   prompt,
		Response: response,
		Success:  callErr == nil,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	if usage != nil {
		if raw, err := json.Marshal(usage); err == nil {
			entry.Usage = raw
		}
	}
	if _, err := rs.aiCallLogRepo.Create(ctx, nil, []*types.AICallLog{entry}); err != nil {
		rs.log.Warn("Failed to write gateway call log", "capy_id", capyID, "error", err)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
