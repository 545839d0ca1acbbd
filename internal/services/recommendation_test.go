package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/config"
	"github.com/happycapy/capy-community-backend/internal/db"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/repos"
	"github.com/happycapy/capy-community-backend/internal/types"
)

type fakeAIClient struct {
	content string
	err     error
	calls   int
}

func (f *fakeAIClient) Complete(ctx context.Context, model, prompt string) (*ChatResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ChatResult{
		Content: f.content,
		Usage:   &GatewayUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

func newCycleTestEnv(t *testing.T, client AIClient) (RecommendationService, *gorm.DB, *types.CapyAgent) {
	t.Helper()

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	store, err := db.NewStoreService(config.StoreConfig{Mode: config.StoreModeMock}, log)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	if err := store.AutoMigrateAll(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	theDB := store.DB()
	if err := db.SeedFixtures(theDB); err != nil {
		t.Fatalf("seed: %v", err)
	}

	capyAgentRepo := repos.NewCapyAgentRepo(theDB, log)
	svc := NewRecommendationService(
		theDB,
		log,
		repos.NewPostRepo(theDB, log),
		repos.NewUserRepo(theDB, log),
		capyAgentRepo,
		repos.NewCapyRecommendationRepo(theDB, log),
		repos.NewCapyInteractionRepo(theDB, log),
		repos.NewAICallLogRepo(theDB, log),
		client,
		10,
	)

	agent, err := capyAgentRepo.GetByID(context.Background(), nil, db.FixtureCapyXiaolan)
	if err != nil {
		t.Fatalf("load fixture agent: %v", err)
	}
	return svc, theDB, agent
}

func TestRunCycle_PersistsRecommendationsAndLogsCall(t *testing.T) {
	postID := uuid.MustParse("00000000-0000-0000-0000-000000002001")
	client := &fakeAIClient{
		content: `[{"post_id": "` + postID.String() + `", "post_title": "如何选择一台好的咖啡机？", "reason": "主人会喜欢这个", "confidence": 1.7}]`,
	}
	svc, theDB, agent := newCycleTestEnv(t, client)

	before := countRows(t, theDB, &types.CapyRecommendation{}, "capy_id = ?", agent.ID)

	recs, err := svc.RunCycle(context.Background(), agent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	if recs[0].PostID != postID {
		t.Fatalf("wrong post id: %s", recs[0].PostID)
	}
	if recs[0].ConfidenceScore != 1 {
		t.Fatalf("confidence must clamp to 1, got %v", recs[0].ConfidenceScore)
	}

	after := countRows(t, theDB, &types.CapyRecommendation{}, "capy_id = ?", agent.ID)
	if after != before+1 {
		t.Fatalf("expected one new stored recommendation, before=%d after=%d", before, after)
	}

	var call types.AICallLog
	if err := theDB.Where("capy_id = ?", agent.ID).Order("created_at DESC").First(&call).Error; err != nil {
		t.Fatalf("load call log: %v", err)
	}
	if !call.Success || call.Model != ModelClaudeOpus {
		t.Fatalf("unexpected call log: success=%v model=%s", call.Success, call.Model)
	}
}

func TestRunCycle_GatewayFailureWrapsGenerationError(t *testing.T) {
	client := &fakeAIClient{err: &GatewayHTTPError{Status: 503, Body: "upstream down"}}
	svc, theDB, agent := newCycleTestEnv(t, client)

	_, err := svc.RunCycle(context.Background(), agent)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrRecommendationGeneration) {
		t.Fatalf("expected ErrRecommendationGeneration in chain, got %v", err)
	}

	var call types.AICallLog
	if err := theDB.Where("capy_id = ? AND success = ?", agent.ID, false).
		Order("created_at DESC").First(&call).Error; err != nil {
		t.Fatalf("failed call must still be logged: %v", err)
	}
	if call.Error == "" {
		t.Fatalf("call log must carry the gateway error")
	}
}

func TestRunCycle_UnparsableOutputYieldsEmptyWithoutError(t *testing.T) {
	client := &fakeAIClient{content: "I cannot answer in JSON today."}
	svc, _, agent := newCycleTestEnv(t, client)

	recs, err := svc.RunCycle(context.Background(), agent)
	if err != nil {
		t.Fatalf("parse failures must not error the cycle: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(recs))
	}
}

func TestRunCycle_DropsNonUUIDPostIDs(t *testing.T) {
	goodID := uuid.MustParse("00000000-0000-0000-0000-000000002002")
	client := &fakeAIClient{
		content: `[
		  {"post_id": "not-a-uuid", "post_title": "x", "reason": "r"},
		  {"post_id": "` + goodID.String() + `", "post_title": "周末去了一家新开的咖啡店", "reason": "r"}
		]`,
	}
	svc, _, agent := newCycleTestEnv(t, client)

	recs, err := svc.RunCycle(context.Background(), agent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(recs) != 1 || recs[0].PostID != goodID {
		t.Fatalf("expected only the uuid entry to survive, got %+v", recs)
	}
}

func TestRunCycle_RemembersCycleInMemory(t *testing.T) {
	postID := uuid.MustParse("00000000-0000-0000-0000-000000002003")
	client := &fakeAIClient{
		content: `[{"post_id": "` + postID.String() + `", "post_title": "t", "reason": "r", "confidence": 0.9}]`,
	}
	svc, theDB, agent := newCycleTestEnv(t, client)

	memBefore, err := agent.DecodeMemory()
	if err != nil {
		t.Fatalf("decode memory: %v", err)
	}

	if _, err := svc.RunCycle(context.Background(), agent); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	var reloaded types.CapyAgent
	if err := theDB.Where("id = ?", agent.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload agent: %v", err)
	}
	memAfter, err := reloaded.DecodeMemory()
	if err != nil {
		t.Fatalf("decode memory: %v", err)
	}
	if memAfter.InteractionCount != memBefore.InteractionCount+1 {
		t.Fatalf("interaction count %d -> %d, expected +1", memBefore.InteractionCount, memAfter.InteractionCount)
	}
	found := false
	for _, id := range memAfter.RecentRecommendations {
		if id == postID.String() {
			found = true
		}
	}
	if !found {
		t.Fatalf("recent recommendations missing %s: %v", postID, memAfter.RecentRecommendations)
	}
	if reloaded.LastActiveAt == nil {
		t.Fatalf("last_active_at must be set after a cycle")
	}
}

func countRows(t *testing.T, theDB *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := theDB.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
