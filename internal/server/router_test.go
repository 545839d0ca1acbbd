package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/config"
	"github.com/happycapy/capy-community-backend/internal/db"
	"github.com/happycapy/capy-community-backend/internal/handlers"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/middleware"
	"github.com/happycapy/capy-community-backend/internal/repos"
	"github.com/happycapy/capy-community-backend/internal/services"
	"github.com/happycapy/capy-community-backend/internal/types"
)

type stubAIClient struct {
	content string
	err     error
}

func (s *stubAIClient) Complete(ctx context.Context, model, prompt string) (*services.ChatResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.ChatResult{Content: s.content}, nil
}

func newTestRouter(t *testing.T, ai services.AIClient) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	userRepo := repos.NewUserRepo(theDB, log)
	postRepo := repos.NewPostRepo(theDB, log)
	commentRepo := repos.NewCommentRepo(theDB, log)
	capyAgentRepo := repos.NewCapyAgentRepo(theDB, log)
	recRepo := repos.NewCapyRecommendationRepo(theDB, log)
	interactionRepo := repos.NewCapyInteractionRepo(theDB, log)
	aiCallLogRepo := repos.NewAICallLogRepo(theDB, log)

	profileRepo := repos.NewProfileRepo(theDB, log)

	authService := services.NewAuthService(theDB, log, userRepo)
	userService := services.NewUserService(theDB, log, userRepo, profileRepo, nil)
	postService := services.NewPostService(theDB, log, postRepo, authService)
	commentService := services.NewCommentService(theDB, log, commentRepo, postRepo)
	recService := services.NewRecommendationService(
		theDB, log, postRepo, userRepo, capyAgentRepo, recRepo, interactionRepo, aiCallLogRepo, ai, 10)
	capyService := services.NewCapyService(theDB, log, capyAgentRepo, recRepo, interactionRepo, nil, recService)

	router := NewRouter(RouterConfig{
		AuthMiddleware: middleware.NewAuthMiddleware(log, authService),
		PostHandler:    handlers.NewPostHandler(postService),
		CommentHandler: handlers.NewCommentHandler(commentService),
		CapyHandler:    handlers.NewCapyHandler(capyService),
		UserHandler:    handlers.NewUserHandler(userService),
	})
	return router, theDB
}

func doJSON(t *testing.T, router *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v; body=%s", err, rec.Body.String())
	}
	return envelope.Error.Message
}

func TestRouter_ListPostsIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, &stubAIClient{})
	rec := doJSON(t, router, http.MethodGet, "/api/posts", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Posts      []json.RawMessage `json:"posts"`
		Pagination struct {
			Page  int   `json:"page"`
			Limit int   `json:"limit"`
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Posts) == 0 || resp.Pagination.Limit != 20 || resp.Pagination.Page != 1 {
		t.Fatalf("unexpected listing: %d posts, pagination %+v", len(resp.Posts), resp.Pagination)
	}
}

func TestRouter_FreeTierCannotPost(t *testing.T) {
	router, _ := newTestRouter(t, &stubAIClient{})
	rec := doJSON(t, router, http.MethodPost, "/api/posts", db.FixtureUserZhaoliu.String(), map[string]string{
		"title": "t", "content": "c", "category": "生活",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := errorMessage(t, rec); msg != "Insufficient permissions: pro tier required, current tier is free" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestRouter_ProTierCanPostAndDelete(t *testing.T) {
	router, _ := newTestRouter(t, &stubAIClient{})
	rec := doJSON(t, router, http.MethodPost, "/api/posts", db.FixtureUserWangwu.String(), map[string]string{
		"title": "新帖子", "content": "内容", "category": "技术",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	del := doJSON(t, router, http.MethodDelete, "/api/posts/"+created.Post.ID, db.FixtureUserWangwu.String(), nil)
	if del.Code != http.StatusOK {
		t.Fatalf("owner delete should succeed, got %d: %s", del.Code, del.Body.String())
	}

	// Deleting again hits the already-deleted row.
	again := doJSON(t, router, http.MethodDelete, "/api/posts/"+created.Post.ID, db.FixtureUserWangwu.String(), nil)
	if again.Code != http.StatusNotFound {
		t.Fatalf("second delete must 404, got %d", again.Code)
	}

	// And the post stops being readable.
	get := doJSON(t, router, http.MethodGet, "/api/posts/"+created.Post.ID, "", nil)
	if get.Code != http.StatusNotFound {
		t.Fatalf("deleted post must 404 on read, got %d", get.Code)
	}
}

func TestRouter_NonOwnerProCannotDelete(t *testing.T) {
	router, theDB := newTestRouter(t, &stubAIClient{})

	post := &types.Post{AuthorID: db.FixtureUserZhangsan, Title: "别人的帖子", Content: "c", Category: "生活"}
	if err := theDB.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}

	rec := doJSON(t, router, http.MethodDelete, "/api/posts/"+post.ID.String(), db.FixtureUserWangwu.String(), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := errorMessage(t, rec); msg != "Forbidden: You can only delete your own posts unless you have Max tier" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestRouter_CommentOnDeletedPost(t *testing.T) {
	router, theDB := newTestRouter(t, &stubAIClient{})

	post := &types.Post{AuthorID: db.FixtureUserWangwu, Title: "将被删除", Content: "c", Category: "生活", IsDeleted: true}
	if err := theDB.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/comments", db.FixtureUserWangwu.String(), map[string]string{
		"post_id": post.ID.String(), "content": "还在吗",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := errorMessage(t, rec); msg != "Cannot comment on deleted post" {
		t.Fatalf("unexpected message: %q", msg)
	}

	missing := doJSON(t, router, http.MethodPost, "/api/comments", db.FixtureUserWangwu.String(), map[string]string{
		"post_id": uuid.New().String(), "content": "hello",
	})
	if missing.Code != http.StatusNotFound {
		t.Fatalf("comment on missing post must 404, got %d", missing.Code)
	}
}

func TestRouter_CommentsRequirePostID(t *testing.T) {
	router, _ := newTestRouter(t, &stubAIClient{})
	rec := doJSON(t, router, http.MethodGet, "/api/comments", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without post_id, got %d", rec.Code)
	}
}

func TestRouter_CapySurfaceRequiresMaxTier(t *testing.T) {
	router, _ := newTestRouter(t, &stubAIClient{})
	rec := doJSON(t, router, http.MethodGet, "/api/capy", db.FixtureUserWangwu.String(), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Capy Agent access requires Max tier subscription" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestRouter_CapyRecommendationsWithoutAgent(t *testing.T) {
	router, theDB := newTestRouter(t, &stubAIClient{})

	// A max user without a capy yet.
	user := &types.User{Email: "newmax@test.com", Name: "新用户", Tier: types.TierMax, IsActive: true}
	if err := theDB.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/capy/recommendations", user.ID.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := errorMessage(t, rec); msg != "You must create a Capy Agent first to receive recommendations" {
		t.Fatalf("unexpected message: %q", msg)
	}

	// The agent fetch itself reports null instead of erroring.
	get := doJSON(t, router, http.MethodGet, "/api/capy", user.ID.String(), nil)
	if get.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", get.Code)
	}
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(get.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(resp["capy"]) != "null" {
		t.Fatalf("expected capy:null, got %s", resp["capy"])
	}
}

func TestRouter_CreateCapyOncePerUser(t *testing.T) {
	router, theDB := newTestRouter(t, &stubAIClient{})

	user := &types.User{Email: "maxtwo@test.com", Name: "第二个", Tier: types.TierMax, IsActive: true}
	if err := theDB.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	body := map[string]string{"name": "毛毛", "personality": "diligent"}
	rec := doJSON(t, router, http.MethodPost, "/api/capy", user.ID.String(), body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Capy struct {
			Personality string `json:"personality"`
		} `json:"capy"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Capy.Personality != string(types.PersonalityActive) {
		t.Fatalf("diligent must store as active, got %q", created.Capy.Personality)
	}

	dup := doJSON(t, router, http.MethodPost, "/api/capy", user.ID.String(), body)
	if dup.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate, got %d", dup.Code)
	}
	if msg := errorMessage(t, dup); msg != "You already have a Capy Agent. Each Max user can only have one Capy." {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestRouter_CreateCapyValidatesConfigTypes(t *testing.T) {
	router, theDB := newTestRouter(t, &stubAIClient{})

	user := &types.User{Email: "maxthree@test.com", Name: "第三个", Tier: types.TierMax, IsActive: true}
	if err := theDB.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	// interests must be a string array, not a bare string.
	bad := map[string]any{
		"name":        "豆豆",
		"personality": "curious",
		"config":      map[string]any{"interests": "阅读"},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/capy", user.ID.String(), bad)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := errorMessage(t, rec); msg != "Config must be a JSON object" {
		t.Fatalf("unexpected message: %q", msg)
	}

	good := map[string]any{
		"name":        "豆豆",
		"personality": "curious",
		"config":      map[string]any{"interests": []string{"阅读", "徒步"}, "response_style": "活泼"},
	}
	rec = doJSON(t, router, http.MethodPost, "/api/capy", user.ID.String(), good)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Capy types.CapyAgent `json:"capy"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	cfg, err := created.Capy.DecodeConfig()
	if err != nil {
		t.Fatalf("decode stored config: %v", err)
	}
	if len(cfg.Interests) != 2 || cfg.Interests[0] != "阅读" {
		t.Fatalf("stored interests lost: %+v", cfg)
	}
}

func TestRouter_GenerateRecommendations_GatewayDown(t *testing.T) {
	router, _ := newTestRouter(t, &stubAIClient{err: &services.GatewayHTTPError{Status: 500, Body: "boom"}})
	rec := doJSON(t, router, http.MethodPost, "/api/capy/recommendations/generate", db.FixtureUserZhangsan.String(), nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_GetMeReturnsUserAndProfile(t *testing.T) {
	router, _ := newTestRouter(t, &stubAIClient{})
	rec := doJSON(t, router, http.MethodGet, "/api/me", db.FixtureUserZhangsan.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Me struct {
			User struct {
				Name string `json:"name"`
				Tier string `json:"tier"`
			} `json:"user"`
			Profile struct {
				Username string `json:"username"`
			} `json:"profile"`
		} `json:"me"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Me.User.Name != "张三" || resp.Me.User.Tier != "max" || resp.Me.Profile.Username != "张三" {
		t.Fatalf("unexpected me payload: %+v", resp.Me)
	}
}

func TestRouter_MissingUserHeaderOnProtectedRoute(t *testing.T) {
	router, _ := newTestRouter(t, &stubAIClient{})
	rec := doJSON(t, router, http.MethodPost, "/api/posts", "", map[string]string{
		"title": "t", "content": "c", "category": "生活",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Unauthorized: No user ID provided" {
		t.Fatalf("unexpected message: %q", msg)
	}
}
