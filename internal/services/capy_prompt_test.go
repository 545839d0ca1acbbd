package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/happycapy/capy-community-backend/internal/types"
)

func promptTestPosts(n int) []*types.Post {
	posts := make([]*types.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, &types.Post{
			ID:        uuid.New(),
			Title:     fmt.Sprintf("帖子 %d", i+1),
			Content:   strings.Repeat("内容", 200),
			Category:  "技术",
			Author:    &types.User{Name: "张三"},
			Hotness:   42,
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		})
	}
	return posts
}

func TestBuildRecommendationPrompt_ContainsEveryPost(t *testing.T) {
	posts := promptTestPosts(5)
	prompt := buildRecommendationPrompt(posts, CapyProfile{
		OwnerName:   "张三",
		CapyName:    "小懒",
		Personality: "lazy",
	})

	if !strings.Contains(prompt, "小懒") {
		t.Fatalf("prompt missing capy name")
	}
	if !strings.Contains(prompt, "最近的5个帖子") {
		t.Fatalf("prompt missing post count")
	}
	for i, post := range posts {
		if !strings.Contains(prompt, post.ID.String()) {
			t.Fatalf("prompt missing post %d ID", i+1)
		}
		if !strings.Contains(prompt, fmt.Sprintf("[%d]", i+1)) {
			t.Fatalf("prompt missing index marker [%d]", i+1)
		}
	}
}

func TestBuildRecommendationPrompt_DefaultsWhenProfileEmpty(t *testing.T) {
	prompt := buildRecommendationPrompt(promptTestPosts(1), CapyProfile{})
	if !strings.Contains(prompt, "小卡皮") {
		t.Fatalf("expected default capy name in prompt")
	}
	if !strings.Contains(prompt, "好奇友善") {
		t.Fatalf("expected default personality in prompt")
	}
}

func TestBuildRecommendationPrompt_IncludesConfiguredInterests(t *testing.T) {
	posts := promptTestPosts(1)

	with := buildRecommendationPrompt(posts, CapyProfile{
		CapyName:  "小懒",
		Interests: []string{"围棋", "烘焙"},
	})
	if !strings.Contains(with, "主人关注的兴趣: 围棋、烘焙") {
		t.Fatalf("prompt missing interests line:\n%s", with)
	}

	without := buildRecommendationPrompt(posts, CapyProfile{CapyName: "小懒"})
	if strings.Contains(without, "主人关注的兴趣") {
		t.Fatalf("interests line must be omitted when unset")
	}
}

func TestBuildRecommendationPrompt_TruncatesContentPreview(t *testing.T) {
	posts := promptTestPosts(1)
	prompt := buildRecommendationPrompt(posts, CapyProfile{CapyName: "Momo"})
	// The full 400-rune content must not appear, only the preview.
	if strings.Contains(prompt, posts[0].Content) {
		t.Fatalf("prompt contains untruncated content")
	}
	preview := truncateRunes(posts[0].Content, promptContentPreview)
	if !strings.Contains(prompt, preview) {
		t.Fatalf("prompt missing content preview")
	}
}

func TestTruncateRunes_MultibyteSafe(t *testing.T) {
	s := "你好世界"
	if got := truncateRunes(s, 2); got != "你好" {
		t.Fatalf("truncateRunes cut mid-character: %q", got)
	}
	if got := truncateRunes(s, 10); got != s {
		t.Fatalf("short strings must pass through, got %q", got)
	}
}
