package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/happycapy/capy-community-backend/internal/types"
)

// CapyProfile is the persona the prompt speaks as. Interests come from the
// agent's config blob and are optional.
type CapyProfile struct {
	OwnerName   string
	CapyName    string
	Personality string
	Interests   []string
}

const promptContentPreview = 150

// buildRecommendationPrompt formats the model prompt: persona preamble,
// numbered post summaries, then a fixed instruction footer demanding a bare
// JSON array of 1-3 recommendations.
func buildRecommendationPrompt(posts []*types.Post, profile CapyProfile) string {
	capyName := profile.CapyName
	if capyName == "" {
		capyName = "小卡皮"
	}
	personality := profile.Personality
	if personality == "" {
		personality = "好奇友善"
	}
	interestsLine := ""
	if len(profile.Interests) > 0 {
		interestsLine = fmt.Sprintf("\n主人关注的兴趣: %s\n", strings.Join(profile.Interests, "、"))
	}

	summaries := make([]string, 0, len(posts))
	for i, post := range posts {
		authorName := ""
		if post.Author != nil {
			authorName = post.Author.Name
		}
		summaries = append(summaries, fmt.Sprintf(`[%d] ID: %s
标题: %s
分类: %s
内容摘要: %s...
作者: %s
热度: %d分 | %d个赞 | %d条评论
发布时间: %s`,
			i+1, post.ID, post.Title, post.Category,
			truncateRunes(post.Content, promptContentPreview),
			authorName,
			post.Hotness, post.LikesCount, post.CommentCount,
			post.CreatedAt.Format(time.RFC3339)))
	}

	return fmt.Sprintf(`你是一只名叫"%s"的AI卡皮宠物，你的性格是: %s

你的主人是"%s"，你需要帮助主人在社区论坛中找到感兴趣的内容。
%s
以下是最近的%d个帖子:

%s

请根据你的性格和主人可能感兴趣的内容，从上述帖子中推荐1-3个最值得阅读的帖子。

要求:
1. 推荐数量: 1-3个帖子
2. 推荐理由: 要体现你的性格特点
3. 输出格式必须是JSON数组，每个推荐包含:
   - post_id: 帖子ID (字符串)
   - post_title: 帖子标题
   - reason: 推荐理由 (50字以内，用第一人称"我"，体现你的性格)
   - confidence: 置信度 (0-1之间的数字)

示例输出:
[
  {
    "post_id": "xxx-xxx-xxx",
    "post_title": "帖子标题",
    "reason": "主人，我觉得这个话题很有趣！",
    "confidence": 0.85
  }
]

请直接输出JSON数组，不要包含任何其他文字或markdown标记。`,
		capyName, personality, profile.OwnerName, interestsLine, len(posts), strings.Join(summaries, "\n\n"))
}

// truncateRunes cuts at rune boundaries so multi-byte text never splits
// mid-character.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
