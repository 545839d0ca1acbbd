package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/types"
)

// Fixture ids are deterministic so the X-User-ID header and tests can refer
// to them directly.
var (
	FixtureUserZhangsan = uuid.MustParse("00000000-0000-0000-0000-000000000001") // max
	FixtureUserLisi     = uuid.MustParse("00000000-0000-0000-0000-000000000002") // max
	FixtureUserWangwu   = uuid.MustParse("00000000-0000-0000-0000-000000000003") // pro
	FixtureUserZhaoliu  = uuid.MustParse("00000000-0000-0000-0000-000000000004") // free

	FixtureCapyXiaolan = uuid.MustParse("00000000-0000-0000-0000-000000001001")
	FixtureCapyXiaoqin = uuid.MustParse("00000000-0000-0000-0000-000000001002")
)

func fixturePostID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-0000%08x", 0x2000+n))
}

// SeedFixtures loads the development data set into an empty store. It is
// only called in mock mode.
func SeedFixtures(db *gorm.DB) error {
	var count int64
	if err := db.Model(&types.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	at := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}

	users := []*types.User{
		{ID: FixtureUserZhangsan, Email: "zhangsan@test.com", Name: "张三", Tier: types.TierMax, IsActive: true, CreatedAt: at("2024-01-01T00:00:00Z")},
		{ID: FixtureUserLisi, Email: "lisi@test.com", Name: "李四", Tier: types.TierMax, IsActive: true, CreatedAt: at("2024-01-05T00:00:00Z")},
		{ID: FixtureUserWangwu, Email: "wangwu@test.com", Name: "王五", Tier: types.TierPro, IsActive: true, CreatedAt: at("2024-01-10T00:00:00Z")},
		{ID: FixtureUserZhaoliu, Email: "zhaoliu@test.com", Name: "赵六", Tier: types.TierFree, IsActive: true, CreatedAt: at("2024-01-15T00:00:00Z")},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	profiles := []*types.Profile{
		{UserID: FixtureUserZhangsan, Username: "张三", Bio: "Max用户，喜欢科技和咖啡"},
		{UserID: FixtureUserLisi, Username: "李四", Bio: "Max用户，热爱生活"},
		{UserID: FixtureUserWangwu, Username: "王五", Bio: "Pro用户"},
		{UserID: FixtureUserZhaoliu, Username: "赵六", Bio: "Free用户"},
	}
	if err := db.Create(&profiles).Error; err != nil {
		return err
	}

	capys := []*types.CapyAgent{
		{
			ID: FixtureCapyXiaolan, UserID: FixtureUserZhangsan,
			Name: "小懒", Personality: types.PersonalityLazy,
			Bio: "一只懒洋洋的水豚，喜欢晒太阳和看帖子", IsActive: true,
			Config: datatypes.JSON(`{"interests":["咖啡","技术","生活"],"response_style":"lazy","activity_level":"low"}`),
			Memory: datatypes.JSON(`{"favorite_topics":["咖啡","科技"],"interaction_count":5,"recent_recommendations":[]}`),
		},
		{
			ID: FixtureCapyXiaoqin, UserID: FixtureUserLisi,
			Name: "小勤", Personality: types.PersonalityActive,
			Bio: "一只活泼的水豚，喜欢到处探索", IsActive: true,
			Config: datatypes.JSON(`{"interests":["生活","美食","旅行"],"response_style":"active","activity_level":"high"}`),
			Memory: datatypes.JSON(`{"favorite_topics":["美食","旅行"],"interaction_count":8,"recent_recommendations":[]}`),
		},
	}
	if err := db.Create(&capys).Error; err != nil {
		return err
	}

	type seedPost struct {
		n        int
		author   uuid.UUID
		title    string
		content  string
		category string
		hotness  int
		created  string
	}
	seeds := []seedPost{
		{1, FixtureUserZhangsan, "如何选择一台好的咖啡机？", "最近想买咖啡机，大家有什么推荐吗？预算3000左右。", "生活", 42, "2024-02-18T10:00:00Z"},
		{2, FixtureUserLisi, "周末去了一家新开的咖啡店", "环境很不错，咖啡也好喝，推荐给大家！", "生活", 28, "2024-02-18T09:30:00Z"},
		{3, FixtureUserWangwu, "TypeScript 5.0 新特性介绍", "TypeScript 5.0带来了很多实用的新特性，这里总结一下...", "技术", 67, "2024-02-18T08:00:00Z"},
		{4, FixtureUserZhangsan, "Next.js 14 的 Server Actions 体验", "试用了一下Server Actions，感觉很方便，这里分享一些心得...", "技术", 89, "2024-02-17T15:00:00Z"},
		{5, FixtureUserLisi, "健康饮食小贴士", "分享一些我的健康饮食经验，希望对大家有帮助。", "生活", 35, "2024-02-17T12:00:00Z"},
		{6, FixtureUserWangwu, "React 19 Beta 发布了", "React 19 Beta版本发布，新增了很多有趣的特性...", "技术", 102, "2024-02-16T14:00:00Z"},
		{7, FixtureUserZhangsan, "远程工作的优缺点", "在家工作两年了，来聊聊我的感受...", "职场", 54, "2024-02-16T10:00:00Z"},
		{8, FixtureUserLisi, "推荐几本好书", "最近读了几本不错的书，推荐给大家...", "生活", 41, "2024-02-15T16:00:00Z"},
		{9, FixtureUserWangwu, "Rust vs Go: 我的选择", "对比了Rust和Go之后，我选择了...", "技术", 78, "2024-02-15T11:00:00Z"},
		{10, FixtureUserZhangsan, "早起的好处", "坚持早起半年了，生活真的改变了很多...", "生活", 63, "2024-02-14T07:00:00Z"},
		{11, FixtureUserLisi, "AI时代的程序员应该如何学习？", "在AI飞速发展的今天，程序员的学习方式也在改变...", "技术", 95, "2024-02-13T13:00:00Z"},
		{12, FixtureUserWangwu, "我的Vim配置分享", "用Vim好多年了，分享一下我的配置...", "技术", 47, "2024-02-12T09:00:00Z"},
	}
	posts := make([]*types.Post, 0, len(seeds))
	for _, sp := range seeds {
		posts = append(posts, &types.Post{
			ID:        fixturePostID(sp.n),
			AuthorID:  sp.author,
			Title:     sp.title,
			Content:   sp.content,
			Category:  sp.category,
			Hotness:   sp.hotness,
			CreatedAt: at(sp.created),
			UpdatedAt: at(sp.created),
		})
	}
	if err := db.Create(&posts).Error; err != nil {
		return err
	}

	comments := []*types.Comment{
		{PostID: fixturePostID(1), AuthorID: FixtureUserLisi, Content: "我买的德龙咖啡机很不错，推荐！", CreatedAt: at("2024-02-18T10:30:00Z")},
		{PostID: fixturePostID(1), AuthorID: FixtureUserWangwu, Content: "我用的飞利浦，性价比挺高的", CreatedAt: at("2024-02-18T11:00:00Z")},
		{PostID: fixturePostID(3), AuthorID: FixtureUserZhangsan, Content: "学习了，谢谢分享！", CreatedAt: at("2024-02-18T08:30:00Z")},
	}
	if err := db.Create(&comments).Error; err != nil {
		return err
	}
	if err := db.Model(&types.Post{}).Where("id = ?", fixturePostID(1)).Update("comment_count", 2).Error; err != nil {
		return err
	}
	if err := db.Model(&types.Post{}).Where("id = ?", fixturePostID(3)).Update("comment_count", 1).Error; err != nil {
		return err
	}

	interactions := []*types.CapyInteraction{
		{CapyID1: FixtureCapyXiaolan, CapyID2: FixtureCapyXiaoqin, InteractionType: types.InteractionChat, Content: "小懒: \"主人，我今天看到一个关于咖啡机的帖子，懒得动但想喝咖啡...\"\n小勤: \"我帮你去看看有什么好的推荐！德龙咖啡机好像不错呢！\"", CreatedAt: at("2024-02-18T11:00:00Z")},
		{CapyID1: FixtureCapyXiaoqin, CapyID2: FixtureCapyXiaolan, InteractionType: types.InteractionRecommendation, Content: "小勤: \"小懒！我发现了一个关于TypeScript的好文章！\"\n小懒: \"嗯...听起来很技术...我先睡会儿...\"", CreatedAt: at("2024-02-18T09:00:00Z")},
	}
	if err := db.Create(&interactions).Error; err != nil {
		return err
	}

	recs := []*types.CapyRecommendation{
		{CapyID: FixtureCapyXiaolan, PostID: fixturePostID(1), PostTitle: "如何选择一台好的咖啡机？", Reason: "主人喜欢咖啡，这个帖子讨论咖啡机选择", ConfidenceScore: 0.85, CreatedAt: at("2024-02-18T10:00:00Z")},
		{CapyID: FixtureCapyXiaoqin, PostID: fixturePostID(3), PostTitle: "TypeScript 5.0 新特性介绍", Reason: "主人是程序员，这是关于TypeScript新特性的文章", ConfidenceScore: 0.92, CreatedAt: at("2024-02-18T08:00:00Z")},
		{CapyID: FixtureCapyXiaolan, PostID: fixturePostID(4), PostTitle: "Next.js 14 的 Server Actions 体验", Reason: "主人对Next.js感兴趣，这是关于Server Actions的体验分享", ConfidenceScore: 0.88, CreatedAt: at("2024-02-17T15:00:00Z")},
	}
	return db.Create(&recs).Error
}
