package db

import (
	"testing"

	"github.com/happycapy/capy-community-backend/internal/config"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/types"
)

func newFixtureStore(t *testing.T) *StoreService {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	store, err := NewStoreService(config.StoreConfig{Mode: config.StoreModeMock}, log)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	if err := store.AutoMigrateAll(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestSeedFixtures_LoadsFullDataSet(t *testing.T) {
	store := newFixtureStore(t)
	if err := SeedFixtures(store.DB()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	counts := []struct {
		model any
		want  int64
	}{
		{&types.User{}, 4},
		{&types.Profile{}, 4},
		{&types.CapyAgent{}, 2},
		{&types.Post{}, 12},
		{&types.Comment{}, 3},
	}
	for _, tc := range counts {
		var n int64
		if err := store.DB().Model(tc.model).Count(&n).Error; err != nil {
			t.Fatalf("count %T: %v", tc.model, err)
		}
		if n != tc.want {
			t.Fatalf("%T: expected %d rows, got %d", tc.model, tc.want, n)
		}
	}

	var zhangsan types.User
	if err := store.DB().Where("id = ?", FixtureUserZhangsan).First(&zhangsan).Error; err != nil {
		t.Fatalf("load 张三: %v", err)
	}
	if zhangsan.Tier != types.TierMax || zhangsan.Name != "张三" {
		t.Fatalf("unexpected fixture user: %+v", zhangsan)
	}
}

func TestSeedFixtures_Idempotent(t *testing.T) {
	store := newFixtureStore(t)
	if err := SeedFixtures(store.DB()); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := SeedFixtures(store.DB()); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	var n int64
	if err := store.DB().Model(&types.User{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 4 {
		t.Fatalf("re-seeding must not duplicate users, got %d", n)
	}
}
