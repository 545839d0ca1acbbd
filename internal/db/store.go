package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/happycapy/capy-community-backend/internal/config"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/types"
)

// StoreService opens the backing store selected by config: a live Postgres
// database, or an in-memory sqlite database seeded with fixtures. Repos and
// services see the same *gorm.DB either way.
type StoreService struct {
	db   *gorm.DB
	log  *logger.Logger
	mode string
}

func NewStoreService(cfg config.StoreConfig, log *logger.Logger) (*StoreService, error) {
	serviceLog := log.With("service", "StoreService", "mode", cfg.Mode)

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Mode {
	case config.StoreModePostgres:
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
		serviceLog.Info("Connecting to Postgres...")
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			serviceLog.Error("Failed to connect to Postgres", "error", err)
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
			return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
		}
	case config.StoreModeMock:
		serviceLog.Info("Opening in-memory fixture store...")
		db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
		if err != nil {
			serviceLog.Error("Failed to open in-memory store", "error", err)
			return nil, fmt.Errorf("failed to open in-memory store: %w", err)
		}
		// gorm pools connections; a second conn to :memory: would see an
		// empty database unless the cache is shared and the pool is pinned.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unknown store mode %q", cfg.Mode)
	}

	return &StoreService{db: db, log: serviceLog, mode: cfg.Mode}, nil
}

func (s *StoreService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Profile{},
		&types.Post{},
		&types.Comment{},
		&types.CapyAgent{},
		&types.CapyRecommendation{},
		&types.CapyInteraction{},
		&types.AICallLog{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if s.mode != config.StoreModePostgres {
		return nil
	}
	s.log.Info("Configuring foreign key relationships...")
	for _, stmt := range []string{
		`ALTER TABLE "profiles"
		 ADD CONSTRAINT "fk_profiles_user_id"
		 FOREIGN KEY ("user_id") REFERENCES "users"("id") ON DELETE CASCADE`,
		`ALTER TABLE "posts"
		 ADD CONSTRAINT "fk_posts_author_id"
		 FOREIGN KEY ("author_id") REFERENCES "users"("id") ON DELETE CASCADE`,
		`ALTER TABLE "comments"
		 ADD CONSTRAINT "fk_comments_post_id"
		 FOREIGN KEY ("post_id") REFERENCES "posts"("id") ON DELETE CASCADE`,
		`ALTER TABLE "capy_agents"
		 ADD CONSTRAINT "fk_capy_agents_user_id"
		 FOREIGN KEY ("user_id") REFERENCES "users"("id") ON DELETE CASCADE`,
		`ALTER TABLE "capy_recommendations"
		 ADD CONSTRAINT "fk_capy_recommendations_capy_id"
		 FOREIGN KEY ("capy_id") REFERENCES "capy_agents"("id") ON DELETE CASCADE`,
		`ALTER TABLE "capy_recommendations"
		 ADD CONSTRAINT "fk_capy_recommendations_post_id"
		 FOREIGN KEY ("post_id") REFERENCES "posts"("id") ON DELETE CASCADE`,
	} {
		if err := s.db.Exec(stmt).Error; err != nil {
			// Re-running migrations against an existing schema hits
			// duplicate constraint errors; those are fine to skip.
			s.log.Debug("Constraint statement skipped", "error", err)
		}
	}
	return nil
}

func (s *StoreService) DB() *gorm.DB {
	return s.db
}

func (s *StoreService) Mode() string {
	return s.mode
}
