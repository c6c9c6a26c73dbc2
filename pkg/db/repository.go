// pkg/db/repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gitmaxer/gitmaxer-bot/pkg/config"
	"github.com/gitmaxer/gitmaxer-bot/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Export DB variable
var DB *gorm.DB

func InitDB(cfg config.DatabaseConfig) error {
	gdb, err := Open(cfg, config.AppConfig.Logging)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	if err := Migrate(gdb); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		return err
	}
	DB = gdb
	return nil
}

func Open(cfg config.DatabaseConfig, logCfg config.LoggingConfig) (*gorm.DB, error) {
	slow := time.Duration(logCfg.SlowQueryMS) * time.Millisecond
	gormLogger, gormErr := newGormLogger(logCfg.GormLevel, slow)
	if gormErr != nil {
		logger.Error("invalid gorm log level", "value", logCfg.GormLevel, "error", gormErr)
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "", "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
}

func Migrate(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	return gdb.AutoMigrate(&UserSettings{}, &Project{}, &GeneratedHistory{})
}

// Store is the record store the dispatcher reads and mutates each tick.
type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func (s *Store) ActiveUsers(ctx context.Context) ([]UserSettings, error) {
	var users []UserSettings
	if err := s.db.WithContext(ctx).
		Where("pause_bot = ?", false).
		Order("created_at ASC, id ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("select active users: %w", err)
	}
	return users, nil
}

// UpdateUser writes the given columns. A map is used so zero values such as
// a reset counter are persisted.
func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&UserSettings{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update user %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *Store) InsertHistory(ctx context.Context, record *GeneratedHistory) error {
	if record == nil {
		return errors.New("insert history: nil record")
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// ActiveProject returns the oldest in-progress project of the user, or nil
// when there is none.
func (s *Store) ActiveProject(ctx context.Context, userID uuid.UUID) (*Project, error) {
	var project Project
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, ProjectStatusInProgress).
		Order("created_at ASC, id ASC").
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select active project: %w", err)
	}
	return &project, nil
}

func (s *Store) UpdateProject(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&Project{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update project %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update project %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

type Stats struct {
	TotalUsers     int64
	PausedUsers    int64
	UsersByPlan    map[string]int64
	CommitsSince   int64
	ActiveProjects int64
}

// Stats summarizes the store for the admin surface. CommitsSince counts
// history rows created at or after since.
func (s *Store) Stats(ctx context.Context, since time.Time) (Stats, error) {
	stats := Stats{UsersByPlan: make(map[string]int64)}
	q := s.db.WithContext(ctx)

	if err := q.Model(&UserSettings{}).Count(&stats.TotalUsers).Error; err != nil {
		return stats, fmt.Errorf("count users: %w", err)
	}
	if err := q.Model(&UserSettings{}).Where("pause_bot = ?", true).Count(&stats.PausedUsers).Error; err != nil {
		return stats, fmt.Errorf("count paused users: %w", err)
	}

	var rows []struct {
		PlanType string
		Count    int64
	}
	if err := q.Model(&UserSettings{}).
		Select("plan_type, count(*) AS count").
		Group("plan_type").
		Scan(&rows).Error; err != nil {
		return stats, fmt.Errorf("count users by plan: %w", err)
	}
	for _, row := range rows {
		plan := row.PlanType
		if plan == "" {
			plan = "free"
		}
		stats.UsersByPlan[plan] += row.Count
	}

	if err := q.Model(&GeneratedHistory{}).Where("created_at >= ?", since).Count(&stats.CommitsSince).Error; err != nil {
		return stats, fmt.Errorf("count history: %w", err)
	}
	if err := q.Model(&Project{}).Where("status = ?", ProjectStatusInProgress).Count(&stats.ActiveProjects).Error; err != nil {
		return stats, fmt.Errorf("count projects: %w", err)
	}
	return stats, nil
}
