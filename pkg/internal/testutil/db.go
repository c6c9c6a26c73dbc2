package testutil

import (
	"fmt"
	"testing"

	"github.com/gitmaxer/gitmaxer-bot/pkg/db"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database, migrates the schema
// and installs it as db.DB for the duration of the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	db.DB = gdb

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access underlying DB: %v", err)
	}

	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}
		db.DB = nil
	})
	return gdb
}

// SeedUser inserts a user row after applying the option functions.
func SeedUser(t *testing.T, gdb *gorm.DB, opts ...func(*db.UserSettings)) db.UserSettings {
	t.Helper()
	token := "gho_test_token"
	user := db.UserSettings{
		GithubUsername:    "octocat",
		GithubAccessToken: &token,
		RepoName:          "auto-contributions",
		RepoVisibility:    "public",
		PreferredLanguage: "python",
		MinContributions:  1,
		PlanType:          "pro",
	}
	for _, opt := range opts {
		opt(&user)
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}
