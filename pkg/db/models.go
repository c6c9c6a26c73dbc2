// pkg/db/models.go
package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"

	DefaultProjectDays = 15
)

type UserSettings struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID             *uuid.UUID `gorm:"type:uuid;uniqueIndex"` // Auth principal, when the dashboard created the row
	Email              string
	GithubUsername     string  `gorm:"not null;index"`
	GithubAccessToken  *string // nil disables every track for the user
	PauseBot           bool    `gorm:"not null;default:false;index"`
	RepoName           string  `gorm:"not null;default:auto-contributions"`
	RepoVisibility     string  `gorm:"not null;default:public"`
	PreferredLanguage  string  `gorm:"not null;default:any"`
	MinContributions   int     `gorm:"not null;default:1"`
	CommitTime         *string // "HH:MM" or "HH:MM:SS", reference time zone
	PlanType           string  `gorm:"not null;default:free"`
	LeetcodeRepoName   *string
	LastCommitTS       *time.Time `gorm:"column:last_commit_ts"`
	DailyCommitCount   int        `gorm:"not null;default:0"`
	LeetcodeDailyCount int        `gorm:"not null;default:0"`
	LedgerDate         string     `gorm:"not null;default:''"` // UTC date of the last counter rollover
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (UserSettings) TableName() string {
	return "user_settings"
}

func (u *UserSettings) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Token returns the stored access token, or "" when none is stored.
func (u UserSettings) Token() string {
	if u.GithubAccessToken == nil {
		return ""
	}
	return *u.GithubAccessToken
}

type Project struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID `gorm:"type:uuid;not null;index:idx_project_user_status"`
	ProjectName        string    `gorm:"not null"`
	ProjectDescription string
	TechStack          string
	RepoName           string `gorm:"not null"`
	DaysDuration       int    `gorm:"not null;default:15"`
	CurrentDay         int    `gorm:"not null;default:0"`
	Status             string `gorm:"not null;default:in_progress;index:idx_project_user_status"`
	CommitCount        int    `gorm:"not null;default:0"`
	LastCommitAt       *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.DaysDuration <= 0 {
		p.DaysDuration = DefaultProjectDays
	}
	if p.Status == "" {
		p.Status = ProjectStatusInProgress
	}
	return nil
}

type GeneratedHistory struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index"`
	ContentSnippet string
	Language       string
	ContentHash    string `gorm:"index"`
	RepoName       string
	Track          string    `gorm:"index"`
	CreatedAt      time.Time `gorm:"index"`
}

func (GeneratedHistory) TableName() string {
	return "generated_history"
}
