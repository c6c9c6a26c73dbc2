package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"

	"github.com/gitmaxer/gitmaxer-bot/pkg/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Server    ServerConfig    `mapstructure:"server"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Port     int    `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
}

// PostgresDSN returns DSN when set, otherwise a keyword/value string built
// from the individual connection fields.
func (c DatabaseConfig) PostgresDSN() string {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" port=" + strconv.Itoa(c.Port) +
		" sslmode=" + c.SSLMode
}

type GitHubConfig struct {
	APIBaseURL      string `mapstructure:"api_base_url"`
	OwnerUsername   string `mapstructure:"owner_username"`
	DefaultRepoName string `mapstructure:"default_repo_name"`
	RepoDescription string `mapstructure:"repo_description"`
}

type GeneratorConfig struct {
	BaseURL     string   `mapstructure:"base_url"`
	APIKeys     []string `mapstructure:"api_keys"`
	Models      []string `mapstructure:"models"`
	Temperature float32  `mapstructure:"temperature"`
}

type ScheduleConfig struct {
	Timezone        string `mapstructure:"timezone"`
	WindowStartHour int    `mapstructure:"window_start_hour"`
	WindowEndHour   int    `mapstructure:"window_end_hour"`
	IntervalMinutes int    `mapstructure:"interval_minutes"`
}

type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	Mode       string `mapstructure:"mode"`
	CronSecret string `mapstructure:"cron_secret"`
}

type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	AdminChatID int64  `mapstructure:"admin_chat_id"`
}

type RedisConfig struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	LockTTLSeconds int    `mapstructure:"lock_ttl_seconds"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	Format      string `mapstructure:"format"`
	GormLevel   string `mapstructure:"gorm_level"`
	SlowQueryMS int    `mapstructure:"slow_query_ms"`
}

var AppConfig Config

var defaults = map[string]any{
	"database.driver":            "postgres",
	"database.dsn":               "",
	"database.host":              "",
	"database.user":              "",
	"database.password":          "",
	"database.dbname":            "postgres",
	"database.port":              5432,
	"database.sslmode":           "require",
	"github.api_base_url":        "",
	"github.owner_username":      "",
	"github.default_repo_name":   "auto-contributions",
	"github.repo_description":    "Auto-generated contributions by GitMaxer",
	"generator.base_url":         "https://generativelanguage.googleapis.com/v1beta/openai/",
	"generator.api_keys":         []string{},
	"generator.models":           []string{"gemini-2.0-flash", "gemini-1.5-flash"},
	"generator.temperature":      0.9,
	"schedule.timezone":          "Asia/Kolkata",
	"schedule.window_start_hour": 20,
	"schedule.window_end_hour":   24,
	"schedule.interval_minutes":  0,
	"server.addr":                ":8080",
	"server.mode":                "release",
	"server.cron_secret":         "",
	"telegram.token":             "",
	"telegram.admin_chat_id":     0,
	"redis.addr":                 "",
	"redis.password":             "",
	"redis.db":                   0,
	"redis.lock_ttl_seconds":     600,
	"logging.level":              "info",
	"logging.file":               "",
	"logging.format":             "text",
	"logging.gorm_level":         "warn",
	"logging.slow_query_ms":      500,
}

// LoadConfig reads a JSON config file into AppConfig. Every key can be
// overridden from the environment, e.g. database.dsn by DATABASE_DSN and
// generator.api_keys by a comma separated GENERATOR_API_KEYS. A missing file
// is not an error; Validate reports whatever the environment left unset.
func LoadConfig(filename string) error {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigFile(filename)
	v.SetConfigType("json")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !isMissingFile(err) {
			logger.Error("failed to read config file", "error", err)
			return err
		}
		logger.Warn("config file not found, using defaults and environment", "file", filename)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	AppConfig = cfg
	return nil
}

func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
}

// Validate reports the credentials a tick cannot run without.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite":
		if strings.TrimSpace(c.Database.DSN) == "" {
			errs = append(errs, errors.New("database.dsn is required for the sqlite driver"))
		}
	default:
		if strings.TrimSpace(c.Database.DSN) == "" && strings.TrimSpace(c.Database.Host) == "" {
			errs = append(errs, errors.New("database.dsn or database.host is required"))
		}
	}
	if len(c.Generator.APIKeys) == 0 {
		errs = append(errs, errors.New("generator.api_keys is required"))
	}
	if len(c.Generator.Models) == 0 {
		errs = append(errs, errors.New("generator.models must not be empty"))
	}
	if c.Schedule.WindowStartHour < 0 || c.Schedule.WindowEndHour > 24 || c.Schedule.WindowStartHour >= c.Schedule.WindowEndHour {
		errs = append(errs, errors.New("schedule window must satisfy 0 <= start < end <= 24"))
	}
	return errors.Join(errs...)
}
