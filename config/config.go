package config

import (
	"fmt"
	"os"
	"time"

	"clinic-backend/pkg/timeslot"

	"github.com/spf13/viper"
)

// Missing working-hours policies. See DESIGN.md.
const (
	MissingHoursPermissive    = "permissive"
	MissingHoursDefaultWindow = "default_window"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Scheduling SchedulingConfig
	Cache      CacheConfig
	RabbitMQ   RabbitMQConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

type SchedulingConfig struct {
	SlotDuration       int // minutes
	DefaultOpen        string
	DefaultClose       string
	MissingHoursPolicy string
	SuggestDays        int
	SuggestLimit       int
	LockTTL            time.Duration
}

type CacheConfig struct {
	Enabled bool
	Size    int
	TTL     time.Duration
}

type RabbitMQConfig struct {
	Enabled  bool
	URL      string
	Exchange string
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if _, err := os.Stat(".env"); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	config := &Config{
		App: AppConfig{
			Port:     v.GetString("APP_PORT"),
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			TimeZone: v.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: v.GetDuration("JWT_ACCESS_EXPIRY"),
		},
		Scheduling: SchedulingConfig{
			SlotDuration:       v.GetInt("SCHEDULE_SLOT_DURATION"),
			DefaultOpen:        v.GetString("SCHEDULE_DEFAULT_OPEN"),
			DefaultClose:       v.GetString("SCHEDULE_DEFAULT_CLOSE"),
			MissingHoursPolicy: v.GetString("SCHEDULE_MISSING_HOURS_POLICY"),
			SuggestDays:        v.GetInt("SCHEDULE_SUGGEST_DAYS"),
			SuggestLimit:       v.GetInt("SCHEDULE_SUGGEST_LIMIT"),
			LockTTL:            v.GetDuration("SCHEDULE_LOCK_TTL"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("CACHE_ENABLED"),
			Size:    v.GetInt("CACHE_SIZE"),
			TTL:     v.GetDuration("CACHE_TTL"),
		},
		RabbitMQ: RabbitMQConfig{
			Enabled:  v.GetBool("RABBITMQ_ENABLED"),
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
	}

	if err := config.Scheduling.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_ACCESS_EXPIRY", 15*time.Minute)

	v.SetDefault("SCHEDULE_SLOT_DURATION", 30)
	v.SetDefault("SCHEDULE_DEFAULT_OPEN", "08:00")
	v.SetDefault("SCHEDULE_DEFAULT_CLOSE", "17:00")
	v.SetDefault("SCHEDULE_MISSING_HOURS_POLICY", MissingHoursPermissive)
	v.SetDefault("SCHEDULE_SUGGEST_DAYS", 7)
	v.SetDefault("SCHEDULE_SUGGEST_LIMIT", 5)
	v.SetDefault("SCHEDULE_LOCK_TTL", 5*time.Second)

	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_SIZE", 512)
	v.SetDefault("CACHE_TTL", time.Minute)

	v.SetDefault("RABBITMQ_ENABLED", false)
	v.SetDefault("RABBITMQ_EXCHANGE", "clinic.appointments")
}

// Validate checks the scheduling section for values the evaluator cannot work with.
func (c SchedulingConfig) Validate() error {
	if c.SlotDuration <= 0 {
		return fmt.Errorf("SCHEDULE_SLOT_DURATION must be positive, got %d", c.SlotDuration)
	}
	open, err := timeslot.TimeToMinutes(c.DefaultOpen)
	if err != nil {
		return fmt.Errorf("SCHEDULE_DEFAULT_OPEN: %w", err)
	}
	closeAt, err := timeslot.TimeToMinutes(c.DefaultClose)
	if err != nil {
		return fmt.Errorf("SCHEDULE_DEFAULT_CLOSE: %w", err)
	}
	if open >= closeAt {
		return fmt.Errorf("default window %s-%s is empty", c.DefaultOpen, c.DefaultClose)
	}
	switch c.MissingHoursPolicy {
	case MissingHoursPermissive, MissingHoursDefaultWindow:
	default:
		return fmt.Errorf("unknown SCHEDULE_MISSING_HOURS_POLICY %q", c.MissingHoursPolicy)
	}
	return nil
}

// DSN builds the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone,
	)
}

// MigrateURL builds the golang-migrate pgx/v5 URL.
func (c DBConfig) MigrateURL() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}
