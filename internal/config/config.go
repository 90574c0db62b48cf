package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"park-ops/internal/models"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Backup   BackupConfig
	Log      LogConfig
	Park     ParkConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

// StoreConfig picks the record store backend: redis, postgres or sqlite.
type StoreConfig struct {
	Driver      string
	ReadTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
	Enabled bool
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DSN is the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	BadgeSecret string
	PINs        map[models.Role]string
}

type BackupConfig struct {
	Dir      string
	Schedule string
	Keep     int
	Enabled  bool
}

type LogConfig struct {
	Dir   string
	Level string
}

type ParkConfig struct {
	Locale       string
	TimeZone     string
	CatalogSeed  string
	ImportTTL    time.Duration
	HistoryLimit int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", ":8080"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(getEnv("STORE_DRIVER", "redis")),
			ReadTimeout: getEnvDuration("STORE_READ_TIMEOUT", 8*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "parkops"),
			Password:     getEnv("DB_PASSWORD", "parkops"),
			Database:     getEnv("DB_NAME", "parkops"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			SQLitePath:   getEnv("SQLITE_PATH", "parkops.db"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			GroupID: getEnv("KAFKA_GROUP_ID", "parkops-audit"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", "change-me"),
			TokenTTL:    getEnvDuration("TOKEN_TTL", 12*time.Hour),
			BadgeSecret: getEnv("BADGE_SECRET", "change-me-too"),
			PINs: map[models.Role]string{
				models.RoleAdmin:           getEnv("ADMIN_PIN", ""),
				models.RoleSupervisor:      getEnv("SUPERVISOR_PIN", ""),
				models.RoleSalesSupervisor: getEnv("SALES_SUPERVISOR_PIN", ""),
			},
		},
		Backup: BackupConfig{
			Dir:      getEnv("BACKUP_DIR", "backups"),
			Schedule: getEnv("BACKUP_SCHEDULE", "0 2 * * *"),
			Keep:     getEnvInt("BACKUP_KEEP", 14),
			Enabled:  getEnvBool("BACKUP_ENABLED", true),
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Park: ParkConfig{
			Locale:       getEnv("PARK_LOCALE", "en"),
			TimeZone:     getEnv("PARK_TIMEZONE", "Local"),
			CatalogSeed:  getEnv("CATALOG_SEED", "catalog.yaml"),
			ImportTTL:    getEnvDuration("IMPORT_SESSION_TTL", 30*time.Minute),
			HistoryLimit: getEnvInt("HISTORY_PAGE_SIZE", 100),
		},
	}
}

// Location resolves Park.TimeZone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Park.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
