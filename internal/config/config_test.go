package config

import (
	"testing"
	"time"

	"park-ops/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, 8*time.Second, cfg.Store.ReadTimeout)
	assert.Equal(t, "0 2 * * *", cfg.Backup.Schedule)
	assert.Equal(t, 30*time.Minute, cfg.Park.ImportTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("STORE_READ_TIMEOUT", "2s")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("SUPERVISOR_PIN", "4321")
	t.Setenv("DB_USERNAME", "u")
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "park")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.Store.ReadTimeout)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "4321", cfg.Auth.PINs[models.RoleSupervisor])
	assert.Equal(t, "postgres://u:p@db:5432/park?sslmode=disable", cfg.Database.DSN())
}

func TestEnvHelpersIgnoreGarbage(t *testing.T) {
	t.Setenv("X_INT", "many")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_BOOL", "perhaps")
	assert.Equal(t, 3, getEnvInt("X_INT", 3))
	assert.Equal(t, time.Second, getEnvDuration("X_DUR", time.Second))
	assert.True(t, getEnvBool("X_BOOL", true))
}
