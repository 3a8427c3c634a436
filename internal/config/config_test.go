package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "./db/migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, "./models/rent_predictor.model", cfg.Models.RentPredictorPath)
	assert.Equal(t, "./models/value_classifier.model", cfg.Models.ValueClassifierPath)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Search.Enabled())
	assert.Equal(t, "listings.ingested", cfg.Kafka.IngestionTopic)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_TTL", "30s")
	t.Setenv("MODELS_DIR", "/srv/models")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "cache:6379", cfg.Redis.Address())
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "/srv/models/rent_predictor.model", cfg.Models.RentPredictorPath)
}

func TestConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", d.ConnectionString())
}
