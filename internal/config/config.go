package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Models   ModelsConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Search   SearchConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// ModelsConfig points at the trained model artifacts
type ModelsConfig struct {
	Dir                 string
	RentPredictorPath   string
	ValueClassifierPath string
}

// RedisConfig holds Redis configuration. An empty Host disables the cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig holds Kafka/Redpanda configuration. No brokers disables publishing.
type KafkaConfig struct {
	Brokers        []string
	IngestionTopic string
	ConsumerGroup  string
}

// SearchConfig holds Meilisearch configuration. An empty Host disables search.
type SearchConfig struct {
	Host   string
	APIKey string
	Index  string
}

// MetricsConfig holds Prometheus settings for batch jobs
type MetricsConfig struct {
	PushgatewayURL string
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from a .env file (if present) and environment variables
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	modelsDir := v.GetString("models.dir")

	return &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			Host:            v.GetString("server.host"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			AllowedOrigins:  splitList(v.GetString("server.allowed_origins")),
		},
		Database: DatabaseConfig{
			Host:           v.GetString("db.host"),
			Port:           v.GetString("db.port"),
			User:           v.GetString("db.user"),
			Password:       v.GetString("db.password"),
			DBName:         v.GetString("db.name"),
			SSLMode:        v.GetString("db.sslmode"),
			MigrationsPath: v.GetString("db.migrations_path"),
		},
		Models: ModelsConfig{
			Dir:                 modelsDir,
			RentPredictorPath:   orDefault(v.GetString("models.rent_predictor_path"), modelsDir+"/rent_predictor.model"),
			ValueClassifierPath: orDefault(v.GetString("models.value_classifier_path"), modelsDir+"/value_classifier.model"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(v.GetString("kafka.brokers")),
			IngestionTopic: v.GetString("kafka.ingestion_topic"),
			ConsumerGroup:  v.GetString("kafka.consumer_group"),
		},
		Search: SearchConfig{
			Host:   v.GetString("meilisearch.host"),
			APIKey: v.GetString("meilisearch.key"),
			Index:  v.GetString("meilisearch.index"),
		},
		Metrics: MetricsConfig{
			PushgatewayURL: v.GetString("pushgateway.url"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", "*")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "listings")
	v.SetDefault("db.password", "listings")
	v.SetDefault("db.name", "rental_listings")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.migrations_path", "./db/migrations")

	v.SetDefault("models.dir", "./models")
	v.SetDefault("models.rent_predictor_path", "")
	v.SetDefault("models.value_classifier_path", "")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 5*time.Minute)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.ingestion_topic", "listings.ingested")
	v.SetDefault("kafka.consumer_group", "rental-listing-api")

	v.SetDefault("meilisearch.host", "")
	v.SetDefault("meilisearch.key", "")
	v.SetDefault("meilisearch.index", "listings")

	v.SetDefault("pushgateway.url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// Address returns the Redis address in host:port format
func (r *RedisConfig) Address() string {
	return r.Host + ":" + r.Port
}

// Enabled reports whether a Redis host was configured
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Enabled reports whether any Kafka broker was configured
func (k *KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Enabled reports whether a Meilisearch host was configured
func (s *SearchConfig) Enabled() bool {
	return s.Host != ""
}

// splitList splits a comma-separated list, dropping blanks
func splitList(list string) []string {
	parts := strings.Split(list, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
