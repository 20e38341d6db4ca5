package config

import (
	"fmt"
	"time"

	"github.com/RishiKendai/plagcheck/internal/configs/env"
	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/RishiKendai/plagcheck/internal/textsim"
)

const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"

	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"

	defaultRapidAPIHost = "plagiarism-checker-and-auto-citation-generator-multi-lingual.p.rapidapi.com"
)

// Config holds all configuration for the application
type Config struct {
	// Document store
	StoreDriver string

	// MongoDB
	MongoURI        string
	MongoDBName     string
	MongoCollection string
	MongoUsername   string
	MongoPassword   string

	// Postgres
	PostgresDSN string

	// RapidAPI
	RapidAPIKey      string
	RapidAPIHost     string
	RapidAPIURL      string
	RapidAPILanguage string
	RapidAPIRPS      float64
	RemoteTimeout    time.Duration

	// Check defaults
	ShingleSize      int
	MinSimilarity    float64
	CheckLocal       bool
	CheckRemote      bool
	IncludeCitations bool
	ScrapeSources    bool

	// Shingle cache
	ShingleCache    string
	ShingleCacheTTL time.Duration

	// Redis
	RedisHost               string
	RedisPassword           string
	RedisStreamKey          string
	RedisResultsKey         string
	RedisConsumerGroup      string
	RedisDeadLetterKey      string
	StreamRetentionDuration time.Duration

	// Concurrency
	MaxConcurrentChecks int

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.StoreDriver = env.GetEnv("STORE_DRIVER", StoreDriverMongo)

	// MongoDB
	cfg.MongoURI = env.GetEnv("MONGO_URI", "mongodb://localhost:27017")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "plagiarism_db")
	cfg.MongoCollection = env.GetEnv("MONGO_COLLECTION", "documents")
	cfg.MongoUsername = env.GetEnv("MONGO_USERNAME", "")
	cfg.MongoPassword = env.GetEnv("MONGO_PASSWORD", "")

	// Postgres
	cfg.PostgresDSN = env.GetEnv("POSTGRES_DSN", "")

	// RapidAPI
	cfg.RapidAPIKey = env.GetEnv("RAPIDAPI_KEY", "")
	cfg.RapidAPIHost = env.GetEnv("RAPIDAPI_HOST", defaultRapidAPIHost)
	cfg.RapidAPIURL = env.GetEnv("RAPIDAPI_URL", fmt.Sprintf("https://%s/plagiarism", cfg.RapidAPIHost))
	cfg.RapidAPILanguage = env.GetEnv("RAPIDAPI_LANGUAGE", "en")
	cfg.RapidAPIRPS = env.GetEnvFloat("RAPIDAPI_RPS", 1.0)
	timeoutSeconds := env.GetEnvInt("REMOTE_TIMEOUT_SECONDS", 60)
	cfg.RemoteTimeout = time.Duration(timeoutSeconds) * time.Second

	// Check defaults
	cfg.ShingleSize = env.GetEnvInt("SHINGLE_SIZE", textsim.DefaultShingleSize)
	cfg.MinSimilarity = env.GetEnvFloat("MIN_SIMILARITY", models.DefaultMinSimilarity)
	cfg.CheckLocal = env.GetEnvBool("CHECK_LOCAL", true)
	cfg.CheckRemote = env.GetEnvBool("CHECK_REMOTE", false)
	cfg.IncludeCitations = env.GetEnvBool("INCLUDE_CITATIONS", false)
	cfg.ScrapeSources = env.GetEnvBool("SCRAPE_SOURCES", false)

	// Shingle cache
	cfg.ShingleCache = env.GetEnv("SHINGLE_CACHE", CacheMemory)
	ttlMinutes := env.GetEnvInt("SHINGLE_CACHE_TTL_MINUTES", 60)
	cfg.ShingleCacheTTL = time.Duration(ttlMinutes) * time.Minute

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "plagiarism:requests")
	cfg.RedisResultsKey = env.GetEnv("REDIS_RESULTS_KEY", "plagiarism:results")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "plagiarism:group")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "plagiarism:dlq")
	retentionHours := env.GetEnvInt("STREAM_RETENTION_DURATION", 24)
	cfg.StreamRetentionDuration = time.Duration(retentionHours) * time.Hour

	// Concurrency
	cfg.MaxConcurrentChecks = env.GetEnvInt("MAX_CONCURRENT_CHECKS", 0)

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")

	return cfg, nil
}

// CheckOptions returns the configured defaults for a check.
func (c *Config) CheckOptions() models.CheckOptions {
	return models.CheckOptions{
		CheckLocal:       c.CheckLocal,
		CheckRemote:      c.CheckRemote,
		MinSimilarity:    c.MinSimilarity,
		ShingleSize:      c.ShingleSize,
		IncludeCitations: c.IncludeCitations,
		ScrapeSources:    c.ScrapeSources,
	}
}

// Validate checks value ranges. Missing credentials are not an error here:
// they surface as a configuration error of the strategy that needs them.
func (c *Config) Validate() error {
	if c.StoreDriver != StoreDriverMongo && c.StoreDriver != StoreDriverPostgres {
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverMongo, StoreDriverPostgres)
	}
	if err := c.CheckOptions().Validate(); err != nil {
		return err
	}
	if c.RapidAPIRPS <= 0 {
		return fmt.Errorf("RAPIDAPI_RPS must be greater than 0")
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("REMOTE_TIMEOUT_SECONDS must be greater than 0")
	}
	switch c.ShingleCache {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("SHINGLE_CACHE must be one of %q, %q, %q", CacheMemory, CacheRedis, CacheNone)
	}
	if c.ShingleCache != CacheNone && c.ShingleCacheTTL <= 0 {
		return fmt.Errorf("SHINGLE_CACHE_TTL_MINUTES must be greater than 0")
	}
	if c.MaxConcurrentChecks < 0 {
		return fmt.Errorf("MAX_CONCURRENT_CHECKS must not be negative")
	}
	if c.StreamRetentionDuration <= 0 {
		return fmt.Errorf("STREAM_RETENTION_DURATION must be greater than 0")
	}
	return nil
}
