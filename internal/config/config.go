package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Mongo settings
	MongoURI      string
	MongoDatabase string

	// RSS settings
	FeedsConfigPath string
	FetchInterval   time.Duration

	// Pipeline settings
	ProcessConcurrency int // parallel article-processing tasks per run
	ScrapeTimeout      time.Duration

	// Gemini settings
	GeminiAPIKey      string
	GeminiModel       string
	MaxEnrichRequests int // maximum Gemini requests per day (0 = unlimited)
	EnrichCacheTTL    time.Duration

	// Monitoring settings
	MonitoringEnabled bool
	MonitoringPort    string

	// App settings
	Debug         bool
	RetryAttempts int
	RetryDelay    time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "newsforge",
		FeedsConfigPath:    "configs/feeds.yaml",
		FetchInterval:      15 * time.Minute,
		ProcessConcurrency: 5,
		ScrapeTimeout:      10 * time.Second,
		GeminiModel:        "gemini-1.5-flash",
		MaxEnrichRequests:  200,
		EnrichCacheTTL:     48 * time.Hour,
		MonitoringPort:     "8080",
		RetryAttempts:      3,
		RetryDelay:         5 * time.Second,
	}

	// Load from environment
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.MongoURI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		cfg.MongoDatabase = v
	}
	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)

	if v := os.Getenv("FETCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.FetchInterval = d
		}
	}
	if v := os.Getenv("SCRAPE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ScrapeTimeout = d
		}
	}
	if v := os.Getenv("ENRICH_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.EnrichCacheTTL = d
		}
	}

	cfg.ProcessConcurrency = getEnvIntOrDefault("PROCESS_CONCURRENCY", cfg.ProcessConcurrency)
	cfg.MaxEnrichRequests = getEnvIntOrDefault("MAX_ENRICH_REQUESTS", cfg.MaxEnrichRequests)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		cfg.MonitoringEnabled = true
	}
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.MongoDatabase == "" {
		return fmt.Errorf("MONGO_DATABASE is required")
	}
	if c.FetchInterval <= 0 {
		return fmt.Errorf("FETCH_INTERVAL must be positive")
	}
	if c.ProcessConcurrency <= 0 {
		return fmt.Errorf("PROCESS_CONCURRENCY must be positive")
	}
	return nil
}
