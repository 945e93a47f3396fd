package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	API       APIConfig
	Extractor ExtractorConfig
	RateLimit RateLimitConfig
	Logger    LoggerConfig
	CORS      CORSConfig
}

// APIConfig holds HTTP server configuration
type APIConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int    // max inbound request body in bytes
	Environment  string // production, development
}

// ExtractorConfig holds yt-dlp invocation configuration
type ExtractorConfig struct {
	YtdlpPath       string
	MetadataTimeout time.Duration // metadata-only invocations
	StreamTimeout   time.Duration // streaming invocations
	Retries         int           // metadata attempt budget
}

// RateLimitConfig holds per-IP rate limiting configuration
type RateLimitConfig struct {
	Window      time.Duration
	GeneralMax  int // /api/info
	DownloadMax int // /api/download
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Dir    string // log directory, empty disables file output
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Origins string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			Port:         getEnvInt("PORT", 3000),
			Host:         getEnv("HOST", "0.0.0.0"),
			ReadTimeout:  getEnvDuration("API_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("API_WRITE_TIMEOUT", 3*time.Minute),
			BodyLimit:    getEnvInt("API_BODY_LIMIT", 10*1024*1024),
			Environment:  getEnv("APP_ENV", "development"),
		},
		Extractor: ExtractorConfig{
			YtdlpPath:       getEnv("YTDLP_PATH", "yt-dlp"),
			MetadataTimeout: getEnvDuration("YTDLP_METADATA_TIMEOUT", 30*time.Second),
			StreamTimeout:   getEnvDuration("YTDLP_STREAM_TIMEOUT", 2*time.Minute),
			Retries:         getEnvInt("YTDLP_RETRIES", 3),
		},
		RateLimit: RateLimitConfig{
			Window:      getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			GeneralMax:  getEnvInt("RATE_LIMIT_GENERAL", 100),
			DownloadMax: getEnvInt("RATE_LIMIT_DOWNLOAD", 20),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Dir:    getEnv("LOG_DIR", ""),
		},
		CORS: CORSConfig{
			Origins: getEnv("CORS_ORIGINS", "*"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.API.Port)
	}

	if c.API.BodyLimit < 1 {
		return fmt.Errorf("API_BODY_LIMIT must be >= 1")
	}

	if c.Extractor.YtdlpPath == "" {
		return fmt.Errorf("YTDLP_PATH is required")
	}

	if c.Extractor.Retries < 1 {
		return fmt.Errorf("YTDLP_RETRIES must be >= 1")
	}

	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}

	if c.RateLimit.GeneralMax < 1 || c.RateLimit.DownloadMax < 1 {
		return fmt.Errorf("rate limit maximums must be >= 1")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
// Error details are withheld from responses when it does.
func (c *Config) IsProduction() bool {
	return c.API.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
