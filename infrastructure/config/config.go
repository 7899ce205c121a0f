package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Graph store configuration
	Neo4jURI      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string

	// Query timeouts against the graph store
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Model provider configuration
	OllamaBaseURL  string
	EmbeddingModel string
	ChatModel      string
	ModelTimeout   time.Duration

	// Embedding rate budget: requests per window
	EmbedRateLimit  int
	EmbedRateWindow time.Duration

	// Bulk import worker pool size
	ImportConcurrency int

	// Pause between consecutive similarity edge writes in a link pass
	LinkPairDelay time.Duration

	// Background task deadline
	TaskTimeout time.Duration

	// Default similarity threshold for the vector search pass
	SearchThreshold float64

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Feature flags
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUsername: getEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", "neo4j"),

		ReadTimeout:  getEnvDuration("GRAPH_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvDuration("GRAPH_WRITE_TIMEOUT", 15*time.Second),

		OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		ChatModel:      getEnv("CHAT_MODEL", "llama3.1"),
		ModelTimeout:   getEnvDuration("MODEL_TIMEOUT", 60*time.Second),

		EmbedRateLimit:  getEnvInt("EMBED_RATE_LIMIT", 60),
		EmbedRateWindow: getEnvDuration("EMBED_RATE_WINDOW", time.Minute),

		ImportConcurrency: getEnvInt("IMPORT_CONCURRENCY", 4),
		LinkPairDelay:     getEnvDuration("LINK_PAIR_DELAY", 200*time.Millisecond),
		TaskTimeout:       getEnvDuration("TASK_TIMEOUT", 2*time.Minute),

		SearchThreshold: getEnvFloat("SEARCH_THRESHOLD", 0.2),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "notelink-backend"),

		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.Neo4jPassword == "" {
			return fmt.Errorf("NEO4J_PASSWORD is required in production")
		}
	}
	if c.SearchThreshold < 0 || c.SearchThreshold >= 1 {
		return fmt.Errorf("SEARCH_THRESHOLD must be in [0, 1), got %v", c.SearchThreshold)
	}
	if c.EmbedRateLimit < 1 {
		return fmt.Errorf("EMBED_RATE_LIMIT must be at least 1")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
