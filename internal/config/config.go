package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port        string
	DatabaseURL string // Messages and embedding records (PostgreSQL; MySQL supported for local dev)
	Version     string
	LogLevel    string

	// OpenAI / Azure OpenAI
	OpenAIKey                      string
	AzureOpenAIKey                 string
	AzureOpenAIEndpoint            string
	AzureOpenAIGPTDeployment       string
	AzureOpenAIEmbeddingDeployment string
	OpenAITimeout                  int // API timeout in seconds

	// Pipeline tunables. The overfetch factor and the quote-marker list are
	// inherited heuristics; they are configurable because nobody has shown
	// they are tuned optimally.
	EmbeddingDimension   int    // Expected vector dimension for integrity checks
	EmbedBatchSize       int    // Bulk-insert batch size for the embedding sweep
	EmbedTruncateChars   int    // Hard cut applied to body text before embedding
	ContextTruncateChars int    // Per-message cut when rendering grounding context
	RetrieveOverfetch    int    // Candidate multiplier before thread diversification
	InternalDomain       string // Email domain that marks a sender as Operator
	GenMaxTokens         int
	GenTemperature       float64

	// Optional qdrant ANN backend; empty host means in-process cosine scan
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string

	// SendGrid draft review notifications
	SendGridAPIKey string
	ReviewEmail    string // Operator inbox that receives generated drafts
	SenderEmail    string // From address for notification mail

	// Kubernetes sweep jobs
	SweepNamespace string
	SweepJobImage  string

	// Admin API auth
	AdminUsername string
	AdminPassword string
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Version:     getEnv("VERSION", "1.0.0"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		OpenAIKey:                      os.Getenv("OPENAI_API_KEY"),
		AzureOpenAIKey:                 os.Getenv("AZURE_OPENAI_KEY"),
		AzureOpenAIEndpoint:            os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureOpenAIGPTDeployment:       getEnv("AZURE_OPENAI_GPT_DEPLOYMENT", "gpt-4o-mini"),
		AzureOpenAIEmbeddingDeployment: getEnv("AZURE_OPENAI_EMBEDDING_DEPLOYMENT", "text-embedding-3-small"),
		OpenAITimeout:                  getEnvInt("OPENAI_TIMEOUT", 60),

		EmbeddingDimension:   getEnvInt("EMBEDDING_DIMENSION", 1536),
		EmbedBatchSize:       getEnvInt("EMBED_BATCH_SIZE", 50),
		EmbedTruncateChars:   getEnvInt("EMBED_TRUNCATE_CHARS", 500),
		ContextTruncateChars: getEnvInt("CONTEXT_TRUNCATE_CHARS", 300),
		RetrieveOverfetch:    getEnvInt("RETRIEVE_OVERFETCH", 3),
		InternalDomain:       os.Getenv("INTERNAL_DOMAIN"),
		GenMaxTokens:         getEnvInt("GEN_MAX_TOKENS", 500),
		GenTemperature:       getEnvFloat("GEN_TEMPERATURE", 0.7),

		QdrantHost:       os.Getenv("QDRANT_HOST"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "innbox_messages"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		ReviewEmail:    os.Getenv("REVIEW_EMAIL"),
		SenderEmail:    getEnv("SENDER_EMAIL", "drafts@innbox.local"),

		SweepNamespace: getEnv("SWEEP_NAMESPACE", "innbox"),
		SweepJobImage:  os.Getenv("SWEEP_JOB_IMAGE"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	return config
}

// UseAzureOpenAI reports whether Azure OpenAI is configured as the primary provider
func (c *Config) UseAzureOpenAI() bool {
	return c.AzureOpenAIKey != "" && c.AzureOpenAIEndpoint != ""
}

// HasOpenAIFallback reports whether the OpenAI platform is available as fallback
func (c *Config) HasOpenAIFallback() bool {
	return c.OpenAIKey != ""
}

// UseQdrant reports whether the qdrant ANN backend is configured
func (c *Config) UseQdrant() bool {
	return c.QdrantHost != ""
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as float with a default fallback
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	// Configure zerolog to output JSON without newlines
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Create logger with JSON output to stdout
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "innbox").
		Str("version", c.Version).
		Logger()

	// Set log level based on configuration
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
