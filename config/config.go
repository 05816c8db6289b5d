package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries service credentials plus every pipeline tunable. Nothing
// in the pipeline packages reads the environment directly.
type Config struct {
	Port              string
	DatabaseURL       string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	PineconeAPIKey    string
	PineconeIndexName string
	OllamaServerURL   string
	OllamaModel       string

	// Syllabus pipeline bounds.
	MinConceptsPerLevel int
	MaxConceptsPerLevel int
	MaxAddRounds        int

	// Structured LLM call timeouts.
	GenerationTimeout time.Duration
	ProbeTimeout      time.Duration

	// Constrained prompt budgets.
	MaxPromptTokens int
	SystemRatio     float64
	HistoryRatio    float64

	// Semantic history retrieval.
	HistoryK         int
	HistoryMaxTokens int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[INFO] No .env file found, using environment variables")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DB_URL"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		PineconeAPIKey:    os.Getenv("PINECONE_API_KEY"),
		PineconeIndexName: getEnv("PINECONE_INDEX_NAME", "coursegen-history-index"),
		OllamaServerURL:   getEnv("OLLAMA_SERVER_URL", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llama3.2"),

		MinConceptsPerLevel: getEnvInt("MIN_CONCEPTS_PER_LEVEL", 6),
		MaxConceptsPerLevel: getEnvInt("MAX_CONCEPTS_PER_LEVEL", 10),
		MaxAddRounds:        getEnvInt("MAX_ADD_ROUNDS", 3),

		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 120*time.Second),
		ProbeTimeout:      getEnvDuration("PROBE_TIMEOUT", 2*time.Second),

		MaxPromptTokens: getEnvInt("MAX_PROMPT_TOKENS", 150),
		SystemRatio:     getEnvFloat("PROMPT_SYSTEM_RATIO", 0.4),
		HistoryRatio:    getEnvFloat("PROMPT_HISTORY_RATIO", 0.6),

		HistoryK:         getEnvInt("HISTORY_K", 5),
		HistoryMaxTokens: getEnvInt("HISTORY_MAX_TOKENS", 90),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[WARN] Invalid integer for %s: %q, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("[WARN] Invalid float for %s: %q, using default %g", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("[WARN] Invalid duration for %s: %q, using default %s", key, value, fallback)
		return fallback
	}
	return parsed
}
