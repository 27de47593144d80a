package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// Budgets holds the per-part token ceilings for context assembly.
// The Total ceiling is advisory: it is reported in diagnostics but never
// enforced after the per-part decisions.
type Budgets struct {
	Tier1        int `yaml:"tier1"`
	Tier2        int `yaml:"tier2"`
	Memories     int `yaml:"memories"`
	Conversation int `yaml:"conversation"`
	Total        int `yaml:"total"`
}

// DefaultBudgets returns the standard context budgets.
func DefaultBudgets() Budgets {
	return Budgets{
		Tier1:        400,
		Tier2:        300,
		Memories:     350,
		Conversation: 500,
		Total:        1200,
	}
}

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// LLM
	LLMProvider     Provider
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string
	BedrockModelID  string

	// Wellness backend (fasting status, streaks, biomarkers, ...)
	WellnessAPIURL string
	WellnessAPIKey string

	// Server
	ServerPort string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Context assembly
	Budgets     Budgets
	BudgetsFile string

	// Memory extraction
	MemoryConfidenceMin float64

	// Quality evaluation sampling (0.0 disables)
	EvalSampleRate float64
}

// Load reads configuration from environment variables.
// If VITACOACH_BUDGETS_FILE points to a YAML file, context budgets are read
// from it; otherwise defaults apply.
func Load() Config {
	cfg := Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "vitacoach"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "coach"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:     Provider(getEnv("VITACOACH_LLM_PROVIDER", string(ProviderOllama))),
		LLMModel:        getEnv("VITACOACH_LLM_MODEL", "llama3.1"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		BedrockModelID:  getEnv("VITACOACH_BEDROCK_MODEL", "anthropic.claude-3-haiku-20240307-v1:0"),

		WellnessAPIURL: getEnv("VITACOACH_WELLNESS_URL", "http://localhost:8090"),
		WellnessAPIKey: os.Getenv("VITACOACH_WELLNESS_KEY"),

		ServerPort: getEnv("VITACOACH_PORT", "8474"),

		LogFile:  getEnv("VITACOACH_LOG_FILE", "/tmp/vitacoach.log"),
		LogLevel: parseLogLevel(getEnv("VITACOACH_LOG_LEVEL", "INFO")),

		Budgets:     DefaultBudgets(),
		BudgetsFile: os.Getenv("VITACOACH_BUDGETS_FILE"),

		MemoryConfidenceMin: getEnvFloat("VITACOACH_MEMORY_CONFIDENCE_MIN", 0.7),
		EvalSampleRate:      getEnvFloat("VITACOACH_EVAL_SAMPLE_RATE", 0.1),
	}

	if cfg.BudgetsFile != "" {
		if b, err := LoadBudgets(cfg.BudgetsFile); err != nil {
			slog.Warn("failed to load budgets file, using defaults", "file", cfg.BudgetsFile, "error", err)
		} else {
			cfg.Budgets = b
		}
	}

	return cfg
}

// LoadBudgets reads context budgets from a YAML file.
// Missing fields keep their default values.
func LoadBudgets(path string) (Budgets, error) {
	b := DefaultBudgets()

	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("read budgets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("parse budgets file: %w", err)
	}
	return b, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
