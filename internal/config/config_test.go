package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBudgetsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tier1: 600\nmemories: 200\n"), 0o644))

	b, err := LoadBudgets(path)
	require.NoError(t, err)
	assert.Equal(t, 600, b.Tier1)
	assert.Equal(t, 200, b.Memories)

	// Unset fields keep their defaults.
	defaults := DefaultBudgets()
	assert.Equal(t, defaults.Tier2, b.Tier2)
	assert.Equal(t, defaults.Conversation, b.Conversation)
	assert.Equal(t, defaults.Total, b.Total)
}

func TestLoadBudgetsMissingFile(t *testing.T) {
	b, err := LoadBudgets("/does/not/exist.yaml")
	assert.Error(t, err)
	assert.Equal(t, DefaultBudgets(), b)
}

func TestLoadBudgetsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tier1: [not a number"), 0o644))

	_, err := LoadBudgets(path)
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VITACOACH_LLM_PROVIDER", "")
	t.Setenv("VITACOACH_MEMORY_CONFIDENCE_MIN", "")
	t.Setenv("VITACOACH_BUDGETS_FILE", "")

	cfg := Load()
	assert.Equal(t, ProviderOllama, cfg.LLMProvider)
	assert.Equal(t, 0.7, cfg.MemoryConfidenceMin)
	assert.Equal(t, 0.1, cfg.EvalSampleRate)
	assert.Equal(t, DefaultBudgets(), cfg.Budgets)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VITACOACH_LLM_PROVIDER", "anthropic")
	t.Setenv("VITACOACH_MEMORY_CONFIDENCE_MIN", "0.85")
	t.Setenv("VITACOACH_EVAL_SAMPLE_RATE", "0")
	t.Setenv("VITACOACH_LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, 0.85, cfg.MemoryConfidenceMin)
	assert.Zero(t, cfg.EvalSampleRate)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("garbage"))
}
