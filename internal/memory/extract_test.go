package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhartinger/vitacoach-go/internal/models"
)

func TestParseCandidatesToleratesFencesAndProse(t *testing.T) {
	raw := "Sure, here is what I found:\n```json\n" +
		`[{"memory_type": "constraint", "category": "injury", "content": "Left knee injury", "confidence": 0.85}]` +
		"\n```\nLet me know if you need more."

	cands, err := parseCandidates(raw)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "constraint", cands[0].MemoryType)
	assert.Equal(t, "Left knee injury", cands[0].Content)
	assert.Equal(t, 0.85, cands[0].Confidence)
}

func TestParseCandidatesMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"I could not find any durable facts.",
		"[{broken json",
		"]...[",
	} {
		_, err := parseCandidates(raw)
		assert.Error(t, err, "raw: %q", raw)
	}
}

func TestExtractAndStoreFiltersLowConfidence(t *testing.T) {
	repo := &fakeRepo{}
	gen := &fakeGenerator{response: `[
		{"memory_type": "preference", "category": "workout_preference", "content": "Prefers morning workouts", "confidence": 0.9},
		{"memory_type": "fact", "category": "general", "content": "Maybe owns a bike", "confidence": 0.4},
		{"memory_type": "goal", "category": "fitness_goal", "content": "", "confidence": 0.95}
	]`}
	store := newTestStore(repo, gen)

	stored := store.ExtractAndStore(context.Background(), "owner-1", "", []models.Message{
		{Role: models.RoleHuman, Content: "I like to train before work"},
	})

	assert.Equal(t, 1, stored)
	require.Len(t, repo.memories, 1)
	assert.Equal(t, models.KindPreference, repo.memories[0].Kind)
	assert.Equal(t, models.CategoryWorkoutPreference, repo.memories[0].Category)
}

func TestExtractAndStoreSwallowsModelFailure(t *testing.T) {
	repo := &fakeRepo{}
	gen := &fakeGenerator{err: assert.AnError}
	store := newTestStore(repo, gen)

	stored := store.ExtractAndStore(context.Background(), "owner-1", "", []models.Message{
		{Role: models.RoleHuman, Content: "hello"},
	})

	assert.Zero(t, stored)
	assert.Empty(t, repo.memories)
}

func TestExtractCapsContentLength(t *testing.T) {
	long := strings.Repeat("x", models.MaxMemoryContentLen+100)
	repo := &fakeRepo{}
	gen := &fakeGenerator{response: `[{"memory_type": "fact", "category": "general", "content": "` + long + `", "confidence": 0.9}]`}
	store := newTestStore(repo, gen)

	store.ExtractAndStore(context.Background(), "owner-1", "", []models.Message{
		{Role: models.RoleHuman, Content: "long story"},
	})

	require.Len(t, repo.memories, 1)
	assert.Len(t, repo.memories[0].Content, models.MaxMemoryContentLen)
}

func TestWordOverlapSimilar(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "left knee injury", "left knee injury", true},
		{"superset", "left knee injury limits squats", "left knee injury", true},
		{"disjoint", "vegetarian diet", "owns a squat rack", false},
		{"case insensitive", "LEFT KNEE injury", "left knee Injury", true},
		{"empty", "", "left knee injury", false},
		{"exactly at threshold is not duplicate", "a b c d e", "a b c x y", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WordOverlapSimilar(tt.a, tt.b))
		})
	}
}
