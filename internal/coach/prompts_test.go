package coach

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhartinger/vitacoach-go/internal/router"
)

func TestComposeSystemPromptFixedOrder(t *testing.T) {
	got := ComposeSystemPrompt(PromptInput{
		Personality:         PersonalitySupportive,
		Skills:              []string{"workout"},
		ConversationSummary: "User wants to train for a 10k.",
		Memories:            "Facts:\n- Works night shifts",
		Stats:               "Current status:\n- Workouts today: 1",
		HealthWarnings:      "Health notes: low iron flagged.",
	})

	order := []string{
		"You are Vita",
		personaStyles[PersonalitySupportive],
		router.SkillPrompt("workout"),
		"Conversation so far:",
		"What you know about this user:",
		"Current status:",
		"Health notes:",
	}
	last := -1
	for _, marker := range order {
		idx := strings.Index(got, marker)
		require.GreaterOrEqual(t, idx, 0, "missing %q", marker)
		assert.Greater(t, idx, last, "%q out of order", marker)
		last = idx
	}
}

func TestComposeSystemPromptOmitsEmptySegments(t *testing.T) {
	got := ComposeSystemPrompt(PromptInput{Personality: PersonalityDirect})

	assert.Contains(t, got, personaStyles[PersonalityDirect])
	assert.NotContains(t, got, "Conversation so far:")
	assert.NotContains(t, got, "What you know about this user:")
	assert.False(t, strings.Contains(got, "\n\n\n"), "no blank segments")
}

func TestNormalizePersonality(t *testing.T) {
	assert.Equal(t, PersonalityPlayful, NormalizePersonality("playful"))
	assert.Equal(t, DefaultPersonality, NormalizePersonality("sarcastic"))
	assert.Equal(t, DefaultPersonality, NormalizePersonality(""))
}

func TestUnknownSkillContributesNothing(t *testing.T) {
	with := ComposeSystemPrompt(PromptInput{Skills: []string{"astrology"}})
	without := ComposeSystemPrompt(PromptInput{})
	assert.Equal(t, without, with)
}
