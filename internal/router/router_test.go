package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name           string
		in             string
		wantSkills     []string
		wantQueryTypes []string
	}{
		{
			name:           "workout message",
			in:             "Suggest a HIIT workout",
			wantSkills:     []string{"workout"},
			wantQueryTypes: []string{"workout"},
		},
		{
			name:           "nothing matches",
			in:             "hello there!",
			wantSkills:     nil,
			wantQueryTypes: []string{QueryGeneral},
		},
		{
			name: "fasting plus nutrition",
			// "eat" appears inside "eating window" too, boosting nutrition
			in:             "when should I eat to keep my eating window at 16:8",
			wantSkills:     []string{"fasting", "nutrition"},
			wantQueryTypes: []string{"fasting", "nutrition"},
		},
		{
			name: "three skills trim to two",
			// nutrition and motivation both score 2; the earlier registry
			// entry (nutrition) wins the tie, workout's 1 drops off
			in:             "I need motivation to keep my workout streak and eat more protein",
			wantSkills:     []string{"nutrition", "motivation"},
			wantQueryTypes: []string{"nutrition", "workout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Route(tt.in)
			if tt.wantSkills == nil {
				assert.Empty(t, got.Skills)
			} else {
				assert.Equal(t, tt.wantSkills, got.Skills)
			}
			assert.Equal(t, tt.wantQueryTypes, got.QueryTypes)
		})
	}
}

func TestRouteNeverExceedsLimit(t *testing.T) {
	// Hits triggers of workout, fasting, nutrition, motivation, and research
	msg := "research says a workout while fasting helps; I want meal ideas and a streak habit"
	got := Route(msg)

	assert.LessOrEqual(t, len(got.Skills), MaxSelected)
	assert.LessOrEqual(t, len(got.QueryTypes), MaxSelected)
}

func TestRouteTieBreakIsRegistryOrder(t *testing.T) {
	// One trigger each for workout ("gym") and fasting ("omad"); workout is
	// registered first and must win the tie.
	got := Route("gym before omad?")

	assert.Equal(t, []string{"workout", "fasting"}, got.Skills)
}

func TestRouteRanksByScore(t *testing.T) {
	// Two fasting triggers ("fasting", "eating window") vs one workout
	// trigger ("gym"): fasting outranks workout despite registry order.
	got := Route("fasting with a tight eating window before gym")

	assert.Equal(t, []string{"fasting", "workout"}, got.Skills)
}

func TestSkillPrompt(t *testing.T) {
	assert.NotEmpty(t, SkillPrompt("workout"))
	assert.NotEmpty(t, SkillPrompt("research"))
	assert.Empty(t, SkillPrompt("no-such-skill"))
}
