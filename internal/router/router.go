// Package router selects coaching skills and context query types for a
// message via keyword scoring. Selection is pure data flow: no side effects,
// no failure path.
package router

import (
	"sort"
	"strings"
)

// MaxSelected caps how many skills / query types one message activates.
const MaxSelected = 2

// QueryGeneral is the fallback query type when nothing scores.
const QueryGeneral = "general"

// Skill is a named, independently activatable prompt fragment of
// specialized coaching knowledge.
type Skill struct {
	Name     string
	Triggers []string
	Prompt   string
}

// QueryType names a class of Tier-2 context data to fetch.
type QueryType struct {
	Name     string
	Triggers []string
}

// skillRegistry is fixed; insertion order breaks score ties.
var skillRegistry = []Skill{
	{
		Name:     "workout",
		Triggers: []string{"workout", "exercise", "training", "hiit", "cardio", "strength", "gym", "squat", "run"},
		Prompt: "Workout coaching: suggest concrete exercises with sets, reps, and rest periods. " +
			"Scale intensity to the user's recent training load and recovery. Prefer movements that " +
			"match their available equipment and flag form cues for compound lifts.",
	},
	{
		Name:     "fasting",
		Triggers: []string{"fast", "fasting", "eating window", "intermittent", "16:8", "omad", "break my fast"},
		Prompt: "Fasting coaching: reason about eating windows, fast durations, and how training " +
			"interacts with fasted states. Encourage gentle adjustments over drastic protocol changes " +
			"and remind the user to hydrate during fasts.",
	},
	{
		Name:     "nutrition",
		Triggers: []string{"eat", "meal", "protein", "recipe", "calorie", "nutrition", "snack", "diet"},
		Prompt: "Nutrition coaching: build suggestions around whole foods and the user's logged " +
			"preferences. Give rough macro framing rather than precise numbers and offer one or two " +
			"concrete meal ideas instead of long lists.",
	},
	{
		Name:     "motivation",
		Triggers: []string{"motivat", "streak", "habit", "stuck", "give up", "lazy", "routine", "consistency"},
		Prompt: "Motivation coaching: acknowledge effort before advice. Anchor encouragement in the " +
			"user's actual streaks and progress data, and propose the smallest next step that keeps " +
			"momentum rather than a grand plan.",
	},
	{
		Name:     "research",
		Triggers: []string{"study", "studies", "research", "evidence", "science", "proven", "paper"},
		Prompt: "Research skill: when citing findings, be explicit about the strength of evidence " +
			"and avoid overstating single studies. Translate findings into practical framing for a " +
			"non-scientist.",
	},
}

// queryTypeRegistry is fixed; insertion order breaks score ties.
var queryTypeRegistry = []QueryType{
	{Name: "workout", Triggers: []string{"workout", "exercise", "training", "hiit", "gym", "lift"}},
	{Name: "progress", Triggers: []string{"progress", "weight", "trend", "losing", "gaining", "plateau"}},
	{Name: "fasting", Triggers: []string{"fast", "fasting", "eating window", "hungry"}},
	{Name: "nutrition", Triggers: []string{"eat", "meal", "protein", "calorie", "recipe"}},
	{Name: "biometrics", Triggers: []string{"biomarker", "glucose", "ketone", "blood", "lab", "hrv"}},
	{Name: "recovery", Triggers: []string{"recovery", "sore", "sleep", "rest day", "tired", "fatigue"}},
}

// Result carries the selected skill and query-type names.
type Result struct {
	Skills     []string
	QueryTypes []string
}

// Route scores the message against both registries and returns up to
// MaxSelected names each. When no query type scores, QueryTypes contains the
// single general marker; when no skill scores, Skills is empty.
func Route(message string) Result {
	msg := strings.ToLower(message)

	skills := rank(msg, len(skillRegistry), func(i int) []string { return skillRegistry[i].Triggers },
		func(i int) string { return skillRegistry[i].Name })

	queryTypes := rank(msg, len(queryTypeRegistry), func(i int) []string { return queryTypeRegistry[i].Triggers },
		func(i int) string { return queryTypeRegistry[i].Name })

	if len(queryTypes) == 0 {
		queryTypes = []string{QueryGeneral}
	}

	return Result{Skills: skills, QueryTypes: queryTypes}
}

// SkillPrompt returns the prompt fragment for a skill name, or "" if unknown.
func SkillPrompt(name string) string {
	for _, s := range skillRegistry {
		if s.Name == name {
			return s.Prompt
		}
	}
	return ""
}

// SkillNames returns the registry's skill names in insertion order.
func SkillNames() []string {
	names := make([]string, len(skillRegistry))
	for i, s := range skillRegistry {
		names[i] = s.Name
	}
	return names
}

type scored struct {
	name  string
	score int
}

// rank scores every candidate and returns the top names, descending by
// score with registry insertion order breaking ties. Zero scores drop out.
func rank(msg string, n int, triggers func(int) []string, name func(int) string) []string {
	candidates := make([]scored, 0, n)
	for i := 0; i < n; i++ {
		score := 0
		for _, trig := range triggers(i) {
			if strings.Contains(msg, trig) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{name: name(i), score: score})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	if len(candidates) > MaxSelected {
		candidates = candidates[:MaxSelected]
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.name
	}
	return names
}
