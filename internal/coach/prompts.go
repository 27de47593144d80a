package coach

import (
	"strings"

	"github.com/jhartinger/vitacoach-go/internal/router"
)

// Personality names selectable per owner. The preference is persisted, not
// cached in-process, so every service instance resolves the same value.
const (
	PersonalitySupportive = "supportive"
	PersonalityDirect     = "direct"
	PersonalityPlayful    = "playful"

	DefaultPersonality = PersonalitySupportive
)

const basePersona = `You are Vita, a personal wellness coach. You help with workouts, intermittent fasting, nutrition, and staying motivated.

Ground rules:
- You are a coach, not a medical professional. Never give advice about medications, medical conditions, or symptoms.
- Keep answers short and conversational. One focused suggestion beats a list of ten.
- Use the status and history provided below when it is relevant; never invent data about the user.`

var personaStyles = map[string]string{
	PersonalitySupportive: "Tone: warm and encouraging. Celebrate small wins and frame setbacks as normal.",
	PersonalityDirect:     "Tone: direct and efficient. Skip pleasantries, lead with the recommendation, be specific.",
	PersonalityPlayful:    "Tone: light and playful. A little humor is welcome, but never at the user's expense.",
}

// NormalizePersonality maps unknown names to the default.
func NormalizePersonality(name string) string {
	if _, ok := personaStyles[name]; ok {
		return name
	}
	return DefaultPersonality
}

// PromptInput feeds the system-prompt segments for one turn.
type PromptInput struct {
	Personality         string
	Skills              []string
	ConversationSummary string
	Memories            string
	Stats               string
	HealthWarnings      string
}

// A segment renders one part of the system prompt, returning "" when its
// input is empty so the part is omitted entirely.
type segment func(in PromptInput) string

// Segments are evaluated in this fixed order and concatenated. The list is
// static: no dynamic registration.
var segments = []segment{
	personaSegment,
	summarySegment,
	memoriesSegment,
	statsSegment,
	healthSegment,
}

// ComposeSystemPrompt concatenates the non-empty segments with blank lines.
func ComposeSystemPrompt(in PromptInput) string {
	var parts []string
	for _, seg := range segments {
		if s := seg(in); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func personaSegment(in PromptInput) string {
	parts := []string{basePersona, personaStyles[NormalizePersonality(in.Personality)]}
	for _, name := range in.Skills {
		if p := router.SkillPrompt(name); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

func summarySegment(in PromptInput) string {
	if in.ConversationSummary == "" {
		return ""
	}
	return "Conversation so far:\n" + in.ConversationSummary
}

func memoriesSegment(in PromptInput) string {
	if in.Memories == "" {
		return ""
	}
	return "What you know about this user:\n" + in.Memories
}

func statsSegment(in PromptInput) string {
	if in.Stats == "" {
		return ""
	}
	return in.Stats
}

func healthSegment(in PromptInput) string {
	if in.HealthWarnings == "" {
		return ""
	}
	return in.HealthWarnings
}

const titleSystemPrompt = `Write a short title (at most six words) for a coaching conversation that starts with the user message below. Return only the title, no quotes.`

const summarySystemPrompt = `Summarize the coaching conversation below in at most four sentences. Capture the user's situation, what was advised, and any open follow-ups. Write in third person.`
