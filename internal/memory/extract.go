package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jhartinger/vitacoach-go/internal/models"
)

const (
	// maxExtractionTurns caps how much conversation the extractor sees.
	maxExtractionTurns = 20
	// maxTurnChars truncates each turn before it enters the prompt.
	maxTurnChars = 300
)

const extractionSystemPrompt = `You extract durable facts about the user from a wellness-coaching conversation.

Return a JSON array. Each element:
  {"memory_type": "fact|preference|goal|constraint",
   "category": "injury|schedule|equipment|workout_preference|fitness_goal|dietary|fasting_routine|motivation|general",
   "content": "one concise sentence about the user",
   "confidence": 0.0-1.0}

Guidelines:
- Only durable information worth remembering across sessions.
- Skip small talk, one-off questions, and anything about the assistant.
- Confidence reflects how explicitly the user stated it.
- Return [] when nothing qualifies.`

// candidate is one record proposed by the extraction model.
type candidate struct {
	MemoryType string  `json:"memory_type"`
	Category   string  `json:"category"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// extract asks the model for memory candidates from recent turns.
// Malformed model output yields an empty slice, never an error: extraction
// is best-effort by contract.
func (s *Store) extract(ctx context.Context, msgs []models.Message) []candidate {
	if len(msgs) == 0 {
		return nil
	}
	if len(msgs) > maxExtractionTurns {
		msgs = msgs[len(msgs)-maxExtractionTurns:]
	}

	var b strings.Builder
	for _, m := range msgs {
		content := m.Content
		if len(content) > maxTurnChars {
			content = content[:maxTurnChars]
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Role, content)
	}

	raw, err := s.model.GenerateWithSystem(ctx, extractionSystemPrompt, b.String())
	if err != nil {
		s.logger.Warn("memory extraction call failed", "error", err)
		return nil
	}

	cands, err := parseCandidates(raw)
	if err != nil {
		s.logger.Warn("memory extraction output unparseable", "error", err)
		return nil
	}

	kept := cands[:0]
	for _, c := range cands {
		if c.Confidence < s.confidenceMin || strings.TrimSpace(c.Content) == "" {
			continue
		}
		if len(c.Content) > models.MaxMemoryContentLen {
			c.Content = c.Content[:models.MaxMemoryContentLen]
		}
		kept = append(kept, c)
	}
	return kept
}

// parseCandidates tolerates code fences and prose around the JSON array.
func parseCandidates(raw string) ([]candidate, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in output")
	}

	var cands []candidate
	if err := json.Unmarshal([]byte(raw[start:end+1]), &cands); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}
	return cands, nil
}
