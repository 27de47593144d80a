// Package memory extracts, deduplicates, and retrieves durable facts about
// an owner across coaching sessions.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jhartinger/vitacoach-go/internal/metrics"
	"github.com/jhartinger/vitacoach-go/internal/models"
)

// Repository is the persistence surface the store needs.
// *db.Client satisfies it.
type Repository interface {
	InsertMemory(ctx context.Context, m models.Memory) (*models.Memory, error)
	ActiveMemories(ctx context.Context, owner string, category models.MemoryCategory) ([]models.Memory, error)
	ActiveMemoriesByCategories(ctx context.Context, owner string, categories []models.MemoryCategory) ([]models.Memory, error)
	TopMemories(ctx context.Context, owner string, limit int) ([]models.Memory, error)
	RaiseMemoryConfidence(ctx context.Context, id string, confidence float64) error
	VerifyMemory(ctx context.Context, id string) error
	DeactivateMemory(ctx context.Context, id string) error
}

// Generator is the LLM surface used for extraction.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// fallbackLimit is how many memories retrieval returns when no skill maps
// to a category.
const fallbackLimit = 5

// skillCategories maps each skill to the memory categories it reads.
var skillCategories = map[string][]models.MemoryCategory{
	"workout":    {models.CategoryWorkoutPreference, models.CategoryInjury, models.CategoryEquipment, models.CategorySchedule},
	"fasting":    {models.CategoryFastingRoutine, models.CategorySchedule, models.CategoryDietary},
	"nutrition":  {models.CategoryDietary, models.CategoryFitnessGoal},
	"motivation": {models.CategoryMotivation, models.CategoryFitnessGoal},
}

// Store is the deduplicating long-term memory store.
type Store struct {
	repo          Repository
	model         Generator
	similar       SimilarFunc
	confidenceMin float64
	logger        *slog.Logger
	collector     *metrics.Collector
}

// NewStore creates a memory store with the word-overlap comparator.
func NewStore(repo Repository, model Generator, confidenceMin float64, logger *slog.Logger, collector *metrics.Collector) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		repo:          repo,
		model:         model,
		similar:       WordOverlapSimilar,
		confidenceMin: confidenceMin,
		logger:        logger,
		collector:     collector,
	}
}

// WithSimilarity replaces the duplicate comparator.
func (s *Store) WithSimilarity(fn SimilarFunc) *Store {
	s.similar = fn
	return s
}

// ExtractAndStore runs extraction over recent turns and stores the results.
// Best-effort by contract: every failure is logged and swallowed so the
// enclosing turn is never affected. Returns how many records were stored or
// updated.
func (s *Store) ExtractAndStore(ctx context.Context, owner, sessionID string, msgs []models.Message) int {
	start := time.Now()
	defer func() {
		if s.collector != nil {
			s.collector.RecordTiming(metrics.OpMemoryExtract, time.Since(start))
		}
	}()

	stored := 0
	for _, c := range s.extract(ctx, msgs) {
		m := models.Memory{
			Owner:      owner,
			Kind:       models.ParseMemoryKind(c.MemoryType),
			Category:   models.ParseMemoryCategory(c.Category),
			Content:    c.Content,
			Confidence: c.Confidence,
		}
		if sessionID != "" {
			m.Session = &sessionID
		}

		action, err := s.Save(ctx, m)
		if err != nil {
			s.logger.Warn("memory save failed", "owner", owner, "category", m.Category, "error", err)
			continue
		}
		if action != ActionSkipped {
			stored++
		}
	}

	if stored > 0 {
		s.logger.Info("memories extracted", "owner", owner, "stored", stored)
	}
	return stored
}

// Save actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionSkipped = "skipped"
)

// Save stores one memory with deduplication against active records in the
// same (owner, category) pair. A duplicate with higher confidence raises
// the stored confidence; stored content is never overwritten.
func (s *Store) Save(ctx context.Context, m models.Memory) (string, error) {
	existing, err := s.repo.ActiveMemories(ctx, m.Owner, m.Category)
	if err != nil {
		return "", fmt.Errorf("load existing memories: %w", err)
	}

	for _, e := range existing {
		if !s.similar(m.Content, e.Content) {
			continue
		}
		if m.Confidence <= e.Confidence {
			return ActionSkipped, nil
		}
		id, err := models.RecordIDString(e.ID)
		if err != nil {
			return "", fmt.Errorf("duplicate id: %w", err)
		}
		if err := s.repo.RaiseMemoryConfidence(ctx, id, m.Confidence); err != nil {
			return "", fmt.Errorf("raise confidence: %w", err)
		}
		return ActionUpdated, nil
	}

	if _, err := s.repo.InsertMemory(ctx, m); err != nil {
		return "", fmt.Errorf("insert memory: %w", err)
	}
	return ActionCreated, nil
}

// ForSkills returns the active memories relevant to the given skills via
// the skill-to-category mapping. When the skills map to no categories, the
// owner's top records by confidence are returned instead.
func (s *Store) ForSkills(ctx context.Context, owner string, skills []string) ([]models.Memory, error) {
	var categories []models.MemoryCategory
	seen := map[models.MemoryCategory]bool{}
	for _, skill := range skills {
		for _, cat := range skillCategories[skill] {
			if !seen[cat] {
				seen[cat] = true
				categories = append(categories, cat)
			}
		}
	}

	if len(categories) == 0 {
		return s.repo.TopMemories(ctx, owner, fallbackLimit)
	}
	return s.repo.ActiveMemoriesByCategories(ctx, owner, categories)
}

// Verify marks a memory user-verified with full confidence. One-way.
func (s *Store) Verify(ctx context.Context, id string) error {
	return s.repo.VerifyMemory(ctx, id)
}

// Deactivate soft-deletes a memory on owner request.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	return s.repo.DeactivateMemory(ctx, id)
}

// kindOrder fixes the prompt grouping sequence.
var kindOrder = []struct {
	kind    models.MemoryKind
	heading string
}{
	{models.KindFact, "Facts"},
	{models.KindPreference, "Preferences"},
	{models.KindGoal, "Goals"},
	{models.KindConstraint, "Constraints"},
}

// FormatForPrompt renders memories grouped by kind in the fixed order
// Facts, Preferences, Goals, Constraints. Verified records are marked.
func FormatForPrompt(memories []models.Memory) string {
	if len(memories) == 0 {
		return ""
	}

	byKind := map[models.MemoryKind][]models.Memory{}
	for _, m := range memories {
		byKind[m.Kind] = append(byKind[m.Kind], m)
	}

	var sections []string
	for _, group := range kindOrder {
		items := byKind[group.kind]
		if len(items) == 0 {
			continue
		}
		var lines []string
		lines = append(lines, group.heading+":")
		for _, m := range items {
			line := "- " + m.Content
			if m.Verified {
				line += " (verified)"
			}
			lines = append(lines, line)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n")
}
