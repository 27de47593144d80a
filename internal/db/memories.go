package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/jhartinger/vitacoach-go/internal/models"
)

// InsertMemory stores a new memory record for an owner.
func (c *Client) InsertMemory(ctx context.Context, m models.Memory) (*models.Memory, error) {
	defer c.timeQuery(time.Now())

	results, err := surrealdb.Query[[]models.Memory](ctx, c.db, `
		CREATE type::record("memory", $id) SET
			owner = $owner,
			kind = $kind,
			category = $category,
			content = $content,
			confidence = $confidence,
			session = $session,
			verified = false,
			active = true
	`, map[string]any{
		"id":         uuid.NewString(),
		"owner":      m.Owner,
		"kind":       string(m.Kind),
		"category":   string(m.Category),
		"content":    m.Content,
		"confidence": m.Confidence,
		"session":    m.Session,
	})
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("insert memory: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// ActiveMemories returns all active memories for an owner in one category.
func (c *Client) ActiveMemories(ctx context.Context, owner string, category models.MemoryCategory) ([]models.Memory, error) {
	defer c.timeQuery(time.Now())

	results, err := surrealdb.Query[[]models.Memory](ctx, c.db, `
		SELECT * FROM memory
		WHERE owner = $owner AND category = $category AND active = true
		ORDER BY confidence DESC
	`, map[string]any{"owner": owner, "category": string(category)})
	if err != nil {
		return nil, fmt.Errorf("active memories: %w", err)
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.Memory{}, nil
}

// ActiveMemoriesByCategories returns all active memories for an owner across
// the given categories.
func (c *Client) ActiveMemoriesByCategories(ctx context.Context, owner string, categories []models.MemoryCategory) ([]models.Memory, error) {
	defer c.timeQuery(time.Now())

	cats := make([]string, len(categories))
	for i, cat := range categories {
		cats[i] = string(cat)
	}

	results, err := surrealdb.Query[[]models.Memory](ctx, c.db, `
		SELECT * FROM memory
		WHERE owner = $owner AND category IN $categories AND active = true
		ORDER BY confidence DESC
	`, map[string]any{"owner": owner, "categories": cats})
	if err != nil {
		return nil, fmt.Errorf("memories by categories: %w", err)
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.Memory{}, nil
}

// TopMemories returns the owner's active memories ranked by confidence.
func (c *Client) TopMemories(ctx context.Context, owner string, limit int) ([]models.Memory, error) {
	defer c.timeQuery(time.Now())

	results, err := surrealdb.Query[[]models.Memory](ctx, c.db, `
		SELECT * FROM memory
		WHERE owner = $owner AND active = true
		ORDER BY confidence DESC
		LIMIT $limit
	`, map[string]any{"owner": owner, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("top memories: %w", err)
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.Memory{}, nil
}

// ListMemories returns all of an owner's memories, active first.
func (c *Client) ListMemories(ctx context.Context, owner string, activeOnly bool) ([]models.Memory, error) {
	defer c.timeQuery(time.Now())

	activeClause := ""
	if activeOnly {
		activeClause = "AND active = true"
	}

	sql := fmt.Sprintf(`
		SELECT * FROM memory
		WHERE owner = $owner %s
		ORDER BY active DESC, extracted_at DESC
	`, activeClause)

	results, err := surrealdb.Query[[]models.Memory](ctx, c.db, sql, map[string]any{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.Memory{}, nil
}

// RaiseMemoryConfidence updates a duplicate's confidence and refreshes its
// extraction timestamp. Content is never overwritten on re-extraction.
func (c *Client) RaiseMemoryConfidence(ctx context.Context, id string, confidence float64) error {
	defer c.timeQuery(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("memory", $id) SET
			confidence = $confidence,
			extracted_at = time::now()
	`, map[string]any{"id": id, "confidence": confidence})
	if err != nil {
		return fmt.Errorf("raise memory confidence: %w", err)
	}
	return nil
}

// VerifyMemory marks a memory user-verified with full confidence.
// A one-way trust upgrade: the flag is never cleared.
func (c *Client) VerifyMemory(ctx context.Context, id string) error {
	defer c.timeQuery(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("memory", $id) SET
			verified = true,
			confidence = 1.0
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("verify memory: %w", err)
	}
	return nil
}

// DeactivateMemory soft-deletes a memory on owner request.
func (c *Client) DeactivateMemory(ctx context.Context, id string) error {
	defer c.timeQuery(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("memory", $id) SET active = false
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("deactivate memory: %w", err)
	}
	return nil
}

// InsertEvaluation stores a sampled judge score.
func (c *Client) InsertEvaluation(ctx context.Context, e models.Evaluation) error {
	defer c.timeQuery(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("evaluation", $id) SET
			owner = $owner,
			session = $session,
			helpfulness = $helpfulness,
			safety = $safety,
			personalization = $personalization,
			overall = $overall,
			reasoning = $reasoning,
			judge = $judge
	`, map[string]any{
		"id":              uuid.NewString(),
		"owner":           e.Owner,
		"session":         e.Session,
		"helpfulness":     e.Helpfulness,
		"safety":          e.Safety,
		"personalization": e.Personalization,
		"overall":         e.Overall,
		"reasoning":       e.Reasoning,
		"judge":           e.Judge,
	})
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}
