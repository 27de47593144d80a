// Package db provides SurrealDB query functions for the conversation pipeline.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/jhartinger/vitacoach-go/internal/models"
)

// CreateSession creates a new conversation session for an owner.
func (c *Client) CreateSession(ctx context.Context, owner string) (*models.Session, error) {
	defer c.timeQuery(time.Now())

	results, err := surrealdb.Query[[]models.Session](ctx, c.db, `
		CREATE type::record("session", $id) SET
			owner = $owner,
			message_count = 0,
			archived = false
	`, map[string]any{
		"id":    uuid.NewString(),
		"owner": owner,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create session: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// GetSession retrieves a session by ID. Returns nil if not found.
func (c *Client) GetSession(ctx context.Context, id string) (*models.Session, error) {
	defer c.timeQuery(time.Now())

	results, err := surrealdb.Query[[]models.Session](ctx, c.db, `
		SELECT * FROM type::record("session", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// ListSessions returns an owner's sessions, most recently active first.
func (c *Client) ListSessions(ctx context.Context, owner string, includeArchived bool) ([]models.Session, error) {
	defer c.timeQuery(time.Now())

	archivedClause := ""
	if !includeArchived {
		archivedClause = "AND archived = false"
	}

	sql := fmt.Sprintf(`
		SELECT * FROM session
		WHERE owner = $owner %s
		ORDER BY last_activity DESC
	`, archivedClause)

	results, err := surrealdb.Query[[]models.Session](ctx, c.db, sql, map[string]any{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.Session{}, nil
}

// RenameSession sets a session's title.
func (c *Client) RenameSession(ctx context.Context, id, title string) error {
	defer c.timeQuery(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("session", $id) SET title = $title, last_activity = time::now()
	`, map[string]any{"id": id, "title": title})
	if err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	return nil
}

// ArchiveSession marks a session archived.
func (c *Client) ArchiveSession(ctx context.Context, id string) error {
	defer c.timeQuery(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("session", $id) SET archived = true
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("archive session: %w", err)
	}
	return nil
}

// UpdateSessionSummary stores a refreshed conversation summary.
func (c *Client) UpdateSessionSummary(ctx context.Context, id, summary string) error {
	defer c.timeQuery(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("session", $id) SET summary = $summary
	`, map[string]any{"id": id, "summary": summary})
	if err != nil {
		return fmt.Errorf("update session summary: %w", err)
	}
	return nil
}

// AppendMessage writes an immutable message and bumps the session's
// message count and activity timestamp. Returns the assigned sequence number.
func (c *Client) AppendMessage(ctx context.Context, sessionID, role, content string, history *string) (int, error) {
	defer c.timeQuery(time.Now())

	results, err := surrealdb.Query[[]models.Session](ctx, c.db, `
		UPDATE type::record("session", $session) SET
			message_count += 1,
			last_activity = time::now()
	`, map[string]any{"session": sessionID})
	if err != nil {
		return 0, fmt.Errorf("bump session: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, fmt.Errorf("append message: session %s not found", sessionID)
	}
	seq := (*results)[0].Result[0].MessageCount

	_, err = surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("message", $id) SET
			session = type::record("session", $session),
			seq = $seq,
			role = $role,
			content = $content,
			history = $history
	`, map[string]any{
		"id":      uuid.NewString(),
		"session": sessionID,
		"seq":     seq,
		"role":    role,
		"content": content,
		"history": history,
	})
	if err != nil {
		return 0, fmt.Errorf("append message: %w", err)
	}
	return seq, nil
}

// RecentMessages returns the last limit messages of a session in
// chronological order.
func (c *Client) RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	defer c.timeQuery(time.Now())

	results, err := surrealdb.Query[[]models.Message](ctx, c.db, `
		SELECT * FROM message
		WHERE session = type::record("session", $session)
		ORDER BY seq DESC
		LIMIT $limit
	`, map[string]any{"session": sessionID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}

	var msgs []models.Message
	if results != nil && len(*results) > 0 {
		msgs = (*results)[0].Result
	}

	// Reverse into chronological order
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// EraseOwner removes everything stored for an owner: sessions, their
// messages, memories, preferences, and evaluations. This is the only path
// that physically deletes memory records.
func (c *Client) EraseOwner(ctx context.Context, owner string) error {
	defer c.timeQuery(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE message WHERE session.owner = $owner;
		DELETE session WHERE owner = $owner;
		DELETE memory WHERE owner = $owner;
		DELETE preference WHERE owner = $owner;
		DELETE evaluation WHERE owner = $owner;
	`, map[string]any{"owner": owner})
	if err != nil {
		return fmt.Errorf("erase owner: %w", err)
	}
	return nil
}

// GetPreference returns the owner's personality preference, or nil if unset.
func (c *Client) GetPreference(ctx context.Context, owner string) (*models.Preference, error) {
	defer c.timeQuery(time.Now())

	results, err := surrealdb.Query[[]models.Preference](ctx, c.db, `
		SELECT * FROM preference WHERE owner = $owner LIMIT 1
	`, map[string]any{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("get preference: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// SetPreference upserts the owner's personality preference.
func (c *Client) SetPreference(ctx context.Context, owner, personality string) error {
	defer c.timeQuery(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("preference", $id) SET
			owner = $owner,
			personality = $personality,
			updated_at = time::now()
	`, map[string]any{
		"id":          owner,
		"owner":       owner,
		"personality": personality,
	})
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}
