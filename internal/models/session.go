// Package models defines data structures for the vitacoach conversation pipeline.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Message roles.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// Session represents a persistent conversation session.
type Session struct {
	ID           surrealmodels.RecordID `json:"id"`
	Owner        string                 `json:"owner"`
	Title        *string                `json:"title,omitempty"`
	Summary      *string                `json:"summary,omitempty"`
	MessageCount int                    `json:"message_count"`
	Archived     bool                   `json:"archived"`
	Metadata     map[string]any         `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at,omitempty"`
	LastActivity time.Time              `json:"last_activity,omitempty"`
}

// Message is a single conversation turn half. Immutable once written and
// cascade-deleted with its session.
type Message struct {
	ID      surrealmodels.RecordID `json:"id"`
	Session surrealmodels.RecordID `json:"session"`
	Seq     int                    `json:"seq"`
	Role    string                 `json:"role"`
	Content string                 `json:"content"`
	// History holds a serialized multi-turn context blob for model replay.
	History   *string   `json:"history,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Preference is the persisted per-owner personality preference. Persisted
// rather than cached in-process so every service instance resolves the
// same value.
type Preference struct {
	ID          surrealmodels.RecordID `json:"id"`
	Owner       string                 `json:"owner"`
	Personality string                 `json:"personality"`
	UpdatedAt   time.Time              `json:"updated_at,omitempty"`
}
