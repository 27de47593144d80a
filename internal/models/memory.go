package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// MemoryKind classifies what a memory record represents.
type MemoryKind string

const (
	KindFact       MemoryKind = "fact"
	KindPreference MemoryKind = "preference"
	KindGoal       MemoryKind = "goal"
	KindConstraint MemoryKind = "constraint"
)

// MemoryCategory is the closed category enum for memory records.
type MemoryCategory string

const (
	CategoryInjury            MemoryCategory = "injury"
	CategorySchedule          MemoryCategory = "schedule"
	CategoryEquipment         MemoryCategory = "equipment"
	CategoryWorkoutPreference MemoryCategory = "workout_preference"
	CategoryFitnessGoal       MemoryCategory = "fitness_goal"
	CategoryDietary           MemoryCategory = "dietary"
	CategoryFastingRoutine    MemoryCategory = "fasting_routine"
	CategoryMotivation        MemoryCategory = "motivation"
	CategoryGeneral           MemoryCategory = "general"
)

// MaxMemoryContentLen caps stored memory content.
const MaxMemoryContentLen = 500

// ParseMemoryKind maps a raw string to a MemoryKind, defaulting to fact.
func ParseMemoryKind(s string) MemoryKind {
	switch MemoryKind(s) {
	case KindFact, KindPreference, KindGoal, KindConstraint:
		return MemoryKind(s)
	default:
		return KindFact
	}
}

// ParseMemoryCategory maps a raw string to a MemoryCategory.
// Unrecognized values fall back to general.
func ParseMemoryCategory(s string) MemoryCategory {
	switch MemoryCategory(s) {
	case CategoryInjury, CategorySchedule, CategoryEquipment,
		CategoryWorkoutPreference, CategoryFitnessGoal, CategoryDietary,
		CategoryFastingRoutine, CategoryMotivation, CategoryGeneral:
		return MemoryCategory(s)
	default:
		return CategoryGeneral
	}
}

// Memory is a durable cross-session record about an owner.
// Soft-deleted via Active; physically removed only on full owner erasure.
type Memory struct {
	ID          surrealmodels.RecordID `json:"id"`
	Owner       string                 `json:"owner"`
	Kind        MemoryKind             `json:"kind"`
	Category    MemoryCategory         `json:"category"`
	Content     string                 `json:"content"`
	Confidence  float64                `json:"confidence"`
	Session     *string                `json:"session,omitempty"`
	Verified    bool                   `json:"verified"`
	Active      bool                   `json:"active"`
	ExtractedAt time.Time              `json:"extracted_at,omitempty"`
}
