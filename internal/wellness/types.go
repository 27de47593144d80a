// Package wellness defines the narrow read interfaces onto the main
// wellness backend: fasting state, streaks, levels, workouts, biometrics,
// and the health-profile safety check. The pipeline consumes these as
// black boxes.
package wellness

import "context"

// FastingStatus describes the owner's current fast / eating window.
type FastingStatus struct {
	IsActive     bool    `json:"is_active"`
	Protocol     string  `json:"protocol,omitempty"`
	ElapsedHours float64 `json:"elapsed_hours,omitempty"`
	TargetHours  float64 `json:"target_hours,omitempty"`
}

// Streak is one named activity streak.
type Streak struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Level holds gamification progress.
type Level struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	XP    int    `json:"xp"`
}

// WorkoutStats aggregates recent training volume.
type WorkoutStats struct {
	TodayCount   int    `json:"today_count"`
	WeekCount    int    `json:"week_count"`
	WeekMinutes  int    `json:"week_minutes"`
	FavoriteType string `json:"favorite_type,omitempty"`
}

// WorkoutRecommendation is the backend's next suggested session.
type WorkoutRecommendation struct {
	Name            string `json:"name"`
	Focus           string `json:"focus"`
	DurationMinutes int    `json:"duration_minutes"`
}

// WeightTrend summarizes the owner's recent weight movement.
type WeightTrend struct {
	CurrentKg   float64 `json:"current_kg"`
	ChangeKg30d float64 `json:"change_kg_30d"`
	Direction   string  `json:"direction"` // "down", "up", "stable"
}

// BiomarkerSummary is the latest reading and trend of one biomarker.
type BiomarkerSummary struct {
	Marker string  `json:"marker"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Trend  string  `json:"trend,omitempty"`
}

// RecoveryScore is the backend's composite readiness score.
type RecoveryScore struct {
	Score  int    `json:"score"`
	Status string `json:"status"`
}

// FastingSafety is the health-profile check for fasting.
// Warnings are safety-critical and must never be trimmed from context.
type FastingSafety struct {
	Safe     bool     `json:"safe"`
	Warnings []string `json:"warnings,omitempty"`
}

// Reader is the read-only view of the wellness backend consumed by the
// conversation pipeline.
type Reader interface {
	FastingStatus(ctx context.Context, owner string) (FastingStatus, error)
	Streaks(ctx context.Context, owner string) ([]Streak, error)
	Level(ctx context.Context, owner string) (Level, error)
	WorkoutStats(ctx context.Context, owner string) (WorkoutStats, error)
	WorkoutRecommendation(ctx context.Context, owner string) (WorkoutRecommendation, error)
	WeightTrend(ctx context.Context, owner string) (WeightTrend, error)
	Biomarkers(ctx context.Context, owner string) ([]BiomarkerSummary, error)
	RecoveryScore(ctx context.Context, owner string) (RecoveryScore, error)
	FastingSafety(ctx context.Context, owner string) (FastingSafety, error)
}
