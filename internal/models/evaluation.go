package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Evaluation is an LLM-as-judge quality score for one sampled turn.
// Written by the background sampler, never on the turn's critical path.
type Evaluation struct {
	ID              surrealmodels.RecordID `json:"id"`
	Owner           string                 `json:"owner"`
	Session         *string                `json:"session,omitempty"`
	Helpfulness     float64                `json:"helpfulness"`
	Safety          float64                `json:"safety"`
	Personalization float64                `json:"personalization"`
	Overall         float64                `json:"overall"`
	Reasoning       string                 `json:"reasoning"`
	Judge           string                 `json:"judge"`
	CreatedAt       time.Time              `json:"created_at,omitempty"`
}

// OverallScore computes the weighted overall score from the dimensions.
// Safety weighs heaviest.
func OverallScore(helpfulness, safety, personalization float64) float64 {
	return 0.35*helpfulness + 0.45*safety + 0.20*personalization
}
