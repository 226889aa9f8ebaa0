// Package store persists evaluation results so station operators can audit
// past decisions and export them for review.
package store

import (
	"context"
	"time"

	"github.com/spectra-group/raman-qc/internal/qc"
)

// Evaluation is one persisted sample evaluation.
type Evaluation struct {
	ID             string          `json:"id"`
	RecipeName     string          `json:"recipe_name"`
	RecipeVersion  string          `json:"recipe_version"`
	Station        string          `json:"station,omitempty"`
	SpectrumSource string          `json:"spectrum_source,omitempty"`
	Decision       qc.Decision     `json:"decision"`
	Reasons        []string        `json:"reasons,omitempty"`
	Result         qc.SampleResult `json:"result"`
	CreatedAt      time.Time       `json:"created_at"`
}

// EvalFilter specifies criteria for listing evaluations.
type EvalFilter struct {
	Recipe   string      `json:"recipe,omitempty"`
	Station  string      `json:"station,omitempty"`
	Decision qc.Decision `json:"decision,omitempty"`
	Since    time.Time   `json:"since,omitempty"`
	Limit    int         `json:"limit,omitempty"`
	Offset   int         `json:"offset,omitempty"`
}

// Store defines the persistence interface for the evaluation log.
type Store interface {
	SaveEvaluation(ctx context.Context, source string, result *qc.SampleResult) (*Evaluation, error)
	GetEvaluation(ctx context.Context, id string) (*Evaluation, error)
	ListEvaluations(ctx context.Context, filter EvalFilter) ([]Evaluation, error)
	DeleteEvaluationsBefore(ctx context.Context, cutoff time.Time) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}
