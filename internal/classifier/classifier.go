// Package classifier defines the pluggable scoring boundary of the QC
// engine. Every backend answers the same two questions for one band
// window: how confident are we that the expected peak is present, and how
// similar is the window to the distribution the backend was calibrated
// on. That keeps backends interchangeable at the evaluator boundary.
package classifier

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/spectra-group/raman-qc/internal/recipe"
	"github.com/spectra-group/raman-qc/internal/spectrum"
)

// ErrUnavailable indicates that a backend (and any configured fallback)
// could not produce a score. The evaluator downgrades the band rather than
// aborting the sample.
var ErrUnavailable = eris.New("classifier: backend unavailable")

// Score is the result of scoring one band window.
type Score struct {
	// Confidence estimates P(peak present) in [0, 1].
	Confidence float64 `json:"confidence"`
	// Kappa is the out-of-distribution similarity in [0, 1].
	Kappa float64 `json:"kappa"`

	// Backend names the backend that produced the score.
	Backend string `json:"backend"`
	// FellBack is true when the primary backend failed and the score came
	// from the fallback.
	FellBack bool `json:"fell_back,omitempty"`
}

// Classifier scores one band window. Implementations must be safe for
// concurrent use; band evaluations may run in parallel.
type Classifier interface {
	Name() string
	Score(ctx context.Context, win spectrum.Window, band recipe.BandConfig) (Score, error)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
