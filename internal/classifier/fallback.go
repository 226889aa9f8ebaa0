package classifier

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/spectra-group/raman-qc/internal/recipe"
	"github.com/spectra-group/raman-qc/internal/spectrum"
)

// Fallback tries a primary backend within a timeout and falls back to a
// secondary on error or deadline. Which backend produced the score never
// changes downstream decision logic; the evaluator only records that the
// fallback occurred.
type Fallback struct {
	primary   Classifier
	secondary Classifier
	timeout   time.Duration
}

// WithFallback composes primary and secondary backends. timeout bounds the
// primary call only; timeout <= 0 means no extra bound beyond the caller's
// context.
func WithFallback(primary, secondary Classifier, timeout time.Duration) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, timeout: timeout}
}

func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *Fallback) Score(ctx context.Context, win spectrum.Window, band recipe.BandConfig) (Score, error) {
	primaryCtx := ctx
	cancel := func() {}
	if f.timeout > 0 {
		primaryCtx, cancel = context.WithTimeout(ctx, f.timeout)
	}
	score, err := f.primary.Score(primaryCtx, win, band)
	cancel()
	if err == nil {
		return score, nil
	}

	// Caller cancellation is not a backend failure; propagate it.
	if ctx.Err() != nil {
		return Score{}, err
	}

	zap.L().Warn("primary scorer failed, falling back",
		zap.String("primary", f.primary.Name()),
		zap.String("fallback", f.secondary.Name()),
		zap.String("band", band.Name),
		zap.Error(err),
	)

	score, fbErr := f.secondary.Score(ctx, win, band)
	if fbErr != nil {
		return Score{}, eris.Wrapf(ErrUnavailable,
			"primary %s: %v; fallback %s: %v", f.primary.Name(), err, f.secondary.Name(), fbErr)
	}
	score.FellBack = true
	return score, nil
}
