package classifier

import (
	"context"
	"sort"

	"github.com/spectra-group/raman-qc/internal/recipe"
	"github.com/spectra-group/raman-qc/internal/spectrum"
)

// Baseline is the deterministic rule-based backend used for testing and as
// the fallback of last resort. Confidence is the height of the window
// maximum above the median, relative to the full intensity range, so a
// sharp peak over a flat baseline scores high and a flat or noisy window
// scores low. Kappa is always 1: the baseline has no notion of
// distribution.
type Baseline struct{}

// NewBaseline returns the baseline backend.
func NewBaseline() *Baseline {
	return &Baseline{}
}

func (*Baseline) Name() string { return "baseline" }

func (*Baseline) Score(_ context.Context, win spectrum.Window, _ recipe.BandConfig) (Score, error) {
	if win.Len() == 0 {
		return Score{Backend: "baseline"}, nil
	}

	lo, hi := win.Intensities[0], win.Intensities[0]
	for _, v := range win.Intensities {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return Score{Backend: "baseline", Kappa: 1}, nil
	}

	med := median(win.Intensities)
	return Score{
		Confidence: clamp01((hi - med) / (hi - lo)),
		Kappa:      1,
		Backend:    "baseline",
	}, nil
}

// median returns the middle value without mutating the input.
func median(values []float64) float64 {
	tmp := make([]float64, len(values))
	copy(tmp, values)
	sort.Float64s(tmp)
	n := len(tmp)
	if n%2 == 1 {
		return tmp[n/2]
	}
	return (tmp[n/2-1] + tmp[n/2]) / 2
}
