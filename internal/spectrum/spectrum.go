// Package spectrum holds the immutable spectrum model plus window
// extraction. A Spectrum is validated once at construction; every
// downstream computation may assume the preconditions hold.
package spectrum

import (
	"github.com/rotisserie/eris"
)

// ErrInvalidSpectrum indicates malformed spectrum input. It is fatal for
// the whole sample evaluation.
var ErrInvalidSpectrum = eris.New("spectrum: invalid spectrum")

// ErrWindowEmpty indicates that no samples fall inside a band's window.
// It is scoped to that band, never to the whole sample.
var ErrWindowEmpty = eris.New("spectrum: no samples in window")

// Spectrum is an ordered sequence of (wavenumber, intensity) pairs with
// strictly increasing wavenumbers. Callers own the backing slices for the
// duration of an evaluation and must not mutate them.
type Spectrum struct {
	Wavenumbers []float64 `json:"wavenumbers"`
	Intensities []float64 `json:"intensities"`
}

// New validates the input arrays and wraps them.
// The slices are referenced, not copied.
func New(wavenumbers, intensities []float64) (*Spectrum, error) {
	if len(wavenumbers) != len(intensities) {
		return nil, eris.Wrapf(ErrInvalidSpectrum,
			"length mismatch: %d wavenumbers vs %d intensities", len(wavenumbers), len(intensities))
	}
	if len(wavenumbers) < 2 {
		return nil, eris.Wrapf(ErrInvalidSpectrum, "need at least 2 samples, got %d", len(wavenumbers))
	}
	for i := 1; i < len(wavenumbers); i++ {
		if wavenumbers[i] <= wavenumbers[i-1] {
			return nil, eris.Wrapf(ErrInvalidSpectrum,
				"wavenumbers not strictly increasing at index %d (%g then %g)",
				i, wavenumbers[i-1], wavenumbers[i])
		}
	}
	return &Spectrum{Wavenumbers: wavenumbers, Intensities: intensities}, nil
}

// Len returns the number of samples.
func (s *Spectrum) Len() int {
	return len(s.Wavenumbers)
}

// Window is the maximal contiguous sub-sequence of a spectrum inside a
// closed wavenumber interval. The slices alias the parent spectrum.
type Window struct {
	Wavenumbers []float64
	Intensities []float64
}

// Len returns the number of samples in the window.
func (w Window) Len() int {
	return len(w.Wavenumbers)
}

// Cut returns the samples with wavenumber in [lo, hi], preserving order.
// Returns ErrWindowEmpty when no samples fall in the range.
func (s *Spectrum) Cut(lo, hi float64) (Window, error) {
	// Wavenumbers are strictly increasing, so the window is one contiguous run.
	start := 0
	for start < len(s.Wavenumbers) && s.Wavenumbers[start] < lo {
		start++
	}
	end := start
	for end < len(s.Wavenumbers) && s.Wavenumbers[end] <= hi {
		end++
	}
	if start == end {
		return Window{}, eris.Wrapf(ErrWindowEmpty, "range [%g, %g]", lo, hi)
	}
	return Window{
		Wavenumbers: s.Wavenumbers[start:end],
		Intensities: s.Intensities[start:end],
	}, nil
}
