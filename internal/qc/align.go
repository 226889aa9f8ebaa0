package qc

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/spectra-group/raman-qc/internal/recipe"
	"github.com/spectra-group/raman-qc/internal/spectrum"
)

// Alignment is the shared wavenumber frame for one evaluation: a single
// offset derived from the anchor band so every band is judged against the
// same drift correction.
type Alignment struct {
	Offset float64
	// AnchorReasons carries non-fatal alignment diagnostics that are
	// attached to the anchor band's result.
	AnchorReasons []string
}

// Align locates the anchor band's observed peak and returns the global
// offset center_obs - anchor.center. Recipes without an anchor, and anchor
// windows too sparse to trust (< 3 samples), yield a zero offset; the
// latter is reported on the anchor band, not as a failure.
func Align(s *spectrum.Spectrum, rcp *recipe.Recipe) Alignment {
	anchor := rcp.Anchor()
	if anchor == nil {
		return Alignment{}
	}

	win, err := s.Cut(anchor.Window.Min, anchor.Window.Max)
	if err != nil {
		if eris.Is(err, spectrum.ErrWindowEmpty) {
			return Alignment{AnchorReasons: []string{"alignment_unreliable:window_empty"}}
		}
		return Alignment{AnchorReasons: []string{fmt.Sprintf("alignment_unreliable:%v", err)}}
	}
	if win.Len() < 3 {
		return Alignment{AnchorReasons: []string{
			fmt.Sprintf("alignment_unreliable:window_samples=%d<3", win.Len()),
		}}
	}

	return Alignment{Offset: peakCenter(win) - anchor.Center}
}
