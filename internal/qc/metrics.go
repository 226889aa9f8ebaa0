package qc

import (
	"math"
	"sort"

	"github.com/spectra-group/raman-qc/internal/recipe"
	"github.com/spectra-group/raman-qc/internal/spectrum"
)

// maxSNR is the finite stand-in for an effectively noise-free peak,
// keeping results comparable and JSON-serializable.
const maxSNR = 1e9

// madScale converts a median absolute deviation into a standard deviation
// estimate under a normal noise assumption.
const madScale = 1.4826

// ComputeMetrics computes the numeric metrics for one band window. offset
// is the global alignment offset; it shifts the expected center for both
// the drift computation and the template fit, never the recipe itself.
func ComputeMetrics(win spectrum.Window, band recipe.BandConfig, offset float64) BandMetrics {
	effCenter := band.Center + offset
	centerObs := peakCenter(win)

	baseline := median(win.Intensities)
	peak := maxIntensity(win.Intensities)
	signal := peak - baseline

	noiseStd := robustNoise(win, centerObs, band.Sigma)

	var snr float64
	switch {
	case noiseStd > 0:
		snr = signal / noiseStd
		if snr > maxSNR {
			snr = maxSNR
		}
	case signal > 0:
		snr = maxSNR
	default:
		snr = 0
	}

	return BandMetrics{
		CenterObs: centerObs,
		DeltaNu:   centerObs - effCenter,
		SNR:       snr,
		RMSE:      templateRMSE(win, band, effCenter, baseline),
	}
}

// peakCenter returns the wavenumber at the maximum intensity sample.
// Ties break toward the lowest wavenumber.
func peakCenter(win spectrum.Window) float64 {
	best := 0
	for i := 1; i < win.Len(); i++ {
		if win.Intensities[i] > win.Intensities[best] {
			best = i
		}
	}
	return win.Wavenumbers[best]
}

// robustNoise estimates the noise standard deviation from the scaled MAD of
// the window, excluding a ±sigma neighborhood around the observed peak so
// the peak itself does not inflate the estimate. When the exclusion would
// leave fewer than 3 samples, the full window is used instead.
func robustNoise(win spectrum.Window, centerObs, sigma float64) float64 {
	noise := make([]float64, 0, win.Len())
	for i, nu := range win.Wavenumbers {
		if math.Abs(nu-centerObs) > sigma {
			noise = append(noise, win.Intensities[i])
		}
	}
	if len(noise) < 3 {
		noise = win.Intensities
	}

	med := median(noise)
	dev := make([]float64, len(noise))
	for i, v := range noise {
		dev[i] = math.Abs(v - med)
	}
	return madScale * median(dev)
}

// templateRMSE fits a single constrained peak template to the window with
// the closed-form least-squares amplitude and returns the root-mean-square
// residual. amp is clamped to the band's fit bounds when present.
func templateRMSE(win spectrum.Window, band recipe.BandConfig, effCenter, baseline float64) float64 {
	n := win.Len()
	g := make([]float64, n)
	var num, denom float64
	for i, nu := range win.Wavenumbers {
		g[i] = templateValue(nu, band, effCenter)
		num += (win.Intensities[i] - baseline) * g[i]
		denom += g[i] * g[i]
	}

	var amp float64
	if denom > 0 {
		amp = num / denom
	}
	if fb := band.FitBounds; fb != nil {
		if fb.AmpMin != nil && amp < *fb.AmpMin {
			amp = *fb.AmpMin
		}
		if fb.AmpMax != nil && amp > *fb.AmpMax {
			amp = *fb.AmpMax
		}
	}

	var sse float64
	for i := range g {
		r := win.Intensities[i] - (baseline + amp*g[i])
		sse += r * r
	}
	return math.Sqrt(sse / float64(n))
}

// templateValue evaluates the unit-amplitude peak template at wavenumber nu.
func templateValue(nu float64, band recipe.BandConfig, effCenter float64) float64 {
	z := (nu - effCenter) / band.Sigma
	gauss := math.Exp(-0.5 * z * z)

	if band.Shape != recipe.ShapePseudoVoigt {
		return gauss
	}

	eta := 0.5
	if band.Eta != nil {
		eta = math.Min(math.Max(*band.Eta, 0), 1)
	}
	lorentz := 1 / (1 + z*z)
	return eta*lorentz + (1-eta)*gauss
}

func maxIntensity(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
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
