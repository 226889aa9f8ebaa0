package qc

import (
	"context"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spectra-group/raman-qc/internal/classifier"
	"github.com/spectra-group/raman-qc/internal/recipe"
	"github.com/spectra-group/raman-qc/internal/spectrum"
)

// EvaluateSample runs the full evaluation: alignment, one BandResult per
// configured band (in recipe order), and the aggregated decision. Band
// evaluations are independent given the alignment offset and run
// concurrently. If ctx is cancelled before aggregation, no partial result
// is returned.
func EvaluateSample(ctx context.Context, rcp *recipe.Recipe, s *spectrum.Spectrum, clf classifier.Classifier) (*SampleResult, error) {
	align := Align(s, rcp)

	log := zap.L().With(
		zap.String("recipe", rcp.Name),
		zap.String("recipe_version", rcp.Version),
	)
	log.Debug("alignment computed",
		zap.Float64("offset", align.Offset),
		zap.Strings("anchor_reasons", align.AnchorReasons),
	)

	results := make([]BandResult, len(rcp.Bands))
	g, gctx := errgroup.WithContext(ctx)
	for i := range rcp.Bands {
		band := rcp.Bands[i]
		idx := i
		g.Go(func() error {
			br, err := evaluateBand(gctx, rcp, band, s, align, clf)
			if err != nil {
				return err
			}
			results[idx] = br
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "qc: evaluate sample")
	}

	result := Aggregate(rcp, results)
	log.Info("sample evaluated",
		zap.String("decision", string(result.Decision)),
		zap.Int("bands", len(result.Bands)),
		zap.Strings("reasons", result.Reasons),
	)
	return result, nil
}

// evaluateBand cuts the window, computes metrics, scores the window, and
// assigns exactly one label. Band-scoped failures (empty window, scorer
// unavailable) are downgraded to BAD_QUALITY with a reason code; only
// caller cancellation propagates as an error.
func evaluateBand(
	ctx context.Context,
	rcp *recipe.Recipe,
	band recipe.BandConfig,
	s *spectrum.Spectrum,
	align Alignment,
	clf classifier.Classifier,
) (BandResult, error) {
	var reasons []string
	if band.Role == recipe.RoleAnchor {
		reasons = append(reasons, align.AnchorReasons...)
	}

	win, err := s.Cut(band.Window.Min, band.Window.Max)
	if err != nil {
		if !eris.Is(err, spectrum.ErrWindowEmpty) {
			return BandResult{}, err
		}
		return BandResult{
			Band:    band,
			Label:   LabelBadQuality,
			Reasons: append(reasons, "window_empty"),
		}, nil
	}

	metrics := ComputeMetrics(win, band, align.Offset)

	score, err := clf.Score(ctx, win, band)
	if err != nil {
		if ctx.Err() != nil {
			return BandResult{}, ctx.Err()
		}
		if eris.Is(err, classifier.ErrUnavailable) {
			zap.L().Warn("classifier unavailable, downgrading band",
				zap.String("band", band.Name),
				zap.Error(err),
			)
			return BandResult{
				Band:    band,
				Metrics: metrics,
				Label:   LabelBadQuality,
				Reasons: append(reasons, "classifier_unavailable"),
			}, nil
		}
		return BandResult{}, eris.Wrapf(err, "qc: score band %s", band.Name)
	}

	metrics.Confidence = score.Confidence
	metrics.Kappa = score.Kappa
	if score.FellBack {
		reasons = append(reasons, fmt.Sprintf("classifier_fallback:%s", score.Backend))
	}

	label, labelReasons := assignLabel(band, rcp, metrics)
	return BandResult{
		Band:    band,
		Metrics: metrics,
		Label:   label,
		Reasons: append(reasons, labelReasons...),
	}, nil
}

// assignLabel maps metrics and thresholds to exactly one label. The rules
// form a fixed precedence; the first match wins, so the mapping is total
// and mutually exclusive. All comparisons against thresholds are inclusive
// on the passing side (a value exactly at the threshold passes).
func assignLabel(band recipe.BandConfig, rcp *recipe.Recipe, m BandMetrics) (BandLabel, []string) {
	absDelta := math.Abs(m.DeltaNu)

	// Forbidden signature: only a confident, in-distribution, correctly
	// positioned peak counts as a hit. Anything else on a must_not band is
	// the desired absence.
	if band.Role == recipe.RoleMustNot {
		if m.Confidence >= rcp.Tau && m.Kappa >= rcp.KappaMin && absDelta <= band.Tol {
			return LabelMustNotHit, []string{fmt.Sprintf(
				"must_not_hit:conf=%g>=%g,kappa=%g>=%g,|delta_nu|=%g<=%g",
				m.Confidence, rcp.Tau, m.Kappa, rcp.KappaMin, absDelta, band.Tol,
			)}
		}
		return LabelPeakOK, []string{"absent_as_required"}
	}

	if m.Confidence < rcp.Tau {
		return LabelNoPeak, []string{fmt.Sprintf("confidence_below_tau:%g<%g", m.Confidence, rcp.Tau)}
	}

	if m.SNR < rcp.SNRMin || m.RMSE > rcp.Epsilon {
		var rs []string
		if m.SNR < rcp.SNRMin {
			rs = append(rs, fmt.Sprintf("snr_below_min:%g<%g", m.SNR, rcp.SNRMin))
		}
		if m.RMSE > rcp.Epsilon {
			rs = append(rs, fmt.Sprintf("rmse_above_epsilon:%g>%g", m.RMSE, rcp.Epsilon))
		}
		return LabelBadQuality, rs
	}

	if m.Kappa < rcp.KappaMin {
		return LabelOOD, []string{fmt.Sprintf("kappa_below_min:%g<%g", m.Kappa, rcp.KappaMin)}
	}

	if absDelta > band.Tol {
		return LabelPeakDrifted, []string{fmt.Sprintf("delta_nu_above_tol:%g>%g", absDelta, band.Tol)}
	}

	return LabelPeakOK, nil
}
