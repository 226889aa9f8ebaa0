package classifier

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/spectra-group/raman-qc/internal/recipe"
	"github.com/spectra-group/raman-qc/internal/resilience"
	"github.com/spectra-group/raman-qc/internal/spectrum"
	"github.com/spectra-group/raman-qc/pkg/qscore"
)

// Remote adapts the quantum-kernel scoring service to the Classifier
// interface. Calls are rate limited, retried on transient failures, and
// guarded by a circuit breaker so a dead service stops consuming the
// per-band latency budget after a few failures.
type Remote struct {
	client  qscore.Client
	modelID string
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// RemoteOption configures the remote backend.
type RemoteOption func(*Remote)

// WithRateLimit caps outbound scoring calls.
func WithRateLimit(perSec float64, burst int) RemoteOption {
	return func(r *Remote) {
		r.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) RemoteOption {
	return func(r *Remote) {
		r.retry = cfg
	}
}

// NewRemote creates the remote backend for the given hosted model.
func NewRemote(client qscore.Client, modelID string, opts ...RemoteOption) *Remote {
	r := &Remote{
		client:  client,
		modelID: modelID,
		limiter: rate.NewLimiter(rate.Limit(20), 5),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		retry:   resilience.DefaultRetryConfig(),
	}
	r.retry.OnRetry = resilience.RetryLogger("qscore", "score")
	for _, o := range opts {
		o(r)
	}
	return r
}

func (*Remote) Name() string { return "qscore" }

func (r *Remote) Score(ctx context.Context, win spectrum.Window, band recipe.BandConfig) (Score, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Score{}, eris.Wrap(err, "qscore: rate limit wait")
	}

	resp, err := resilience.ExecuteVal(ctx, r.breaker, func(ctx context.Context) (*qscore.ScoreResponse, error) {
		return resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*qscore.ScoreResponse, error) {
			return r.client.Score(ctx, qscore.ScoreRequest{
				ModelID:     r.modelID,
				Band:        band.Name,
				Wavenumbers: win.Wavenumbers,
				Intensities: win.Intensities,
			})
		})
	})
	if err != nil {
		return Score{}, eris.Wrap(ErrUnavailable, err.Error())
	}

	return Score{
		Confidence: clamp01(resp.Confidence),
		Kappa:      clamp01(resp.Kappa),
		Backend:    "qscore",
	}, nil
}
