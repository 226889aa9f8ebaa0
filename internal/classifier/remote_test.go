package classifier

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectra-group/raman-qc/internal/resilience"
	"github.com/spectra-group/raman-qc/pkg/qscore"
)

// fakeQScore scripts responses per call.
type fakeQScore struct {
	calls     int
	responses []func() (*qscore.ScoreResponse, error)
}

func (f *fakeQScore) Score(_ context.Context, _ qscore.ScoreRequest) (*qscore.ScoreResponse, error) {
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i]()
}

func scoreOK(conf, kappa float64) func() (*qscore.ScoreResponse, error) {
	return func() (*qscore.ScoreResponse, error) {
		return &qscore.ScoreResponse{Confidence: conf, Kappa: kappa}, nil
	}
}

func scoreErr(err error) func() (*qscore.ScoreResponse, error) {
	return func() (*qscore.ScoreResponse, error) { return nil, err }
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: 1, MaxBackoff: 1}
}

func TestRemote_Success(t *testing.T) {
	fake := &fakeQScore{responses: []func() (*qscore.ScoreResponse, error){scoreOK(0.92, 0.81)}}
	r := NewRemote(fake, "qsvm-test")

	score, err := r.Score(context.Background(), peakWindow(1000, 5, 10), testBand(1000, 5))
	require.NoError(t, err)
	assert.InDelta(t, 0.92, score.Confidence, 1e-12)
	assert.InDelta(t, 0.81, score.Kappa, 1e-12)
	assert.Equal(t, "qscore", score.Backend)
}

func TestRemote_ClampsOutOfRangeScores(t *testing.T) {
	fake := &fakeQScore{responses: []func() (*qscore.ScoreResponse, error){scoreOK(1.4, -0.2)}}
	r := NewRemote(fake, "qsvm-test")

	score, err := r.Score(context.Background(), peakWindow(1000, 5, 10), testBand(1000, 5))
	require.NoError(t, err)
	assert.Equal(t, 1.0, score.Confidence)
	assert.Equal(t, 0.0, score.Kappa)
}

func TestRemote_RetriesTransientFailure(t *testing.T) {
	transient := resilience.NewTransientError(eris.New("status 503"), 503)
	fake := &fakeQScore{responses: []func() (*qscore.ScoreResponse, error){
		scoreErr(transient),
		scoreOK(0.9, 0.9),
	}}
	r := NewRemote(fake, "qsvm-test", WithRetryConfig(fastRetry()))

	score, err := r.Score(context.Background(), peakWindow(1000, 5, 10), testBand(1000, 5))
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
	assert.InDelta(t, 0.9, score.Confidence, 1e-12)
}

func TestRemote_PermanentFailureIsUnavailable(t *testing.T) {
	fake := &fakeQScore{responses: []func() (*qscore.ScoreResponse, error){
		scoreErr(eris.New("status 401: bad key")),
	}}
	r := NewRemote(fake, "qsvm-test", WithRetryConfig(fastRetry()))

	_, err := r.Score(context.Background(), peakWindow(1000, 5, 10), testBand(1000, 5))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnavailable))
	// Permanent errors are not retried.
	assert.Equal(t, 1, fake.calls)
}

func TestRemote_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	fake := &fakeQScore{responses: []func() (*qscore.ScoreResponse, error){
		scoreErr(eris.New("status 500")),
	}}
	r := NewRemote(fake, "qsvm-test", WithRetryConfig(resilience.RetryConfig{MaxAttempts: 1}))

	win := peakWindow(1000, 5, 10)
	band := testBand(1000, 5)
	for i := 0; i < 3; i++ {
		_, err := r.Score(context.Background(), win, band)
		require.Error(t, err)
	}
	callsBefore := fake.calls

	// Circuit is open now; the backend is no longer hit.
	_, err := r.Score(context.Background(), win, band)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnavailable))
	assert.Equal(t, callsBefore, fake.calls)
}
