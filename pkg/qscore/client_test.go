package qscore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectra-group/raman-qc/internal/resilience"
)

func TestClient_Score(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/score", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ScoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qsvm-default", req.ModelID)
		assert.Equal(t, "carbonyl", req.Band)
		assert.Len(t, req.Wavenumbers, 3)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ScoreResponse{Confidence: 0.91, Kappa: 0.77})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.Score(context.Background(), ScoreRequest{
		ModelID:     "qsvm-default",
		Band:        "carbonyl",
		Wavenumbers: []float64{999, 1000, 1001},
		Intensities: []float64{1, 9, 1},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.91, resp.Confidence, 1e-12)
	assert.InDelta(t, 0.77, resp.Kappa, 1e-12)
}

func TestClient_NoAuthHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(ScoreResponse{})
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	_, err := c.Score(context.Background(), ScoreRequest{})
	require.NoError(t, err)
}

func TestClient_TransientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Score(context.Background(), ScoreRequest{})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "status 503")
}

func TestClient_PermanentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Score(context.Background(), ScoreRequest{})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Score(ctx, ScoreRequest{})
	require.Error(t, err)
}
