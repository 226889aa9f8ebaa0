package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spectra-group/raman-qc/internal/classifier"
	"github.com/spectra-group/raman-qc/internal/qc"
	"github.com/spectra-group/raman-qc/internal/spectrum"
	"github.com/spectra-group/raman-qc/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the evaluation HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		clf, err := initClassifier()
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(st, clf),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("http server listening", zap.Int("port", port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			zap.L().Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

// evaluateRequest is the POST /v1/evaluate body. The spectrum arrives
// inline; CSV ingestion stays a CLI concern.
type evaluateRequest struct {
	Recipe      string    `json:"recipe"`
	Source      string    `json:"source,omitempty"`
	Wavenumbers []float64 `json:"wavenumbers"`
	Intensities []float64 `json:"intensities"`
	Save        bool      `json:"save,omitempty"`
}

func newRouter(st store.Store, clf classifier.Classifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/evaluate", func(w http.ResponseWriter, req *http.Request) {
		var body evaluateRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Recipe == "" {
			writeError(w, http.StatusBadRequest, "recipe is required")
			return
		}

		rcp, err := resolveRecipe(body.Recipe)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		s, err := spectrum.New(body.Wavenumbers, body.Intensities)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := qc.EvaluateSample(req.Context(), rcp, s, clf)
		if err != nil {
			zap.L().Error("evaluation failed",
				zap.String("recipe", body.Recipe),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "evaluation failed")
			return
		}

		if body.Save {
			if _, err := st.SaveEvaluation(req.Context(), body.Source, result); err != nil {
				zap.L().Error("save evaluation failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "save failed")
				return
			}
		}

		writeJSON(w, http.StatusOK, result)
	})

	r.Get("/v1/results", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		filter := store.EvalFilter{
			Recipe:   q.Get("recipe"),
			Station:  q.Get("station"),
			Decision: qc.Decision(q.Get("decision")),
			Limit:    50,
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			filter.Limit = n
		}

		evals, err := st.ListEvaluations(req.Context(), filter)
		if err != nil {
			zap.L().Error("list evaluations failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		if evals == nil {
			evals = []store.Evaluation{}
		}
		writeJSON(w, http.StatusOK, evals)
	})

	r.Get("/v1/results/{id}", func(w http.ResponseWriter, req *http.Request) {
		ev, err := st.GetEvaluation(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "evaluation not found")
			return
		}
		writeJSON(w, http.StatusOK, ev)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
