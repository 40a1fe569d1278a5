package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AngelCh415/revops-risk/internal/models"
	"github.com/AngelCh415/revops-risk/internal/report"
	"github.com/AngelCh415/revops-risk/internal/utils"
)

// Generator builds one report per request.
type Generator interface {
	Generate(ctx context.Context, filter models.Filter) (models.Report, error)
}

type Options struct {
	RequestTimeout time.Duration
	Metrics        http.Handler
	// Ready se consulta en /readyz; nil = siempre listo.
	Ready func() error
}

func NewRouter(log *slog.Logger, gen Generator, opts Options) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})
	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	mux.Get("/report", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, usage)
	})

	mux.Post("/report", func(w http.ResponseWriter, r *http.Request) {
		var filter models.Filter
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "cannot read body", http.StatusBadRequest)
			return
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &filter); err != nil {
				http.Error(w, "bad filter: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		ctx := r.Context()
		if opts.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.RequestTimeout)
			defer cancel()
		}
		rep, err := gen.Generate(ctx, filter)
		switch {
		case errors.Is(err, report.ErrInvalidFilter):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, report.ErrRequiredInputUnavailable):
			http.Error(w, err.Error(), http.StatusBadGateway)
		case errors.Is(err, context.DeadlineExceeded):
			http.Error(w, "report timed out", http.StatusGatewayTimeout)
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			writeJSON(w, http.StatusOK, rep)
		}
	})

	return mux
}

var usage = map[string]any{
	"endpoint": "POST /report",
	"body": map[string]any{
		"start_date":   "YYYY-MM-DD (default: quarter start)",
		"end_date":     "YYYY-MM-DD (default: today, capped at quarter end)",
		"products":     []string{"POR", "R360"},
		"regions":      []string{"AMER", "EMEA", "APAC"},
		"risk_profile": "P50 | P75 | P90",
	},
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
