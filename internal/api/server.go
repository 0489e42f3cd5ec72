// Package api serves the ingestion pipeline and the aggregation views over
// HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/llazzari/personal-finance/internal/app"
	"github.com/llazzari/personal-finance/internal/errs"
	"github.com/llazzari/personal-finance/internal/importer"
	"github.com/llazzari/personal-finance/internal/model"
)

// Server routes HTTP requests to an App.
type Server struct {
	app      *app.App
	gatherer prometheus.Gatherer
	log      zerolog.Logger
	validate *validator.Validate
}

// NewServer creates a Server. g backs /metrics; nil disables the endpoint.
func NewServer(a *app.App, g prometheus.Gatherer) *Server {
	return &Server{
		app:      a,
		gatherer: g,
		log:      a.Log,
		validate: validator.New(),
	}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(recovery(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/banks", s.listBanks)
		r.Post("/uploads", s.upload)
		r.Post("/categorize", s.categorize)

		r.Route("/tables/{profile}/{kind}", func(r chi.Router) {
			r.Get("/", s.getTable)
			r.Put("/", s.putTable)
			r.Post("/categorize", s.categorizeTable)
		})

		r.Route("/reports/{profile}", func(r chi.Router) {
			r.Get("/years", s.years)
			r.Get("/months", s.months)
			r.Get("/monthly", s.monthly)
			r.Get("/evolution", s.evolution)
			r.Get("/yearly", s.yearly)
			r.Get("/categories", s.categories)
		})
	})

	return r
}

// listBanks handles GET /api/banks
func (s *Server) listBanks(w http.ResponseWriter, r *http.Request) {
	profiles := s.app.Registry.All()
	out := make([]Bank, len(profiles))
	for i, p := range profiles {
		out[i] = Bank{Name: p.Name, Context: string(p.Context), Encoding: p.Encoding()}
	}
	writeJSON(w, http.StatusOK, out)
}

// upload handles POST /api/uploads
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.app.Upload(r.Context(), app.UploadRequest{
		Profile:  req.Profile,
		Context:  importer.Context(req.Context),
		Bank:     req.Bank,
		Contents: req.Contents,
		Save:     req.Save,
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		BatchID:  res.BatchID,
		Expenses: toRows(res.Expenses),
		Incomes:  toRows(res.Incomes),
	})
}

// categorize handles POST /api/categorize
func (s *Server) categorize(w http.ResponseWriter, r *http.Request) {
	var req CategorizeRequest
	if !s.decode(w, r, &req) {
		return
	}

	kind := model.KindExpense
	if req.Incomes {
		kind = model.KindIncome
	}
	out, updated, err := s.app.CategorizeRows(kind, fromRows(req.Rows))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CategorizeResponse{Rows: toRows(out), Updated: updated})
}

// getTable handles GET /api/tables/{profile}/{kind}
func (s *Server) getTable(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kind(w, r)
	if !ok {
		return
	}
	rows, err := s.app.Table(r.Context(), chi.URLParam(r, "profile"), kind)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TableResponse{Rows: toRows(rows)})
}

// putTable handles PUT /api/tables/{profile}/{kind}
func (s *Server) putTable(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kind(w, r)
	if !ok {
		return
	}
	var req TableRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.app.SaveTable(r.Context(), chi.URLParam(r, "profile"), kind, fromRows(req.Rows)); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// categorizeTable handles POST /api/tables/{profile}/{kind}/categorize
func (s *Server) categorizeTable(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kind(w, r)
	if !ok {
		return
	}
	out, updated, err := s.app.Categorize(r.Context(), chi.URLParam(r, "profile"), kind)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CategorizeResponse{Rows: toRows(out), Updated: updated})
}

func (s *Server) kind(w http.ResponseWriter, r *http.Request) (model.Kind, bool) {
	kind, err := app.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.fail(w, err)
		return "", false
	}
	return kind, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "validation")
		return false
	}
	return true
}

// fail maps err onto a status code. Upload rejections are 422 with the
// failure kind so the client can show them as alerts.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var (
		pe *errs.ParseError
		se *errs.SchemaError
		ve validator.ValidationErrors
		we *errs.PersistenceError
	)
	switch {
	case errors.As(err, &pe):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "parse")
	case errors.As(err, &se):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "schema")
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, err.Error(), "validation")
	case errors.Is(err, app.ErrUnknownProfile), errors.Is(err, app.ErrUnknownBank), errors.Is(err, app.ErrUnknownKind):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.As(err, &we):
		s.log.Error().Err(err).Msg("persistence failure")
		writeError(w, http.StatusInternalServerError, err.Error(), "persistence")
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error(), "")
	}
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, errors.New("missing query parameter " + name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid query parameter " + name)
	}
	return n, nil
}
