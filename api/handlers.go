package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hierarchstats/domain/core"
	"hierarchstats/domain/stats"
	apperrors "hierarchstats/internal/errors"
	"hierarchstats/internal/hypothesis"
	"hierarchstats/internal/report"
	"hierarchstats/internal/resample"
)

// TestRequest carries a design matrix and the test configuration.
type TestRequest struct {
	Levels []string    `json:"levels"`
	Labels [][]float64 `json:"labels"`
	Values []float64   `json:"values"`

	Statistic    string  `json:"statistic,omitempty"`
	Alternative  string  `json:"alternative,omitempty"`
	Permutations int     `json:"permutations,omitempty"`
	Bootstraps   int     `json:"bootstraps,omitempty"`
	Kind         string  `json:"kind,omitempty"`
	Skip         []int   `json:"skip,omitempty"`
	Coverage     float64 `json:"coverage,omitempty"`
	Seed         int64   `json:"seed,omitempty"`

	// Correction applies to multi-sample requests only.
	Correction string `json:"correction,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRunTest(w http.ResponseWriter, r *http.Request) {
	_, design, opts, ok := s.decodeTestRequest(w, r)
	if !ok {
		return
	}

	result, err := hypothesis.Test(r.Context(), design, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.persist(r, result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunMultiTest(w http.ResponseWriter, r *http.Request) {
	req, design, opts, ok := s.decodeTestRequest(w, r)
	if !ok {
		return
	}

	results, err := hypothesis.MultiSampleTest(r.Context(), design, opts, req.Correction)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, result := range results {
		s.persist(r, result)
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadResult(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadResult(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(report.HTML("Hypothesis test "+result.ID.String(), result))
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeJSON(w, http.StatusOK, []*stats.TestResult{})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	results, err := s.repo.ListResults(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if results == nil {
		results = []*stats.TestResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) decodeTestRequest(w http.ResponseWriter, r *http.Request) (*TestRequest, *stats.DesignMatrix, hypothesis.Options, bool) {
	var req TestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ValidationError("invalid JSON body"))
		return nil, nil, hypothesis.Options{}, false
	}

	design, err := stats.RebuildSorted(stats.Hierarchy{Levels: req.Levels}, req.Labels, req.Values)
	if err != nil {
		s.writeError(w, err)
		return nil, nil, hypothesis.Options{}, false
	}

	opts := hypothesis.Options{
		Statistic:    req.Statistic,
		Alternative:  stats.Alternative(req.Alternative),
		Permutations: req.Permutations,
		Bootstraps:   req.Bootstraps,
		Kind:         resample.Kind(req.Kind),
		Skip:         req.Skip,
		Coverage:     req.Coverage,
		Seed:         req.Seed,
		Workers:      s.defaults.Workers,
	}
	if opts.Permutations <= 0 {
		opts.Permutations = s.defaults.Permutations
	}
	if opts.Bootstraps <= 0 {
		opts.Bootstraps = s.defaults.Bootstraps
	}
	if opts.Coverage == 0 {
		opts.Coverage = s.defaults.Coverage
	}
	return &req, design, opts, true
}

func (s *Server) loadResult(w http.ResponseWriter, r *http.Request) (*stats.TestResult, bool) {
	if s.repo == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "result storage is not configured"})
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, apperrors.InvalidInput("invalid result id"))
		return nil, false
	}
	result, err := s.repo.GetResult(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return result, true
}

func (s *Server) persist(r *http.Request, result *stats.TestResult) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveResult(r.Context(), result); err != nil {
		s.log.Error("failed to persist result %s: %v", result.ID, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case core.IsNotFoundError(err):
		status = http.StatusNotFound
	case core.IsDegenerateInput(err), core.IsInsufficientData(err):
		status = http.StatusUnprocessableEntity
	default:
		switch apperrors.GetCode(err) {
		case apperrors.CodeValidationError, apperrors.CodeInvalidInput:
			status = http.StatusBadRequest
		}
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
