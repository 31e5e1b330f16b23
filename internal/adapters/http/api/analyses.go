package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/vrai/internal/domain/model"
)

// AnalysesDependencies defines the interface for reading stored analyses.
type AnalysesDependencies interface {
	Analysis(ctx context.Context, id string) (model.AnalysisRecord, error)
}

// AnalysesHandler handles stored analysis lookups.
type AnalysesHandler struct {
	deps AnalysesDependencies
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps AnalysesDependencies) *AnalysesHandler {
	return &AnalysesHandler{deps: deps}
}

// HandleGetAnalysis handles GET /analyses/{id} requests.
func (h *AnalysesHandler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analysis"

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	rec, err := h.deps.Analysis(r.Context(), id)
	switch {
	case errors.Is(err, model.ErrAnalysisNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, model.ErrPersistenceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "persistence_unavailable", WrapKind(op, ErrUnavailable, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}
