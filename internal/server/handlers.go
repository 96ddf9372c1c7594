package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/amishk599/jobfeed/internal/filter"
	"github.com/amishk599/jobfeed/internal/importer"
	"github.com/amishk599/jobfeed/internal/model"
)

// Importer triggers one import run.
type Importer interface {
	Run(ctx context.Context) (importer.Outcome, error)
}

// JobQuerier answers paginated job queries.
type JobQuerier interface {
	Query(ctx context.Context, c filter.Criteria) (model.Page, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	importer Importer
	jobs     JobQuerier
	sources  map[string]model.JobSource
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance. Sources are addressed by
// their Name under GET /jobs/{provider}.
func NewHandlers(imp Importer, jobs JobQuerier, sources []model.JobSource, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	bySource := make(map[string]model.JobSource, len(sources))
	for _, s := range sources {
		bySource[s.Name()] = s
	}
	return &Handlers{
		importer: imp,
		jobs:     jobs,
		sources:  bySource,
		logger:   logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ProviderJobs handles GET /jobs/{provider}: the provider's listings in
// canonical form, without touching storage.
func (h *Handlers) ProviderJobs(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("provider")
	src, ok := h.sources[name]
	if !ok {
		writeError(w, http.StatusNotFound, msgUnknownProvider, name)
		return
	}

	jobs, err := src.FetchJobs(r.Context())
	switch {
	case errors.Is(err, model.ErrEmptyUpstream), err == nil && len(jobs) == 0:
		h.logger.Warn("no jobs in provider response", slog.String("provider", name))
		writeError(w, http.StatusNotFound, msgNoProviderJobs, model.ErrEmptyUpstream.Error())
		return
	case err != nil:
		h.logger.Error("failed to fetch provider jobs",
			slog.String("provider", name),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway,
			fmt.Sprintf("An error occurred while fetching job data from %s", name), errorClass(err))
		return
	}

	h.logger.Debug("provider jobs fetched", slog.String("provider", name), slog.Int("jobs", len(jobs)))
	writeJSON(w, http.StatusOK, jobs)
}

// ImportJobs handles POST /jobs/import.
func (h *Handlers) ImportJobs(w http.ResponseWriter, r *http.Request) {
	out, err := h.importer.Run(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		msg := msgImportFailed
		switch {
		case errors.Is(err, model.ErrImportInProgress):
			status, msg = http.StatusConflict, msgImportBusy
		case errors.Is(err, model.ErrUpstreamUnavailable):
			status = http.StatusBadGateway
		}
		h.logger.Error("failed to import jobs", slog.String("error", err.Error()))
		writeError(w, status, msg, errorClass(err))
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{Message: out.Message, Imported: out.Imported})
}

// ListJobs handles GET /jobs?title=&location=&page=&pageSize=.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidQuery, err.Error())
		return
	}

	page, err := h.jobs.Query(r.Context(), criteria)
	switch {
	case errors.Is(err, model.ErrMalformedCriteria):
		writeError(w, http.StatusBadRequest, msgInvalidQuery, detail(err, model.ErrMalformedCriteria))
		return
	case errors.Is(err, model.ErrNoMatchingRecords):
		writeError(w, http.StatusNotFound, msgNoMatchingJobs, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to query jobs", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, msgFetchJobsFailed, errorClass(err))
		return
	}

	writeJSON(w, http.StatusOK, JobsResponse{Message: msgJobsFetched, Data: page})
}

// parseCriteria reads the query string. Missing paging values take their
// defaults; range checks are left to the query engine.
func parseCriteria(q url.Values) (filter.Criteria, error) {
	c := filter.DefaultCriteria()
	c.Title = q.Get("title")
	c.Location = q.Get("location")

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &c.Page},
		{"pageSize", &c.PageSize},
	} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return filter.Criteria{}, fmt.Errorf("%s must be an integer number", p.name)
		}
		*p.dst = v
	}
	return c, nil
}

var errorClasses = []error{
	model.ErrImportInProgress,
	model.ErrUpstreamUnavailable,
	model.ErrEmptyUpstream,
	model.ErrPersistence,
}

// errorClass names the class of err for the details field without exposing
// driver or transport specifics.
func errorClass(err error) string {
	for _, class := range errorClasses {
		if errors.Is(err, class) {
			return class.Error()
		}
	}
	return "internal error"
}

// detail strips the error class prefix so clients see only the specifics.
func detail(err, class error) string {
	return strings.TrimPrefix(err.Error(), class.Error()+": ")
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{
		Message: message,
		Status:  statusError,
		Details: details,
	})
}
