// Package resultshandlers exposes the round lifecycle over HTTP.
package resultshandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	resultsservice "github.com/Black-And-White-Club/live-results/app/modules/results/application"
	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/Black-And-White-Club/live-results/pkg/attr"
	"github.com/Black-And-White-Club/live-results/pkg/results"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies. A full set of attempts is far smaller.
const maxBodyBytes = 64 << 10

// ResultsHandlers serves the round endpoints.
type ResultsHandlers struct {
	service resultsservice.Service
	logger  *slog.Logger
}

// NewResultsHandlers creates the HTTP handlers.
func NewResultsHandlers(service resultsservice.Service, logger *slog.Logger) *ResultsHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsHandlers{service: service, logger: logger}
}

// Routes mounts the round endpoints on r.
func (h *ResultsHandlers) Routes(r chi.Router) {
	r.Route("/competitions/{competitionID}/rounds/{roundID}", func(r chi.Router) {
		r.Get("/", h.HandleGetRound)
		r.Get("/status", h.HandleGetRoundStatus)
		r.Post("/open", h.HandleOpenRound)
		r.Post("/clear", h.HandleClearRound)
		r.Post("/competitors", h.HandleAddCompetitor)
		r.Delete("/competitors/{competitorID}", h.HandleRemoveCompetitor)
		r.Post("/no-shows", h.HandleRemoveNoShows)
		r.Put("/results/{competitorID}/attempts", h.HandleEnterAttempts)
	})
}

type addCompetitorRequest struct {
	CompetitorID int `json:"competitor_id"`
}

type noShowsRequest struct {
	CompetitorIDs []int `json:"competitor_ids"`
}

type enterAttemptsRequest struct {
	Attempts  []resultsdomain.Attempt `json:"attempts"`
	EnteredBy *int                    `json:"entered_by,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *ResultsHandlers) HandleGetRound(w http.ResponseWriter, r *http.Request) {
	competitionID, roundID, ok := h.roundParams(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetRound(r.Context(), competitionID, roundID)
	writeResult(h, w, r, result, err, http.StatusOK)
}

func (h *ResultsHandlers) HandleGetRoundStatus(w http.ResponseWriter, r *http.Request) {
	competitionID, roundID, ok := h.roundParams(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetRoundStatus(r.Context(), competitionID, roundID)
	writeResult(h, w, r, result, err, http.StatusOK)
}

func (h *ResultsHandlers) HandleOpenRound(w http.ResponseWriter, r *http.Request) {
	competitionID, roundID, ok := h.roundParams(w, r)
	if !ok {
		return
	}
	result, err := h.service.OpenRound(r.Context(), competitionID, roundID)
	writeResult(h, w, r, result, err, http.StatusOK)
}

func (h *ResultsHandlers) HandleClearRound(w http.ResponseWriter, r *http.Request) {
	competitionID, roundID, ok := h.roundParams(w, r)
	if !ok {
		return
	}
	result, err := h.service.ClearRound(r.Context(), competitionID, roundID)
	writeResult(h, w, r, result, err, http.StatusOK)
}

func (h *ResultsHandlers) HandleAddCompetitor(w http.ResponseWriter, r *http.Request) {
	competitionID, roundID, ok := h.roundParams(w, r)
	if !ok {
		return
	}
	var req addCompetitorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CompetitorID <= 0 {
		writeError(w, http.StatusBadRequest, "competitor_id is required")
		return
	}
	result, err := h.service.AddCompetitorToRound(r.Context(), competitionID, roundID, req.CompetitorID)
	writeResult(h, w, r, result, err, http.StatusOK)
}

func (h *ResultsHandlers) HandleRemoveCompetitor(w http.ResponseWriter, r *http.Request) {
	competitionID, roundID, ok := h.roundParams(w, r)
	if !ok {
		return
	}
	competitorID, ok := competitorParam(w, r)
	if !ok {
		return
	}
	replace := false
	if raw := r.URL.Query().Get("replace"); raw != "" {
		var err error
		if replace, err = strconv.ParseBool(raw); err != nil {
			writeError(w, http.StatusBadRequest, "replace must be a boolean")
			return
		}
	}
	result, err := h.service.RemoveCompetitorFromRound(r.Context(), competitionID, roundID, competitorID, replace)
	writeResult(h, w, r, result, err, http.StatusOK)
}

func (h *ResultsHandlers) HandleRemoveNoShows(w http.ResponseWriter, r *http.Request) {
	competitionID, roundID, ok := h.roundParams(w, r)
	if !ok {
		return
	}
	var req noShowsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.CompetitorIDs) == 0 {
		writeError(w, http.StatusBadRequest, "competitor_ids is required")
		return
	}
	result, err := h.service.RemoveNoShows(r.Context(), competitionID, roundID, req.CompetitorIDs)
	writeResult(h, w, r, result, err, http.StatusOK)
}

func (h *ResultsHandlers) HandleEnterAttempts(w http.ResponseWriter, r *http.Request) {
	competitionID, roundID, ok := h.roundParams(w, r)
	if !ok {
		return
	}
	competitorID, ok := competitorParam(w, r)
	if !ok {
		return
	}
	var req enterAttemptsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.service.EnterResultAttempts(r.Context(), competitionID, roundID, competitorID, req.Attempts, req.EnteredBy)
	writeResult(h, w, r, result, err, http.StatusOK)
}

func (h *ResultsHandlers) roundParams(w http.ResponseWriter, r *http.Request) (string, resultsdomain.RoundID, bool) {
	competitionID := chi.URLParam(r, "competitionID")
	if competitionID == "" {
		writeError(w, http.StatusBadRequest, "missing competition id")
		return "", resultsdomain.RoundID{}, false
	}
	roundID, err := resultsdomain.ParseRoundID(chi.URLParam(r, "roundID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", resultsdomain.RoundID{}, false
	}
	return competitionID, roundID, true
}

func competitorParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "competitorID"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid competitor id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// writeResult renders an operation result. Failures carry a domain error and
// map to a 4xx status; a plain error is an internal fault.
func writeResult[S any](h *ResultsHandlers, w http.ResponseWriter, r *http.Request, result results.OperationResult[S, error], err error, okStatus int) {
	ctx := r.Context()
	if err != nil {
		h.logger.ErrorContext(ctx, "Request failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if result.IsFailure() {
		failure := *result.Failure
		writeError(w, statusFor(failure), failure.Error())
		return
	}
	if !result.IsSuccess() {
		writeError(w, http.StatusInternalServerError, "empty result")
		return
	}
	writeJSON(w, okStatus, *result.Success)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, resultsdomain.ErrCompetitionNotFound),
		errors.Is(err, resultsdomain.ErrRoundNotFound),
		errors.Is(err, resultsdomain.ErrCompetitorNotInRound):
		return http.StatusNotFound
	case errors.Is(err, resultsdomain.ErrAlreadyOpen),
		errors.Is(err, resultsdomain.ErrNextRoundOpen),
		errors.Is(err, resultsdomain.ErrPreviousRoundInsufficient):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
