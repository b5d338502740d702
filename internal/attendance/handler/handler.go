// Package handler exposes the recognition endpoints: mark attendance from a
// captured descriptor and list ledger records.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	attservice "rollcall/internal/attendance/service"
	"rollcall/internal/platform/middleware"
	"rollcall/internal/scope"
	"rollcall/internal/transport/http/shared"
	"rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

// dateLayout is the calendar-date format accepted by the records query.
const dateLayout = "2006-01-02"

// Service defines the interface for attendance operations.
type Service interface {
	MarkAttendance(ctx context.Context, caller scope.Caller, query domain.Descriptor) (*attservice.MarkResult, error)
	ListRecords(ctx context.Context, caller scope.Caller, filters attservice.ListFilters) ([]attservice.RecordView, error)
}

// Handler handles attendance endpoints.
type Handler struct {
	logger            *slog.Logger
	attendance        Service
	validator         middleware.TokenValidator
	revocationChecker middleware.TokenRevocationChecker
}

// New creates a new attendance Handler.
func New(attendance Service, validator middleware.TokenValidator, revocationChecker middleware.TokenRevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		logger:            logger,
		attendance:        attendance,
		validator:         validator,
		revocationChecker: revocationChecker,
	}
}

// Register registers the attendance routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(h.validator, h.revocationChecker, h.logger))
		protected.Post("/attendance/mark", h.handleMark)
		protected.Get("/attendance/records", h.handleListRecords)
	})
}

type markRequest struct {
	Descriptor domain.Descriptor `json:"descriptor"`
}

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := middleware.GetCaller(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req markRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid mark request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.attendance.MarkAttendance(ctx, caller, req.Descriptor)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to mark attendance",
				"request_id", requestID,
				"error", err.Error(),
			)
		} else {
			h.logger.WarnContext(ctx, "mark attendance rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "mark attendance",
		"request_id", requestID,
		"outcome", result.Outcome,
		"distance", result.Distance,
	)
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := middleware.GetCaller(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	filters, err := parseListFilters(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	records, err := h.attendance.ListRecords(ctx, caller, filters)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to list attendance records",
				"request_id", requestID,
				"error", err.Error(),
			)
		} else {
			h.logger.WarnContext(ctx, "list attendance records rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func parseListFilters(r *http.Request) (attservice.ListFilters, error) {
	var filters attservice.ListFilters
	q := r.URL.Query()

	if raw := q.Get("candidateId"); raw != "" {
		candID, err := domain.ParseCandidateID(raw)
		if err != nil {
			return filters, err
		}
		filters.CandidateID = candID
	}
	if raw := q.Get("startDate"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return filters, dErrors.New(dErrors.CodeBadRequest, "startDate must be YYYY-MM-DD")
		}
		filters.StartDate = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return filters, dErrors.New(dErrors.CodeBadRequest, "endDate must be YYYY-MM-DD")
		}
		filters.EndDate = &t
	}
	return filters, nil
}
