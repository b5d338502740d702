// Package handler exposes directory administration endpoints: institution
// registration, department creation and candidate enrollment.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/directory/models"
	dirservice "rollcall/internal/directory/service"
	"rollcall/internal/platform/middleware"
	"rollcall/internal/scope"
	"rollcall/internal/transport/http/shared"
	"rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

// Service defines the interface for directory operations.
type Service interface {
	RegisterInstitution(ctx context.Context, name, adminUsername, password string) (*models.Institution, error)
	CreateDepartment(ctx context.Context, caller scope.Caller, name, managerUsername, password string) (*models.Department, error)
	EnrollCandidate(ctx context.Context, caller scope.Caller, req dirservice.EnrollmentRequest) (*models.Candidate, error)
	ListDepartments(ctx context.Context, caller scope.Caller) ([]*models.Department, error)
}

// Handler handles directory endpoints.
type Handler struct {
	logger            *slog.Logger
	directory         Service
	validator         middleware.TokenValidator
	revocationChecker middleware.TokenRevocationChecker
}

// New creates a new directory Handler.
func New(directory Service, validator middleware.TokenValidator, revocationChecker middleware.TokenRevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		logger:            logger,
		directory:         directory,
		validator:         validator,
		revocationChecker: revocationChecker,
	}
}

// Register registers the directory routes with the chi router.
// Institution registration is the bootstrap operation and needs no token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/institutions", h.handleRegisterInstitution)
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(h.validator, h.revocationChecker, h.logger))
		protected.Post("/departments", h.handleCreateDepartment)
		protected.Get("/departments", h.handleListDepartments)
		protected.Post("/candidates", h.handleEnrollCandidate)
	})
}

type registerInstitutionRequest struct {
	Name          string `json:"name"`
	AdminUsername string `json:"admin_username"`
	Password      string `json:"password"`
}

type institutionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) handleRegisterInstitution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req registerInstitutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	inst, err := h.directory.RegisterInstitution(ctx, req.Name, req.AdminUsername, req.Password)
	if err != nil {
		h.logFailure(ctx, "register institution", requestID, err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, institutionResponse{
		ID:        inst.ID.String(),
		Name:      inst.Name,
		CreatedAt: inst.CreatedAt,
	})
}

type createDepartmentRequest struct {
	Name            string `json:"name"`
	ManagerUsername string `json:"manager_username"`
	Password        string `json:"password"`
}

type departmentResponse struct {
	ID            string    `json:"id"`
	InstitutionID string    `json:"institution_id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := middleware.GetCaller(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req createDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	dept, err := h.directory.CreateDepartment(ctx, caller, req.Name, req.ManagerUsername, req.Password)
	if err != nil {
		h.logFailure(ctx, "create department", requestID, err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, departmentView(dept))
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := middleware.GetCaller(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	depts, err := h.directory.ListDepartments(ctx, caller)
	if err != nil {
		h.logFailure(ctx, "list departments", requestcontext.RequestID(ctx), err)
		shared.WriteError(w, err)
		return
	}
	views := make([]departmentResponse, 0, len(depts))
	for _, dept := range depts {
		views = append(views, departmentView(dept))
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

type enrollCandidateRequest struct {
	DepartmentID string            `json:"department_id"`
	Name         string            `json:"name"`
	EnrollmentID string            `json:"enrollment_id"`
	Username     string            `json:"username"`
	Password     string            `json:"password"`
	Descriptor   domain.Descriptor `json:"descriptor"`
}

type candidateResponse struct {
	ID           string    `json:"id"`
	DepartmentID string    `json:"department_id"`
	Name         string    `json:"name"`
	EnrollmentID string    `json:"enrollment_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *Handler) handleEnrollCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := middleware.GetCaller(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req enrollCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	var deptID domain.DepartmentID
	if req.DepartmentID != "" {
		parsed, err := domain.ParseDepartmentID(req.DepartmentID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		deptID = parsed
	}

	cand, err := h.directory.EnrollCandidate(ctx, caller, dirservice.EnrollmentRequest{
		DepartmentID: deptID,
		Name:         req.Name,
		EnrollmentID: req.EnrollmentID,
		Username:     req.Username,
		Password:     req.Password,
		Descriptor:   req.Descriptor,
	})
	if err != nil {
		h.logFailure(ctx, "enroll candidate", requestID, err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, candidateResponse{
		ID:           cand.ID.String(),
		DepartmentID: cand.DepartmentID.String(),
		Name:         cand.Name,
		EnrollmentID: cand.EnrollmentID,
		CreatedAt:    cand.CreatedAt,
	})
}

func departmentView(dept *models.Department) departmentResponse {
	return departmentResponse{
		ID:            dept.ID.String(),
		InstitutionID: dept.InstitutionID.String(),
		Name:          dept.Name,
		CreatedAt:     dept.CreatedAt,
	}
}

// logFailure logs service errors at a severity matching their code: infra
// faults are errors, everything else is caller misuse.
func (h *Handler) logFailure(ctx context.Context, op, requestID string, err error) {
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "failed to "+op,
			"request_id", requestID,
			"error", err.Error(),
		)
		return
	}
	h.logger.WarnContext(ctx, op+" rejected",
		"request_id", requestID,
		"error", err.Error(),
	)
}
