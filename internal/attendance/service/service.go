// Package service orchestrates the recognition workflow: scope resolution,
// nearest-descriptor matching and the idempotent ledger write.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"rollcall/internal/attendance/match"
	attmetrics "rollcall/internal/attendance/metrics"
	"rollcall/internal/attendance/models"
	"rollcall/internal/attendance/store/ledger"
	dirmodels "rollcall/internal/directory/models"
	"rollcall/internal/scope"
	"rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// maxListLimit caps record listings for the reporting view.
const maxListLimit = 200

// Outcome is the terminal state of a mark-attendance request. Marked and
// AlreadyMarked are both successes; NoMatch is a valid negative result, not
// an error.
type Outcome string

const (
	OutcomeMarked        Outcome = "marked"
	OutcomeAlreadyMarked Outcome = "already_marked"
	OutcomeNoMatch       Outcome = "no_match"
)

// MatchedCandidate is the display identity of a recognized candidate.
// Deliberately excludes the descriptor and credential hash.
type MatchedCandidate struct {
	ID           domain.CandidateID `json:"id"`
	Name         string             `json:"name"`
	EnrollmentID string             `json:"enrollment_id"`
}

// MarkResult is the structured outcome returned to the caller.
type MarkResult struct {
	Outcome   Outcome           `json:"outcome"`
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Candidate *MatchedCandidate `json:"candidate,omitempty"`
	RecordID  domain.RecordID   `json:"record_id,omitzero"`
	Distance  float64           `json:"distance"`
}

// RecordView is a ledger record enriched with candidate display fields.
type RecordView struct {
	ID            domain.RecordID     `json:"id"`
	CandidateID   domain.CandidateID  `json:"candidate_id"`
	CandidateName string              `json:"candidate_name"`
	EnrollmentID  string              `json:"enrollment_id"`
	DepartmentID  domain.DepartmentID `json:"department_id"`
	Timestamp     time.Time           `json:"timestamp"`
	Status        models.Status       `json:"status"`
}

// ListFilters are the caller-supplied record query parameters. StartDate and
// EndDate are calendar dates; the end date is inclusive, so the query window
// extends to the midnight after it.
type ListFilters struct {
	CandidateID domain.CandidateID
	StartDate   *time.Time
	EndDate     *time.Time
}

// CandidateStore is the descriptor store surface the orchestrator consumes.
type CandidateStore interface {
	FindByID(ctx context.Context, candID domain.CandidateID) (*dirmodels.Candidate, error)
	ListInScope(ctx context.Context, filter scope.Filter) ([]*dirmodels.Candidate, error)
	ListByIDs(ctx context.Context, ids []domain.CandidateID) ([]*dirmodels.Candidate, error)
}

// Ledger is the attendance store surface the orchestrator consumes.
type Ledger interface {
	MarkOnce(ctx context.Context, rec *models.Record) (*models.Record, bool, error)
	Query(ctx context.Context, f ledger.QueryFilter) ([]*models.Record, error)
}

// Service composes scope resolution, matching and the ledger.
type Service struct {
	candidates CandidateStore
	ledger     Ledger
	resolver   *scope.Resolver
	threshold  float64
	metrics    *attmetrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithThreshold overrides the recognition distance threshold.
func WithThreshold(t float64) Option {
	return func(s *Service) { s.threshold = t }
}

// WithMetrics attaches Prometheus metrics. Metrics are optional; a nil
// receiver is never registered.
func WithMetrics(m *attmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(candidates CandidateStore, ldg Ledger, resolver *scope.Resolver, opts ...Option) *Service {
	s := &Service{
		candidates: candidates,
		ledger:     ldg,
		resolver:   resolver,
		threshold:  match.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkAttendance runs the full recognition workflow for one captured
// descriptor. Validation happens before any storage access; storage failures
// propagate without internal retries; retrying is a caller concern.
func (s *Service) MarkAttendance(ctx context.Context, caller scope.Caller, query domain.Descriptor) (*MarkResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if !scope.CanMark(caller) {
		return nil, dErrors.New(dErrors.CodeForbidden,
			"attendance can only be marked by institution admins or department managers")
	}

	filter, err := s.resolver.CandidateScope(ctx, caller)
	if err != nil {
		return nil, err
	}

	candidates, err := s.candidates.ListInScope(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load candidates in scope")
	}

	best, err := match.FindBest(query, candidates)
	if err != nil {
		return nil, err
	}
	if !math.IsInf(best.Distance, 1) {
		s.observeDistance(best.Distance)
	}

	if !best.Recognized(s.threshold) {
		s.incrementOutcome(OutcomeNoMatch)
		return &MarkResult{
			Outcome:  OutcomeNoMatch,
			Success:  false,
			Message:  fmt.Sprintf("Face not recognized. Distance: %.4f", best.Distance),
			Distance: best.Distance,
		}, nil
	}

	matched := best.Candidate
	rec, err := models.NewRecord(domain.NewRecordID(), matched.ID, matched.DepartmentID,
		models.StatusPresent, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	surviving, created, err := s.ledger.MarkOnce(ctx, rec)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "write attendance record")
	}

	result := &MarkResult{
		Success:  true,
		Distance: best.Distance,
		RecordID: surviving.ID,
		Candidate: &MatchedCandidate{
			ID:           matched.ID,
			Name:         matched.Name,
			EnrollmentID: matched.EnrollmentID,
		},
	}
	if created {
		result.Outcome = OutcomeMarked
		result.Message = fmt.Sprintf("Attendance marked successfully for %s.", matched.Name)
	} else {
		result.Outcome = OutcomeAlreadyMarked
		result.Message = fmt.Sprintf("%s's attendance was already marked today.", matched.Name)
	}
	s.incrementOutcome(result.Outcome)
	return result, nil
}

// ListRecords returns ledger records visible to the caller, newest first,
// enriched with candidate display fields, capped at 200.
func (s *Service) ListRecords(ctx context.Context, caller scope.Caller, filters ListFilters) ([]RecordView, error) {
	scopeFilter, err := s.resolver.CandidateScope(ctx, caller)
	if err != nil {
		return nil, err
	}

	qf := ledger.QueryFilter{Limit: maxListLimit}
	switch {
	case !scopeFilter.CandidateID.IsNil():
		// Candidate self-scope always queries its own records; an explicit
		// candidate id filter from a candidate is ignored, as upstream.
		qf.CandidateID = scopeFilter.CandidateID
	case !filters.CandidateID.IsNil():
		cand, err := s.candidates.FindByID(ctx, filters.CandidateID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up candidate")
		}
		if !scopeFilter.AllowsDepartment(cand.DepartmentID) {
			return nil, dErrors.New(dErrors.CodeForbidden,
				"cannot view records for candidates outside your scope")
		}
		qf.CandidateID = cand.ID
	default:
		qf.DepartmentIDs = scopeFilter.DepartmentIDs
	}

	if filters.StartDate != nil {
		start := models.DayOf(*filters.StartDate)
		qf.Start = &start
	}
	if filters.EndDate != nil {
		// Inclusive end date: extend to the midnight after it.
		end := models.DayOf(*filters.EndDate).Add(24 * time.Hour)
		qf.End = &end
	}

	records, err := s.ledger.Query(ctx, qf)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query attendance records")
	}
	return s.enrich(ctx, records)
}

func (s *Service) enrich(ctx context.Context, records []*models.Record) ([]RecordView, error) {
	seen := make(map[domain.CandidateID]bool)
	var candIDs []domain.CandidateID
	for _, rec := range records {
		if !seen[rec.CandidateID] {
			seen[rec.CandidateID] = true
			candIDs = append(candIDs, rec.CandidateID)
		}
	}
	cands, err := s.candidates.ListByIDs(ctx, candIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load candidates for display")
	}
	byID := make(map[domain.CandidateID]*dirmodels.Candidate, len(cands))
	for _, cand := range cands {
		byID[cand.ID] = cand
	}

	views := make([]RecordView, 0, len(records))
	for _, rec := range records {
		view := RecordView{
			ID:           rec.ID,
			CandidateID:  rec.CandidateID,
			DepartmentID: rec.DepartmentID,
			Timestamp:    rec.Timestamp,
			Status:       rec.Status,
		}
		if cand, ok := byID[rec.CandidateID]; ok {
			view.CandidateName = cand.Name
			view.EnrollmentID = cand.EnrollmentID
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) incrementOutcome(outcome Outcome) {
	if s.metrics != nil {
		s.metrics.IncrementOutcome(string(outcome))
	}
}

func (s *Service) observeDistance(d float64) {
	if s.metrics != nil {
		s.metrics.ObserveDistance(d)
	}
}
