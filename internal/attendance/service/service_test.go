package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rollcall/internal/attendance/models"
	"rollcall/internal/attendance/store/ledger"
	dirmodels "rollcall/internal/directory/models"
	"rollcall/internal/directory/store/candidate"
	"rollcall/internal/directory/store/department"
	"rollcall/internal/scope"
	"rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

// The suite wires the real in-memory stores so the recognition workflow
// runs end to end without a database.
type AttendanceServiceSuite struct {
	suite.Suite
	candidates  *candidate.InMemory
	departments *department.InMemory
	ledgerStore *ledger.InMemory
	svc         *Service

	instID domain.InstitutionID
	deptA  domain.DepartmentID
	deptB  domain.DepartmentID
	ada    *dirmodels.Candidate
	bea    *dirmodels.Candidate
}

func TestAttendanceServiceSuite(t *testing.T) {
	suite.Run(t, new(AttendanceServiceSuite))
}

// descriptorAt builds a full-length vector whose first element is v, so
// pairwise distances are |v1-v2| and easy to reason about.
func descriptorAt(v float32) domain.Descriptor {
	d := make(domain.Descriptor, domain.DescriptorLen)
	d[0] = v
	return d
}

func (s *AttendanceServiceSuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *AttendanceServiceSuite) noon() time.Time {
	return time.Date(2026, 8, 29, 12, 0, 0, 0, time.Local)
}

func (s *AttendanceServiceSuite) seedCandidate(deptID domain.DepartmentID, name, enrollmentID, username string, descriptor domain.Descriptor) *dirmodels.Candidate {
	cand, err := dirmodels.NewCandidate(domain.NewCandidateID(), deptID, name,
		enrollmentID, username, "hash", descriptor, s.noon())
	s.Require().NoError(err)
	s.Require().NoError(s.candidates.Create(context.Background(), cand))
	return cand
}

func (s *AttendanceServiceSuite) SetupTest() {
	s.candidates = candidate.NewInMemory()
	s.departments = department.NewInMemory()
	s.ledgerStore = ledger.NewInMemory()
	s.svc = New(s.candidates, s.ledgerStore, scope.NewResolver(s.departments))

	s.instID = domain.NewInstitutionID()
	deptA, err := dirmodels.NewDepartment(domain.NewDepartmentID(), s.instID, "Physics", "physmgr", "hash", s.noon())
	s.Require().NoError(err)
	deptB, err := dirmodels.NewDepartment(domain.NewDepartmentID(), s.instID, "Chemistry", "chemmgr", "hash", s.noon())
	s.Require().NoError(err)
	s.Require().NoError(s.departments.Create(context.Background(), deptA))
	s.Require().NoError(s.departments.Create(context.Background(), deptB))
	s.deptA, s.deptB = deptA.ID, deptB.ID

	s.ada = s.seedCandidate(s.deptA, "Ada", "ENR-1", "ada", descriptorAt(0))
	s.bea = s.seedCandidate(s.deptB, "Bea", "ENR-2", "bea", descriptorAt(10))
}

func (s *AttendanceServiceSuite) admin() scope.Caller {
	return scope.InstitutionAdmin{InstitutionID: s.instID}
}

func (s *AttendanceServiceSuite) TestMarkAttendance() {
	s.Run("recognized candidate is marked", func() {
		result, err := s.svc.MarkAttendance(s.ctxAt(s.noon()), s.admin(), descriptorAt(0.1))
		s.Require().NoError(err)
		s.Equal(OutcomeMarked, result.Outcome)
		s.True(result.Success)
		s.Equal("Attendance marked successfully for Ada.", result.Message)
		s.Require().NotNil(result.Candidate)
		s.Equal(s.ada.ID, result.Candidate.ID)
		s.Equal("ENR-1", result.Candidate.EnrollmentID)
		s.InDelta(0.1, result.Distance, 1e-6)
		s.False(result.RecordID.IsNil())
	})

	s.Run("second mark the same day is idempotent", func() {
		first, err := s.svc.MarkAttendance(s.ctxAt(s.noon()), s.admin(), descriptorAt(0))
		s.Require().NoError(err)

		second, err := s.svc.MarkAttendance(s.ctxAt(s.noon().Add(2*time.Hour)), s.admin(), descriptorAt(0))
		s.Require().NoError(err)
		s.Equal(OutcomeAlreadyMarked, second.Outcome)
		s.True(second.Success)
		s.Equal("Ada's attendance was already marked today.", second.Message)
		s.Equal(first.RecordID, second.RecordID, "the original record survives")
	})

	s.Run("a new day creates a new record", func() {
		_, err := s.svc.MarkAttendance(s.ctxAt(s.noon()), s.admin(), descriptorAt(0))
		s.Require().NoError(err)

		nextDay, err := s.svc.MarkAttendance(s.ctxAt(s.noon().Add(24*time.Hour)), s.admin(), descriptorAt(0))
		s.Require().NoError(err)
		s.Equal(OutcomeMarked, nextDay.Outcome)
	})

	s.Run("no candidate within threshold is a no-match, not an error", func() {
		before, err := s.ledgerStore.Query(context.Background(), ledger.QueryFilter{DepartmentIDs: []domain.DepartmentID{s.deptA, s.deptB}})
		s.Require().NoError(err)

		result, err := s.svc.MarkAttendance(s.ctxAt(s.noon()), s.admin(), descriptorAt(5))
		s.Require().NoError(err)
		s.Equal(OutcomeNoMatch, result.Outcome)
		s.False(result.Success)
		s.Equal("Face not recognized. Distance: 5.0000", result.Message)
		s.Nil(result.Candidate)

		after, err := s.ledgerStore.Query(context.Background(), ledger.QueryFilter{DepartmentIDs: []domain.DepartmentID{s.deptA, s.deptB}})
		s.Require().NoError(err)
		s.Len(after, len(before), "no-match must not write to the ledger")
	})

	s.Run("manager scope excludes other departments", func() {
		manager := scope.DepartmentManager{DepartmentID: s.deptA}

		// The probe is Bea's exact descriptor, but Bea is in another
		// department, so the manager's scan cannot see her.
		result, err := s.svc.MarkAttendance(s.ctxAt(s.noon()), manager, descriptorAt(10))
		s.Require().NoError(err)
		s.Equal(OutcomeNoMatch, result.Outcome)
	})

	s.Run("candidates cannot mark attendance", func() {
		_, err := s.svc.MarkAttendance(s.ctxAt(s.noon()), scope.CandidateSelf{CandidateID: s.ada.ID}, descriptorAt(0))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("malformed descriptor is rejected before any lookup", func() {
		_, err := s.svc.MarkAttendance(s.ctxAt(s.noon()), s.admin(), make(domain.Descriptor, 3))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidDescriptor))
	})
}

func (s *AttendanceServiceSuite) markBoth() {
	_, err := s.svc.MarkAttendance(s.ctxAt(s.noon()), s.admin(), descriptorAt(0))
	s.Require().NoError(err)
	_, err = s.svc.MarkAttendance(s.ctxAt(s.noon().Add(time.Hour)), s.admin(), descriptorAt(10))
	s.Require().NoError(err)
}

func (s *AttendanceServiceSuite) TestListRecords() {
	s.Run("admin sees records across all departments", func() {
		s.markBoth()
		records, err := s.svc.ListRecords(context.Background(), s.admin(), ListFilters{})
		s.Require().NoError(err)
		s.Len(records, 2)
	})

	s.Run("records carry candidate display fields", func() {
		s.markBoth()
		records, err := s.svc.ListRecords(context.Background(), s.admin(), ListFilters{CandidateID: s.ada.ID})
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.Equal("Ada", records[0].CandidateName)
		s.Equal("ENR-1", records[0].EnrollmentID)
	})

	s.Run("manager sees only its department", func() {
		s.markBoth()
		manager := scope.DepartmentManager{DepartmentID: s.deptA}
		records, err := s.svc.ListRecords(context.Background(), manager, ListFilters{})
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.Equal(s.ada.ID, records[0].CandidateID)
	})

	s.Run("manager cannot query a candidate outside its department", func() {
		s.markBoth()
		manager := scope.DepartmentManager{DepartmentID: s.deptA}
		_, err := s.svc.ListRecords(context.Background(), manager, ListFilters{CandidateID: s.bea.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown explicit candidate is not found", func() {
		_, err := s.svc.ListRecords(context.Background(), s.admin(), ListFilters{CandidateID: domain.NewCandidateID()})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("candidate self-scope overrides explicit filters", func() {
		s.markBoth()
		self := scope.CandidateSelf{CandidateID: s.ada.ID}
		records, err := s.svc.ListRecords(context.Background(), self, ListFilters{CandidateID: s.bea.ID})
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.Equal(s.ada.ID, records[0].CandidateID)
	})

	s.Run("date window bounds are inclusive", func() {
		s.markBoth()
		day := models.DayOf(s.noon())
		records, err := s.svc.ListRecords(context.Background(), s.admin(), ListFilters{
			StartDate: &day,
			EndDate:   &day,
		})
		s.Require().NoError(err)
		s.Len(records, 2, "records on the end date itself are included")

		before := day.AddDate(0, 0, -2)
		dayBefore := day.AddDate(0, 0, -1)
		records, err = s.svc.ListRecords(context.Background(), s.admin(), ListFilters{
			StartDate: &before,
			EndDate:   &dayBefore,
		})
		s.Require().NoError(err)
		s.Empty(records)
	})
}
