package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"rollcall/internal/directory/store/candidate"
	"rollcall/internal/directory/store/department"
	"rollcall/internal/directory/store/institution"
	"rollcall/internal/scope"
	"rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

type DirectoryServiceSuite struct {
	suite.Suite
	institutions *institution.InMemory
	departments  *department.InMemory
	candidates   *candidate.InMemory
	svc          *Service
	ctx          context.Context
}

func (s *DirectoryServiceSuite) SetupTest() {
	s.institutions = institution.NewInMemory()
	s.departments = department.NewInMemory()
	s.candidates = candidate.NewInMemory()
	s.svc = New(s.institutions, s.departments, s.candidates)
	s.ctx = context.Background()
}

func TestDirectoryServiceSuite(t *testing.T) {
	suite.Run(t, new(DirectoryServiceSuite))
}

func fullDescriptor() domain.Descriptor {
	return make(domain.Descriptor, domain.DescriptorLen)
}

func (s *DirectoryServiceSuite) TestRegisterInstitution() {
	s.Run("registers and hashes the admin credential", func() {
		inst, err := s.svc.RegisterInstitution(s.ctx, "Springfield U", "admin", "password1")
		s.Require().NoError(err)
		s.Equal("Springfield U", inst.Name)
		s.NotEqual("password1", inst.AdminPassHash)
		s.NoError(bcrypt.CompareHashAndPassword([]byte(inst.AdminPassHash), []byte("password1")))
	})

	s.Run("rejects short passwords", func() {
		_, err := s.svc.RegisterInstitution(s.ctx, "Springfield U", "admin2", "short")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects duplicate admin usernames", func() {
		_, err := s.svc.RegisterInstitution(s.ctx, "First", "shared", "password1")
		s.Require().NoError(err)

		_, err = s.svc.RegisterInstitution(s.ctx, "Second", "shared", "password2")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *DirectoryServiceSuite) TestCreateDepartment() {
	inst, err := s.svc.RegisterInstitution(s.ctx, "Springfield U", "admin", "password1")
	s.Require().NoError(err)
	admin := scope.InstitutionAdmin{InstitutionID: inst.ID}

	s.Run("admin creates a department under its institution", func() {
		dept, err := s.svc.CreateDepartment(s.ctx, admin, "Physics", "physmgr", "password1")
		s.Require().NoError(err)
		s.Equal(inst.ID, dept.InstitutionID)
	})

	s.Run("managers cannot create departments", func() {
		manager := scope.DepartmentManager{DepartmentID: domain.NewDepartmentID()}
		_, err := s.svc.CreateDepartment(s.ctx, manager, "Rogue", "roguemgr", "password1")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *DirectoryServiceSuite) TestEnrollCandidate() {
	inst, err := s.svc.RegisterInstitution(s.ctx, "Springfield U", "admin", "password1")
	s.Require().NoError(err)
	admin := scope.InstitutionAdmin{InstitutionID: inst.ID}

	dept, err := s.svc.CreateDepartment(s.ctx, admin, "Physics", "physmgr", "password1")
	s.Require().NoError(err)
	manager := scope.DepartmentManager{DepartmentID: dept.ID}

	s.Run("manager enrolls into its own department by default", func() {
		cand, err := s.svc.EnrollCandidate(s.ctx, manager, EnrollmentRequest{
			Name:         "Ada",
			EnrollmentID: "ENR-1",
			Username:     "ada",
			Password:     "password1",
			Descriptor:   fullDescriptor(),
		})
		s.Require().NoError(err)
		s.Equal(dept.ID, cand.DepartmentID)
	})

	s.Run("manager cannot enroll into another department", func() {
		_, err := s.svc.EnrollCandidate(s.ctx, manager, EnrollmentRequest{
			DepartmentID: domain.NewDepartmentID(),
			Name:         "Eve",
			EnrollmentID: "ENR-2",
			Username:     "eve",
			Password:     "password1",
			Descriptor:   fullDescriptor(),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin must name a department", func() {
		_, err := s.svc.EnrollCandidate(s.ctx, admin, EnrollmentRequest{
			Name:         "Eve",
			EnrollmentID: "ENR-3",
			Username:     "eve",
			Password:     "password1",
			Descriptor:   fullDescriptor(),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("admin cannot enroll into another institution's department", func() {
		otherInst, err := s.svc.RegisterInstitution(s.ctx, "Shelbyville U", "admin2", "password1")
		s.Require().NoError(err)
		otherDept, err := s.svc.CreateDepartment(s.ctx,
			scope.InstitutionAdmin{InstitutionID: otherInst.ID}, "History", "histmgr", "password1")
		s.Require().NoError(err)

		_, err = s.svc.EnrollCandidate(s.ctx, admin, EnrollmentRequest{
			DepartmentID: otherDept.ID,
			Name:         "Eve",
			EnrollmentID: "ENR-4",
			Username:     "eve2",
			Password:     "password1",
			Descriptor:   fullDescriptor(),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("candidates cannot enroll anyone", func() {
		_, err := s.svc.EnrollCandidate(s.ctx, scope.CandidateSelf{CandidateID: domain.NewCandidateID()}, EnrollmentRequest{
			Name:         "Eve",
			EnrollmentID: "ENR-5",
			Username:     "eve3",
			Password:     "password1",
			Descriptor:   fullDescriptor(),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("descriptor shape is validated first", func() {
		_, err := s.svc.EnrollCandidate(s.ctx, manager, EnrollmentRequest{
			Name:         "Eve",
			EnrollmentID: "ENR-6",
			Username:     "eve4",
			Password:     "password1",
			Descriptor:   make(domain.Descriptor, 7),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidDescriptor))
	})
}

func (s *DirectoryServiceSuite) TestListDepartments() {
	inst, err := s.svc.RegisterInstitution(s.ctx, "Springfield U", "admin", "password1")
	s.Require().NoError(err)
	admin := scope.InstitutionAdmin{InstitutionID: inst.ID}

	_, err = s.svc.CreateDepartment(s.ctx, admin, "Physics", "physmgr", "password1")
	s.Require().NoError(err)
	_, err = s.svc.CreateDepartment(s.ctx, admin, "Chemistry", "chemmgr", "password1")
	s.Require().NoError(err)

	s.Run("admin lists its departments", func() {
		depts, err := s.svc.ListDepartments(s.ctx, admin)
		s.Require().NoError(err)
		s.Len(depts, 2)
	})

	s.Run("managers cannot list departments", func() {
		manager := scope.DepartmentManager{DepartmentID: domain.NewDepartmentID()}
		_, err := s.svc.ListDepartments(s.ctx, manager)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
