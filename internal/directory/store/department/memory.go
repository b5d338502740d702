package department

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rollcall/internal/directory/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded department store for tests and single-node
// development runs.
type InMemory struct {
	mu        sync.RWMutex
	byID      map[id.DepartmentID]*models.Department
	byManager map[string]id.DepartmentID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:      make(map[id.DepartmentID]*models.Department),
		byManager: make(map[string]id.DepartmentID),
	}
}

// Create inserts the department if its manager username is still free
// (case-insensitive). Returns sentinel.ErrAlreadyUsed on a taken username.
func (s *InMemory) Create(_ context.Context, dept *models.Department) error {
	key := strings.ToLower(dept.ManagerUsername)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byManager[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[dept.ID] = dept
	s.byManager[key] = dept.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, deptID id.DepartmentID) (*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if dept, ok := s.byID[deptID]; ok {
		return dept, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByManagerUsername(_ context.Context, username string) (*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if deptID, ok := s.byManager[strings.ToLower(username)]; ok {
		return s.byID[deptID], nil
	}
	return nil, sentinel.ErrNotFound
}

// ListByInstitution returns the institution's departments ordered by id so
// scope expansion is deterministic.
func (s *InMemory) ListByInstitution(_ context.Context, instID id.InstitutionID) ([]*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Department
	for _, dept := range s.byID {
		if dept.InstitutionID == instID {
			out = append(out, dept)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := uuid.UUID(out[i].ID), uuid.UUID(out[j].ID)
		return bytes.Compare(a[:], b[:]) < 0
	})
	return out, nil
}
