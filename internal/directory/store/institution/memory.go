package institution

import (
	"context"
	"strings"
	"sync"

	"rollcall/internal/directory/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded institution store for tests and single-node
// development runs. It favors clarity over performance.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.InstitutionID]*models.Institution
	byAdmin map[string]id.InstitutionID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.InstitutionID]*models.Institution),
		byAdmin: make(map[string]id.InstitutionID),
	}
}

// Create inserts the institution if its admin username is still free.
// Username uniqueness is case-insensitive. Returns sentinel.ErrAlreadyUsed
// on a taken username so the check-then-insert is atomic under the lock.
func (s *InMemory) Create(_ context.Context, inst *models.Institution) error {
	key := strings.ToLower(inst.AdminUsername)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byAdmin[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[inst.ID] = inst
	s.byAdmin[key] = inst.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, instID id.InstitutionID) (*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if inst, ok := s.byID[instID]; ok {
		return inst, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByAdminUsername(_ context.Context, username string) (*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if instID, ok := s.byAdmin[strings.ToLower(username)]; ok {
		return s.byID[instID], nil
	}
	return nil, sentinel.ErrNotFound
}
