package institution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"rollcall/internal/directory/models"
	"rollcall/internal/platform/database"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// Postgres is the production institution store. Admin username uniqueness is
// enforced by a unique index over LOWER(admin_username).
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, inst *models.Institution) error {
	query := `
		INSERT INTO institutions (id, name, admin_username, admin_pass_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(inst.ID), inst.Name, inst.AdminUsername, inst.AdminPassHash, inst.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert institution: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, instID id.InstitutionID) (*models.Institution, error) {
	query := `
		SELECT id, name, admin_username, admin_pass_hash, created_at
		FROM institutions
		WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(instID)))
}

func (s *Postgres) FindByAdminUsername(ctx context.Context, username string) (*models.Institution, error) {
	query := `
		SELECT id, name, admin_username, admin_pass_hash, created_at
		FROM institutions
		WHERE LOWER(admin_username) = LOWER($1)
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, username))
}

func (s *Postgres) scanOne(row *sql.Row) (*models.Institution, error) {
	var (
		inst   models.Institution
		instID uuid.UUID
	)
	err := row.Scan(&instID, &inst.Name, &inst.AdminUsername, &inst.AdminPassHash, &inst.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan institution: %w", err)
	}
	inst.ID = id.InstitutionID(instID)
	return &inst, nil
}
