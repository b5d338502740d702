package department

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

// Postgres is the production department store. Manager username uniqueness
// is enforced by a unique index over LOWER(manager_username).
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, dept *models.Department) error {
	query := `
		INSERT INTO departments (id, institution_id, name, manager_username, manager_pass_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(dept.ID), uuid.UUID(dept.InstitutionID), dept.Name,
		dept.ManagerUsername, dept.ManagerPassHash, dept.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, deptID id.DepartmentID) (*models.Department, error) {
	query := `
		SELECT id, institution_id, name, manager_username, manager_pass_hash, created_at
		FROM departments
		WHERE id = $1
	`
	return scanDepartment(s.db.QueryRowContext(ctx, query, uuid.UUID(deptID)))
}

func (s *Postgres) FindByManagerUsername(ctx context.Context, username string) (*models.Department, error) {
	query := `
		SELECT id, institution_id, name, manager_username, manager_pass_hash, created_at
		FROM departments
		WHERE LOWER(manager_username) = LOWER($1)
	`
	return scanDepartment(s.db.QueryRowContext(ctx, query, username))
}

// ListByInstitution returns the institution's departments ordered by id so
// scope expansion is deterministic.
func (s *Postgres) ListByInstitution(ctx context.Context, instID id.InstitutionID) ([]*models.Department, error) {
	query := `
		SELECT id, institution_id, name, manager_username, manager_pass_hash, created_at
		FROM departments
		WHERE institution_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(instID))
	if err != nil {
		return nil, fmt.Errorf("query departments: %w", err)
	}
	defer rows.Close()

	var out []*models.Department
	for rows.Next() {
		dept, err := scanDepartmentRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, dept)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departments: %w", err)
	}
	return out, nil
}

func scanDepartment(row *sql.Row) (*models.Department, error) {
	var (
		dept           models.Department
		deptID, instID uuid.UUID
	)
	err := row.Scan(&deptID, &instID, &dept.Name, &dept.ManagerUsername, &dept.ManagerPassHash, &dept.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan department: %w", err)
	}
	dept.ID = id.DepartmentID(deptID)
	dept.InstitutionID = id.InstitutionID(instID)
	return &dept, nil
}

func scanDepartmentRow(rows *sql.Rows) (*models.Department, error) {
	var (
		dept           models.Department
		deptID, instID uuid.UUID
	)
	if err := rows.Scan(&deptID, &instID, &dept.Name, &dept.ManagerUsername, &dept.ManagerPassHash, &dept.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan department: %w", err)
	}
	dept.ID = id.DepartmentID(deptID)
	dept.InstitutionID = id.InstitutionID(instID)
	return &dept, nil
}
