package candidate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"rollcall/internal/directory/models"
	"rollcall/internal/platform/database"
	"rollcall/internal/scope"
	"rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// Postgres is the production candidate store. Descriptors live in a
// vector(128) column; username and enrollment id uniqueness is enforced by
// unique indexes so concurrent enrollments race safely.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const candidateColumns = `id, department_id, name, enrollment_id, username, pass_hash, descriptor, created_at`

func (s *Postgres) Create(ctx context.Context, cand *models.Candidate) error {
	query := `
		INSERT INTO candidates (` + candidateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(cand.ID), uuid.UUID(cand.DepartmentID), cand.Name,
		cand.EnrollmentID, cand.Username, cand.PassHash,
		pgvector.NewVector([]float32(cand.Descriptor)), cand.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, candID domain.CandidateID) (*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`
	return scanCandidate(s.db.QueryRowContext(ctx, query, uuid.UUID(candID)))
}

func (s *Postgres) FindByUsername(ctx context.Context, username string) (*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE LOWER(username) = LOWER($1)`
	return scanCandidate(s.db.QueryRowContext(ctx, query, username))
}

// ListInScope returns the candidates covered by the filter, ordered by id so
// the match engine's tie-break is stable. An empty filter matches nothing.
func (s *Postgres) ListInScope(ctx context.Context, filter scope.Filter) ([]*models.Candidate, error) {
	if !filter.CandidateID.IsNil() {
		cand, err := s.FindByID(ctx, filter.CandidateID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []*models.Candidate{cand}, nil
	}
	if len(filter.DepartmentIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + candidateColumns + `
		FROM candidates
		WHERE department_id = ANY($1)
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(uuidSlice(filter.DepartmentIDs)))
	if err != nil {
		return nil, fmt.Errorf("query candidates in scope: %w", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}

// ListByIDs returns the candidates for the given ids, skipping unknown ones.
func (s *Postgres) ListByIDs(ctx context.Context, ids []domain.CandidateID) ([]*models.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]uuid.UUID, len(ids))
	for i, candID := range ids {
		raw[i] = uuid.UUID(candID)
	}

	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = ANY($1)`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("query candidates by ids: %w", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func uuidSlice(deptIDs []domain.DepartmentID) []uuid.UUID {
	out := make([]uuid.UUID, len(deptIDs))
	for i, d := range deptIDs {
		out[i] = uuid.UUID(d)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidateFields(row rowScanner) (*models.Candidate, error) {
	var (
		cand           models.Candidate
		candID, deptID uuid.UUID
		descriptor     pgvector.Vector
	)
	err := row.Scan(&candID, &deptID, &cand.Name, &cand.EnrollmentID,
		&cand.Username, &cand.PassHash, &descriptor, &cand.CreatedAt)
	if err != nil {
		return nil, err
	}
	cand.ID = domain.CandidateID(candID)
	cand.DepartmentID = domain.DepartmentID(deptID)
	cand.Descriptor = domain.Descriptor(descriptor.Slice())
	return &cand, nil
}

func scanCandidate(row *sql.Row) (*models.Candidate, error) {
	cand, err := scanCandidateFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	return cand, nil
}

func scanCandidates(rows *sql.Rows) ([]*models.Candidate, error) {
	var out []*models.Candidate
	for rows.Next() {
		cand, err := scanCandidateFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}
