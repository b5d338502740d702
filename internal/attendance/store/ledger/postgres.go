package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rollcall/internal/attendance/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// Postgres is the production ledger. The attendance_once_per_day_key unique
// index over (candidate_id, day) is what serializes concurrent marks: the
// insert uses ON CONFLICT DO NOTHING, and the loser of a race reads back the
// winner's row.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const recordColumns = `id, candidate_id, department_id, ts, status`

// MarkOnce inserts rec unless a record for the same candidate already exists
// on rec.Timestamp's calendar day. Returns the surviving record and whether
// this call created it.
func (s *Postgres) MarkOnce(ctx context.Context, rec *models.Record) (*models.Record, bool, error) {
	day := models.DayOf(rec.Timestamp)

	query := `
		INSERT INTO attendance_records (id, candidate_id, department_id, ts, day, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (candidate_id, day) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(rec.ID), uuid.UUID(rec.CandidateID), uuid.UUID(rec.DepartmentID),
		rec.Timestamp, day, string(rec.Status),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert attendance record: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("attendance rows affected: %w", err)
	}
	if inserted == 1 {
		return rec, true, nil
	}

	existing, err := s.FindOnDay(ctx, rec.CandidateID, rec.Timestamp)
	if err != nil {
		return nil, false, fmt.Errorf("read back existing record: %w", err)
	}
	return existing, false, nil
}

// FindOnDay returns the candidate's record for the calendar day containing
// at, or sentinel.ErrNotFound.
func (s *Postgres) FindOnDay(ctx context.Context, candID id.CandidateID, at time.Time) (*models.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE candidate_id = $1 AND day = $2
	`
	rec, err := scanRecordFields(s.db.QueryRowContext(ctx, query, uuid.UUID(candID), models.DayOf(at)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan attendance record: %w", err)
	}
	return rec, nil
}

// Query returns matching records sorted by timestamp descending, capped at
// f.Limit when positive.
func (s *Postgres) Query(ctx context.Context, f QueryFilter) ([]*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE `
	var (
		args  []any
		where string
	)
	switch {
	case !f.CandidateID.IsNil():
		args = append(args, uuid.UUID(f.CandidateID))
		where = fmt.Sprintf("candidate_id = $%d", len(args))
	case len(f.DepartmentIDs) > 0:
		raw := make([]uuid.UUID, len(f.DepartmentIDs))
		for i, d := range f.DepartmentIDs {
			raw[i] = uuid.UUID(d)
		}
		args = append(args, pq.Array(raw))
		where = fmt.Sprintf("department_id = ANY($%d)", len(args))
	default:
		return nil, nil
	}
	if f.Start != nil {
		args = append(args, *f.Start)
		where += fmt.Sprintf(" AND ts >= $%d", len(args))
	}
	if f.End != nil {
		args = append(args, *f.End)
		where += fmt.Sprintf(" AND ts < $%d", len(args))
	}
	query += where + " ORDER BY ts DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		rec, err := scanRecordFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecordFields(row rowScanner) (*models.Record, error) {
	var (
		rec                   models.Record
		recID, candID, deptID uuid.UUID
		status                string
	)
	if err := row.Scan(&recID, &candID, &deptID, &rec.Timestamp, &status); err != nil {
		return nil, err
	}
	rec.ID = id.RecordID(recID)
	rec.CandidateID = id.CandidateID(candID)
	rec.DepartmentID = id.DepartmentID(deptID)
	rec.Status = models.Status(status)
	return &rec, nil
}
