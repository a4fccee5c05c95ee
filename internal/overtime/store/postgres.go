package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"punchclock/internal/overtime/models"
	"punchclock/internal/overtime/ports"
	"punchclock/internal/platform/postgres"
	id "punchclock/pkg/domain"
	"punchclock/pkg/platform/sentinel"
	txcontext "punchclock/pkg/platform/tx"
)

// PostgresStore persists requests in overtime_requests.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, worker_id, group_id, work_date, start_minute, end_minute,
	justification, status, requested_at, reviewer_id, reviewed_at, comment`

func (s *PostgresStore) Create(ctx context.Context, req *models.OvertimeRequest) error {
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx,
		`INSERT INTO overtime_requests (id, worker_id, group_id, work_date, start_minute, end_minute, justification, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(req.ID), uuid.UUID(req.WorkerID), uuid.UUID(req.GroupID), req.Date,
		int(req.Start), int(req.End), req.Justification, string(req.Status), req.RequestedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert overtime request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.OvertimeID) (*models.OvertimeRequest, error) {
	row := txcontext.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM overtime_requests WHERE id = $1`, uuid.UUID(requestID))
	return scanRequest(row)
}

func (s *PostgresStore) List(ctx context.Context, filter ports.Filter) ([]*models.OvertimeRequest, error) {
	where := []string{"group_id = $1"}
	args := []any{uuid.UUID(filter.GroupID)}
	if !filter.WorkerID.IsNil() {
		args = append(args, uuid.UUID(filter.WorkerID))
		where = append(where, fmt.Sprintf("worker_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + requestColumns + ` FROM overtime_requests WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY work_date DESC, requested_at DESC`

	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query overtime requests: %w", err)
	}
	defer rows.Close()

	var out []*models.OvertimeRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overtime requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Review(ctx context.Context, req *models.OvertimeRequest) error {
	if req.ReviewerID == nil || req.ReviewedAt == nil {
		return fmt.Errorf("overtime request %s carries no review", req.ID)
	}
	exec := txcontext.Pick(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`UPDATE overtime_requests SET status = $1, reviewer_id = $2, reviewed_at = $3, comment = $4
		WHERE id = $5 AND status = $6`,
		string(req.Status), uuid.UUID(*req.ReviewerID), *req.ReviewedAt, req.Comment,
		uuid.UUID(req.ID), string(models.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("update overtime request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update overtime request: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM overtime_requests WHERE id = $1)`, uuid.UUID(req.ID)).Scan(&exists); err != nil {
		return fmt.Errorf("check overtime request: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *PostgresStore) HasApproved(ctx context.Context, workerID id.UserID, day time.Time) (bool, error) {
	var ok bool
	err := txcontext.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM overtime_requests WHERE worker_id = $1 AND work_date = $2 AND status = $3)`,
		uuid.UUID(workerID), day, string(models.StatusApproved),
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check approved overtime: %w", err)
	}
	return ok, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.OvertimeRequest, error) {
	var (
		r                          models.OvertimeRequest
		requestID, workerID, group uuid.UUID
		start, end                 int
		status                     string
		reviewerID                 uuid.NullUUID
		reviewedAt                 sql.NullTime
	)
	err := row.Scan(
		&requestID, &workerID, &group, &r.Date, &start, &end,
		&r.Justification, &status, &r.RequestedAt, &reviewerID, &reviewedAt, &r.Comment,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan overtime request: %w", err)
	}

	r.ID = id.OvertimeID(requestID)
	r.WorkerID = id.UserID(workerID)
	r.GroupID = id.GroupID(group)
	r.Date = time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC)
	r.Start = models.ClockTime(start)
	r.End = models.ClockTime(end)
	r.Status = models.Status(status)
	if reviewerID.Valid {
		reviewer := id.UserID(reviewerID.UUID)
		r.ReviewerID = &reviewer
	}
	if reviewedAt.Valid {
		at := reviewedAt.Time
		r.ReviewedAt = &at
	}
	return &r, nil
}
