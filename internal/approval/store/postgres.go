package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"punchclock/internal/approval/ports"
	"punchclock/internal/platform/postgres"
	"punchclock/internal/punch/models"
	id "punchclock/pkg/domain"
	"punchclock/pkg/platform/sentinel"
	txcontext "punchclock/pkg/platform/tx"
)

// PostgresStore persists entries in pending_approvals and reads them back
// joined with their punch record. It joins the caller's transaction when one
// is carried in the context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entrySelect = `SELECT e.id, e.reason, e.state, e.created_at, e.reviewer_id, e.reviewed_at, e.comment,
	p.id, p.worker_id, p.group_id, p.punch_type, p.work_day, p.punched_at,
	p.latitude, p.longitude, p.accuracy_m, p.age_s, p.address,
	p.risk_score, p.risk_confidence, p.risk_tags, p.risk_high, p.risk_unknown,
	p.approval_state, p.justification, p.override_justification, p.created_at, p.updated_at
	FROM pending_approvals e
	JOIN punch_records p ON p.id = e.punch_id`

func (s *PostgresStore) Enqueue(ctx context.Context, entry *models.PendingApprovalEntry) error {
	if entry.Record == nil {
		return fmt.Errorf("entry %s has no punch record", entry.ID)
	}
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx,
		`INSERT INTO pending_approvals (id, punch_id, group_id, worker_id, reason, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(entry.ID), uuid.UUID(entry.Record.ID), uuid.UUID(entry.Record.GroupID), uuid.UUID(entry.Record.WorkerID),
		string(entry.Reason), string(entry.State), entry.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert approval entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, entryID id.ApprovalID) (*models.PendingApprovalEntry, error) {
	row := txcontext.Pick(ctx, s.db).QueryRowContext(ctx, entrySelect+` WHERE e.id = $1`, uuid.UUID(entryID))
	return scanEntry(row)
}

func (s *PostgresStore) List(ctx context.Context, filter ports.Filter) ([]*models.PendingApprovalEntry, error) {
	where := []string{"e.group_id = $1"}
	args := []any{uuid.UUID(filter.GroupID)}
	if !filter.WorkerID.IsNil() {
		args = append(args, uuid.UUID(filter.WorkerID))
		where = append(where, fmt.Sprintf("e.worker_id = $%d", len(args)))
	}
	if len(filter.States) > 0 {
		states := make([]string, len(filter.States))
		for i, st := range filter.States {
			states[i] = string(st)
		}
		args = append(args, pq.Array(states))
		where = append(where, fmt.Sprintf("e.state = ANY($%d)", len(args)))
	}
	query := entrySelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY e.created_at, e.id`

	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query approval entries: %w", err)
	}
	defer rows.Close()

	var out []*models.PendingApprovalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approval entries: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Decide(ctx context.Context, entry *models.PendingApprovalEntry) error {
	if entry.ReviewerID == nil || entry.ReviewedAt == nil {
		return fmt.Errorf("entry %s carries no decision", entry.ID)
	}
	exec := txcontext.Pick(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`UPDATE pending_approvals SET state = $1, reviewer_id = $2, reviewed_at = $3, comment = $4
		WHERE id = $5 AND state = $6`,
		string(entry.State), uuid.UUID(*entry.ReviewerID), *entry.ReviewedAt, entry.Comment,
		uuid.UUID(entry.ID), string(models.StatePendingApproval),
	)
	if err != nil {
		return fmt.Errorf("update approval entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update approval entry: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pending_approvals WHERE id = $1)`, uuid.UUID(entry.ID)).Scan(&exists); err != nil {
		return fmt.Errorf("check approval entry: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *PostgresStore) CountPending(ctx context.Context, groupID id.GroupID) (int, error) {
	var n int
	err := txcontext.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_approvals WHERE group_id = $1 AND state = $2`,
		uuid.UUID(groupID), string(models.StatePendingApproval),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending approvals: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.PendingApprovalEntry, error) {
	var (
		e                     models.PendingApprovalEntry
		r                     models.PunchRecord
		entryID, punchID      uuid.UUID
		workerID, groupID     uuid.UUID
		reviewerID            uuid.NullUUID
		reviewedAt            sql.NullTime
		reason, state         string
		punchType, punchState string
		lat, lon, acc, age    sql.NullFloat64
		tags                  []string
	)
	err := row.Scan(
		&entryID, &reason, &state, &e.CreatedAt, &reviewerID, &reviewedAt, &e.Comment,
		&punchID, &workerID, &groupID, &punchType, &r.WorkDay, &r.PunchedAt,
		&lat, &lon, &acc, &age, &r.Address,
		&r.Risk.Score, &r.Risk.Confidence, pq.Array(&tags), &r.Risk.IsHighRisk, &r.Risk.Unknown,
		&punchState, &r.Justification, &r.OverrideJustification, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan approval entry: %w", err)
	}

	e.ID = id.ApprovalID(entryID)
	e.Reason = models.EscalationReason(reason)
	e.State = models.ApprovalState(state)
	switch e.State {
	case models.StateCommitted:
		e.Decision = models.DecisionApproved
	case models.StateRejected:
		e.Decision = models.DecisionRejected
	}
	if reviewerID.Valid {
		reviewer := id.UserID(reviewerID.UUID)
		e.ReviewerID = &reviewer
	}
	if reviewedAt.Valid {
		at := reviewedAt.Time
		e.ReviewedAt = &at
	}

	r.ID = id.PunchID(punchID)
	r.WorkerID = id.UserID(workerID)
	r.GroupID = id.GroupID(groupID)
	r.Type = models.PunchType(punchType)
	r.State = models.ApprovalState(punchState)
	r.WorkDay = time.Date(r.WorkDay.Year(), r.WorkDay.Month(), r.WorkDay.Day(), 0, 0, 0, 0, time.UTC)
	if lat.Valid && lon.Valid {
		r.Location = &models.LocationSample{
			Latitude:       lat.Float64,
			Longitude:      lon.Float64,
			AccuracyMeters: acc.Float64,
			AgeSeconds:     age.Float64,
		}
	}
	for _, t := range tags {
		r.Risk.Tags = append(r.Risk.Tags, models.AnomalyTag(t))
	}
	e.Record = &r
	return &e, nil
}
