package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"punchclock/internal/platform/postgres"
	"punchclock/internal/punch/models"
	id "punchclock/pkg/domain"
	"punchclock/pkg/platform/sentinel"
	txcontext "punchclock/pkg/platform/tx"
)

// PostgresPunchStore persists punch records. It joins the caller's
// transaction when one is carried in the context.
type PostgresPunchStore struct {
	db *sql.DB
}

func NewPostgresPunchStore(db *sql.DB) *PostgresPunchStore {
	return &PostgresPunchStore{db: db}
}

const punchColumns = `id, worker_id, group_id, punch_type, work_day, punched_at,
	latitude, longitude, accuracy_m, age_s, address, signals,
	risk_score, risk_confidence, risk_tags, risk_high, risk_unknown,
	approval_state, justification, override_justification, integrity_hash,
	created_at, updated_at`

func (s *PostgresPunchStore) Save(ctx context.Context, r *models.PunchRecord) error {
	signals, err := json.Marshal(r.Signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}
	var lat, lon, acc, age sql.NullFloat64
	if r.Location != nil {
		lat = sql.NullFloat64{Float64: r.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: r.Location.Longitude, Valid: true}
		acc = sql.NullFloat64{Float64: r.Location.AccuracyMeters, Valid: true}
		age = sql.NullFloat64{Float64: r.Location.AgeSeconds, Valid: true}
	}
	tags := make([]string, len(r.Risk.Tags))
	for i, t := range r.Risk.Tags {
		tags[i] = string(t)
	}

	query := `INSERT INTO punch_records (` + punchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err = txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(r.ID), uuid.UUID(r.WorkerID), uuid.UUID(r.GroupID), string(r.Type), r.WorkDay, r.PunchedAt,
		lat, lon, acc, age, r.Address, signals,
		r.Risk.Score, r.Risk.Confidence, pq.Array(tags), r.Risk.IsHighRisk, r.Risk.Unknown,
		string(r.State), r.Justification, r.OverrideJustification, r.IntegrityHash,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert punch: %w", err)
	}
	return nil
}

func (s *PostgresPunchStore) ListForDay(ctx context.Context, workerID id.UserID, day time.Time) ([]*models.PunchRecord, error) {
	query := `SELECT ` + punchColumns + ` FROM punch_records
		WHERE worker_id = $1 AND work_day = $2
		ORDER BY punched_at`
	return s.query(ctx, query, uuid.UUID(workerID), day)
}

func (s *PostgresPunchStore) History(ctx context.Context, workerID id.UserID, limit int) ([]*models.PunchRecord, error) {
	query := `SELECT ` + punchColumns + ` FROM punch_records
		WHERE worker_id = $1
		ORDER BY punched_at DESC
		LIMIT $2`
	return s.query(ctx, query, uuid.UUID(workerID), limit)
}

func (s *PostgresPunchStore) ListRange(ctx context.Context, workerID id.UserID, from, to time.Time) ([]*models.PunchRecord, error) {
	query := `SELECT ` + punchColumns + ` FROM punch_records
		WHERE worker_id = $1 AND work_day >= $2 AND work_day < $3
		ORDER BY punched_at`
	return s.query(ctx, query, uuid.UUID(workerID), from, to)
}

func (s *PostgresPunchStore) UpdateState(ctx context.Context, punchID id.PunchID, from, to models.ApprovalState, at time.Time) error {
	exec := txcontext.Pick(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`UPDATE punch_records SET approval_state = $1, updated_at = $2 WHERE id = $3 AND approval_state = $4`,
		string(to), at, uuid.UUID(punchID), string(from),
	)
	if err != nil {
		return fmt.Errorf("update punch state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update punch state: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM punch_records WHERE id = $1)`, uuid.UUID(punchID)).Scan(&exists); err != nil {
		return fmt.Errorf("check punch: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

// FindByID returns one record.
func (s *PostgresPunchStore) FindByID(ctx context.Context, punchID id.PunchID) (*models.PunchRecord, error) {
	records, err := s.query(ctx, `SELECT `+punchColumns+` FROM punch_records WHERE id = $1`, uuid.UUID(punchID))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return records[0], nil
}

func (s *PostgresPunchStore) query(ctx context.Context, query string, args ...any) ([]*models.PunchRecord, error) {
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query punches: %w", err)
	}
	defer rows.Close()

	var out []*models.PunchRecord
	for rows.Next() {
		r, err := scanPunch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate punches: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPunch(row scanner) (*models.PunchRecord, error) {
	var (
		r                        models.PunchRecord
		punchID, workerID, group uuid.UUID
		punchType, state         string
		lat, lon, acc, age       sql.NullFloat64
		signals                  []byte
		tags                     []string
	)
	err := row.Scan(
		&punchID, &workerID, &group, &punchType, &r.WorkDay, &r.PunchedAt,
		&lat, &lon, &acc, &age, &r.Address, &signals,
		&r.Risk.Score, &r.Risk.Confidence, pq.Array(&tags), &r.Risk.IsHighRisk, &r.Risk.Unknown,
		&state, &r.Justification, &r.OverrideJustification, &r.IntegrityHash,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan punch: %w", err)
	}

	r.ID = id.PunchID(punchID)
	r.WorkerID = id.UserID(workerID)
	r.GroupID = id.GroupID(group)
	r.Type = models.PunchType(punchType)
	r.State = models.ApprovalState(state)
	r.WorkDay = time.Date(r.WorkDay.Year(), r.WorkDay.Month(), r.WorkDay.Day(), 0, 0, 0, 0, time.UTC)
	if lat.Valid && lon.Valid {
		r.Location = &models.LocationSample{
			Latitude:       lat.Float64,
			Longitude:      lon.Float64,
			AccuracyMeters: acc.Float64,
			AgeSeconds:     age.Float64,
		}
	}
	if len(signals) > 0 {
		if err := json.Unmarshal(signals, &r.Signals); err != nil {
			return nil, fmt.Errorf("unmarshal signals: %w", err)
		}
	}
	for _, t := range tags {
		r.Risk.Tags = append(r.Risk.Tags, models.AnomalyTag(t))
	}
	return &r, nil
}

// PostgresGeofenceStore reads geofences configured per group.
type PostgresGeofenceStore struct {
	db *sql.DB
}

func NewPostgresGeofenceStore(db *sql.DB) *PostgresGeofenceStore {
	return &PostgresGeofenceStore{db: db}
}

func (s *PostgresGeofenceStore) ForGroup(ctx context.Context, groupID id.GroupID) ([]models.Geofence, error) {
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx,
		`SELECT name, latitude, longitude, radius_m FROM geofences WHERE group_id = $1 ORDER BY name`,
		uuid.UUID(groupID),
	)
	if err != nil {
		return nil, fmt.Errorf("query geofences: %w", err)
	}
	defer rows.Close()

	var out []models.Geofence
	for rows.Next() {
		var g models.Geofence
		if err := rows.Scan(&g.Name, &g.Latitude, &g.Longitude, &g.RadiusMeters); err != nil {
			return nil, fmt.Errorf("scan geofence: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate geofences: %w", err)
	}
	return out, nil
}

// Set replaces the group's geofences.
func (s *PostgresGeofenceStore) Set(ctx context.Context, groupID id.GroupID, geofences []models.Geofence) error {
	exec := txcontext.Pick(ctx, s.db)
	if _, err := exec.ExecContext(ctx, `DELETE FROM geofences WHERE group_id = $1`, uuid.UUID(groupID)); err != nil {
		return fmt.Errorf("clear geofences: %w", err)
	}
	for _, g := range geofences {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO geofences (id, group_id, name, latitude, longitude, radius_m) VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), uuid.UUID(groupID), g.Name, g.Latitude, g.Longitude, g.RadiusMeters,
		)
		if err != nil {
			return fmt.Errorf("insert geofence: %w", err)
		}
	}
	return nil
}
