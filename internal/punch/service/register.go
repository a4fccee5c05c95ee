package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"punchclock/internal/notification"
	"punchclock/internal/punch/location"
	"punchclock/internal/punch/models"
	"punchclock/internal/punch/ports"
	"punchclock/internal/punch/signals"
	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/platform/sentinel"
	"punchclock/pkg/requestcontext"
)

// Register decides a punch attempt: commit it, route it to human review, or
// reject it. Duplicate and out-of-order punches and a blown deadline are
// returned as errors; confidence failures are returned as a rejected result.
// Registrations of one worker are serialized, and nothing is persisted unless
// the whole decision completes inside the deadline. Notifications are written
// to the outbox with the punch and reach the other publishers only once the
// transaction has committed.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResult, error) {
	start := time.Now()
	defer s.metrics.ObserveRegister(start)

	ctx, span := s.tracer.Start(ctx, "punch.Register",
		trace.WithAttributes(attribute.String("punch.type", string(req.Type))),
	)
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	now := requestcontext.Now(ctx)
	day := models.DayOf(now, s.loc)

	var (
		result *models.RegisterResult
		events []notification.Event
	)
	err := s.tx.RunInTx(ctx, "punch:"+req.WorkerID.String(), func(ctx context.Context) error {
		var err error
		result, events, err = s.register(ctx, req, now, day)
		if err != nil {
			return err
		}
		return s.stage(ctx, events)
	})
	if err != nil {
		err = s.translateError(ctx, req, err)
		s.metrics.IncrementOutcome(string(models.OutcomeRejected), reasonLabel(err))
		span.RecordError(err)
		return nil, err
	}

	for _, e := range events {
		notification.Notify(ctx, s.logger, s.notifier, e)
	}
	s.metrics.IncrementOutcome(string(result.Outcome), string(result.Reason))
	span.SetAttributes(attribute.String("punch.outcome", string(result.Outcome)))
	return result, nil
}

func validateRequest(req models.RegisterRequest) error {
	switch {
	case req.WorkerID.IsNil():
		return dErrors.New(dErrors.CodeUnauthorized, "worker identity required")
	case req.GroupID.IsNil():
		return dErrors.New(dErrors.CodeUnauthorized, "employment group required")
	case !req.Type.IsValid():
		return dErrors.New(dErrors.CodeValidation, "unknown punch type: "+string(req.Type))
	}
	return location.CheckSample(req.Sample)
}

// stage writes events to the outbox inside the registration transaction. A
// failed write rolls the punch back with it.
func (s *Service) stage(ctx context.Context, events []notification.Event) error {
	if s.outbox == nil {
		return nil
	}
	for _, e := range events {
		if err := s.outbox.Publish(ctx, e); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to stage notification")
		}
	}
	return nil
}

// register decides and persists the punch. It returns the notifications the
// decision produced; the caller delivers them.
func (s *Service) register(ctx context.Context, req models.RegisterRequest, now, day time.Time) (*models.RegisterResult, []notification.Event, error) {
	today, err := s.punches.ListForDay(ctx, req.WorkerID, day)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load today's punches")
	}
	if err := s.checkSequence(ctx, req, day, today); err != nil {
		return nil, nil, err
	}

	c, err := s.runChecks(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	// A decision reached after the deadline is discarded.
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	outcome, failing := decide(c.verdict, c.risk, req.OverrideJustification)
	result := &models.RegisterResult{Outcome: outcome, Failing: failing, Location: c.verdict}
	if len(failing) > 0 {
		result.Reason = failing[0]
		result.Message = failureMessage(failing, c.verdict, req.Sample == nil)
	}

	if outcome == models.OutcomeRejected {
		ports.LogAudit(ctx, s.logger, "punch_rejected",
			"worker_id", req.WorkerID,
			"punch_type", req.Type,
			"reason", result.Reason,
			"failing", failing,
			"risk_score", c.risk.Score,
		)
		var events []notification.Event
		if e, ok := s.geolocationIssue(ctx, req, c.verdict, ""); ok {
			events = append(events, e)
		}
		return result, events, nil
	}

	record := s.newRecord(req, now, day, c)
	if outcome == models.OutcomePendingApproval {
		record.State = models.StatePendingApproval
	}
	if err := s.punches.Save(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, nil, dErrors.New(dErrors.CodeDuplicatePunch, fmt.Sprintf("%s already registered for %s", req.Type, day.Format(time.DateOnly)))
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save punch")
	}
	result.Record = record

	kind := notification.KindPunchCommitted
	if outcome == models.OutcomePendingApproval {
		entry := &models.PendingApprovalEntry{
			ID:        id.ApprovalID(uuid.New()),
			Record:    record,
			Reason:    models.EscalationFor(result.Reason),
			State:     models.StatePendingApproval,
			CreatedAt: now,
		}
		if err := s.approvals.Enqueue(ctx, entry); err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to enqueue punch for approval")
		}
		result.Entry = entry
		kind = notification.KindPunchEscalated
		ports.LogAudit(ctx, s.logger, "punch_escalated",
			"worker_id", req.WorkerID,
			"punch_type", req.Type,
			"punch_id", record.ID,
			"approval_id", entry.ID,
			"reason", entry.Reason,
			"risk_score", c.risk.Score,
		)
	}

	events := []notification.Event{{
		Kind:         kind,
		GroupID:      req.GroupID,
		WorkerID:     req.WorkerID,
		EntityID:     record.ID.String(),
		Reason:       string(result.Reason),
		PendingCount: s.pendingCount(ctx, req.GroupID),
		OccurredAt:   now,
		RequestID:    requestcontext.RequestID(ctx),
	}}
	if e, ok := s.geolocationIssue(ctx, req, c.verdict, record.ID.String()); ok {
		events = append(events, e)
	}
	return result, events, nil
}

// checkSequence rejects a second punch of the same type in a day and any
// type other than the single one the state machine allows next.
func (s *Service) checkSequence(ctx context.Context, req models.RegisterRequest, day time.Time, today []*models.PunchRecord) error {
	history := make([]models.PunchType, 0, len(today))
	for _, r := range today {
		if r.Type == req.Type {
			ports.LogAudit(ctx, s.logger, "punch_duplicate_rejected",
				"worker_id", req.WorkerID,
				"punch_type", req.Type,
			)
			return dErrors.New(dErrors.CodeDuplicatePunch, fmt.Sprintf("%s already registered for %s", req.Type, day.Format(time.DateOnly)))
		}
		history = append(history, r.Type)
	}

	authorized := false
	if req.Type == models.PunchOvertimeStart && s.overtime != nil {
		ok, err := s.overtime.HasApproved(ctx, req.WorkerID, day)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check overtime authorization")
		}
		authorized = ok
	}

	next, ok := models.NextAllowedWithOvertime(history, authorized)
	if ok && next == req.Type {
		return nil
	}
	msg := "no further punches are allowed today"
	if ok {
		msg = fmt.Sprintf("expected %s next, got %s", next, req.Type)
	}
	return dErrors.New(dErrors.CodeInvalidOrder, msg)
}

type checks struct {
	verdict       models.LocationVerdict
	signals       models.NetworkSignals
	risk          models.RiskAssessment
	address       *models.Address
	geocodeFailed bool
}

// runChecks validates the location, scores the network risk and resolves the
// address concurrently. None of them fails the registration on its own, but
// the deadline does: a collaborator still running when ctx ends is abandoned
// and its result discarded.
func (s *Service) runChecks(ctx context.Context, req models.RegisterRequest) (checks, error) {
	geofences, err := s.geofences.ForGroup(ctx, req.GroupID)
	if err != nil {
		return checks{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load geofences")
	}

	var c checks
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, span := s.tracer.Start(gctx, "punch.ValidateLocation")
		defer span.End()
		c.verdict = s.validator.Validate(req.Sample, geofences)
		return nil
	})
	g.Go(func() error {
		c.signals, c.risk = s.assessRisk(gctx, req)
		return nil
	})
	g.Go(func() error {
		c.address, c.geocodeFailed = s.resolveAddress(gctx, req.Sample)
		return nil
	})
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
		return c, nil
	case <-ctx.Done():
		return checks{}, ctx.Err()
	}
}

// assessRisk collects signals and scores them. When collection fails or
// runs out of time the risk is unknown.
func (s *Service) assessRisk(ctx context.Context, req models.RegisterRequest) (models.NetworkSignals, models.RiskAssessment) {
	ctx, span := s.tracer.Start(ctx, "punch.AssessRisk")
	defer span.End()

	history, err := s.history(ctx, req.WorkerID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load punch history for risk scoring",
			"worker_id", req.WorkerID,
			"error", err,
		)
	}

	cctx, cancel := context.WithTimeout(ctx, s.signalsTimeout)
	defer cancel()
	sig, err := s.collector.Collect(cctx, signals.SessionRequest{
		SessionID: req.SessionID,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		Hints:     req.Hints,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "signal collection failed, risk unknown",
			"worker_id", req.WorkerID,
			"error", err,
		)
		span.RecordError(err)
		return models.NetworkSignals{SessionID: req.SessionID, IPAddress: req.IPAddress}, models.UnknownRisk()
	}

	risk := s.scorer.Score(sig, history)
	s.metrics.ObserveRiskScore(risk.Score)
	span.SetAttributes(attribute.Int("risk.score", risk.Score))
	return sig, risk
}

// history returns the worker's prior non-rejected punches as scorer input.
func (s *Service) history(ctx context.Context, workerID id.UserID) ([]models.SignalHistoryEntry, error) {
	records, err := s.punches.History(ctx, workerID, historyLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.SignalHistoryEntry, 0, len(records))
	for _, r := range records {
		if r.State == models.StateRejected {
			continue
		}
		entry := models.SignalHistoryEntry{
			PunchedAt:         r.PunchedAt,
			DeviceFingerprint: r.Signals.DeviceFingerprint,
			IPAddress:         r.Signals.IPAddress,
		}
		if intel := r.Signals.IPIntel; intel != nil {
			entry.Latitude, entry.Longitude = intel.Latitude, intel.Longitude
		}
		out = append(out, entry)
	}
	return out, nil
}

// resolveAddress prefers the client's own resolution. failed is true only
// when a geocoder was asked and could not answer.
func (s *Service) resolveAddress(ctx context.Context, sample *models.LocationSample) (addr *models.Address, failed bool) {
	if sample == nil {
		return nil, false
	}
	if sample.Address != nil {
		return sample.Address, false
	}
	if s.geocoder == nil {
		return nil, false
	}
	ctx, span := s.tracer.Start(ctx, "punch.ReverseGeocode")
	defer span.End()

	gctx, cancel := context.WithTimeout(ctx, s.geocodeTimeout)
	defer cancel()
	addr, err := s.geocoder.Reverse(gctx, sample.Latitude, sample.Longitude)
	if err != nil {
		s.metrics.IncrementGeocodeUnresolved()
		s.logger.WarnContext(ctx, "reverse geocoding failed", "error", err)
		return nil, true
	}
	return addr, false
}

// decide applies the registration policy. Failing reasons are listed in
// precedence order: accuracy, staleness, geofence, risk.
func decide(v models.LocationVerdict, risk models.RiskAssessment, override string) (models.Outcome, []models.ReasonCode) {
	var failing []models.ReasonCode
	if !v.AccuracyOK {
		failing = append(failing, models.ReasonLowAccuracy)
	}
	if !v.StalenessOK {
		failing = append(failing, models.ReasonStaleLocation)
	}
	if !v.GeofenceOK {
		failing = append(failing, models.ReasonGeofenceViolation)
	}
	if risk.Elevated() {
		failing = append(failing, models.ReasonHighRisk)
	}

	switch {
	case len(failing) == 0:
		return models.OutcomeCommitted, nil
	case strings.TrimSpace(override) != "":
		return models.OutcomePendingApproval, failing
	default:
		return models.OutcomeRejected, failing
	}
}

func failureMessage(failing []models.ReasonCode, v models.LocationVerdict, noSample bool) string {
	if noSample {
		parts := []string{"no location was captured"}
		for _, r := range failing {
			if r == models.ReasonHighRisk {
				parts = append(parts, "network risk is high or could not be assessed")
			}
		}
		return strings.Join(parts, "; ")
	}
	parts := make([]string, 0, len(failing))
	for _, r := range failing {
		switch r {
		case models.ReasonLowAccuracy:
			parts = append(parts, "location accuracy is too low")
		case models.ReasonStaleLocation:
			parts = append(parts, "location sample is too old")
		case models.ReasonGeofenceViolation:
			msg := "outside every allowed area"
			if v.NearestGeofence != "" && v.DistanceToNearest != nil {
				msg = fmt.Sprintf("%s (%.0f m from %s)", msg, *v.DistanceToNearest, v.NearestGeofence)
			}
			parts = append(parts, msg)
		case models.ReasonHighRisk:
			parts = append(parts, "network risk is high or could not be assessed")
		}
	}
	return strings.Join(parts, "; ")
}

func (s *Service) newRecord(req models.RegisterRequest, now, day time.Time, c checks) *models.PunchRecord {
	address := models.FormatAddress(req.Sample, c.address)
	if c.geocodeFailed {
		address = models.UnknownAddress
	}
	record := &models.PunchRecord{
		ID:                    id.PunchID(uuid.New()),
		WorkerID:              req.WorkerID,
		GroupID:               req.GroupID,
		Type:                  req.Type,
		WorkDay:               day,
		PunchedAt:             now,
		Location:              req.Sample,
		Address:               address,
		Signals:               c.signals,
		Risk:                  c.risk,
		State:                 models.StateCommitted,
		Justification:         strings.TrimSpace(req.Justification),
		OverrideJustification: strings.TrimSpace(req.OverrideJustification),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	record.IntegrityHash = s.integrityHash(record)
	return record
}

// integrityHash is a keyed hash over worker, time, position and address.
func (s *Service) integrityHash(r *models.PunchRecord) string {
	h, err := blake2b.New256(s.integrityKey)
	if err != nil {
		return ""
	}
	lat, lon := "", ""
	if r.Location != nil {
		lat = strconv.FormatFloat(r.Location.Latitude, 'f', 6, 64)
		lon = strconv.FormatFloat(r.Location.Longitude, 'f', 6, 64)
	}
	fields := []string{
		r.WorkerID.String(),
		r.PunchedAt.UTC().Format(time.RFC3339Nano),
		lat,
		lon,
		r.Signals.IPAddress,
	}
	_, _ = h.Write([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyIntegrity reports whether the record still matches its hash.
func (s *Service) VerifyIntegrity(r *models.PunchRecord) bool {
	return r != nil && r.IntegrityHash != "" && r.IntegrityHash == s.integrityHash(r)
}

func (s *Service) pendingCount(ctx context.Context, groupID id.GroupID) int {
	n, err := s.approvals.PendingCount(ctx, groupID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to count pending approvals",
			"group_id", groupID,
			"error", err,
		)
		return 0
	}
	return n
}

// geolocationIssue alerts reviewers when the device reported a poor fix,
// whatever the registration outcome.
func (s *Service) geolocationIssue(ctx context.Context, req models.RegisterRequest, v models.LocationVerdict, entityID string) (notification.Event, bool) {
	if req.Sample == nil || v.AccuracyOK {
		return notification.Event{}, false
	}
	return notification.Event{
		Kind:         notification.KindGeolocationIssue,
		GroupID:      req.GroupID,
		WorkerID:     req.WorkerID,
		EntityID:     entityID,
		Reason:       fmt.Sprintf("accuracy %.0f m", req.Sample.AccuracyMeters),
		PendingCount: s.pendingCount(ctx, req.GroupID),
		OccurredAt:   requestcontext.Now(ctx),
		RequestID:    requestcontext.RequestID(ctx),
	}, true
}

// translateError turns a blown deadline into a retryable timeout and wraps
// anything that is not already a domain error.
func (s *Service) translateError(ctx context.Context, req models.RegisterRequest, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.logger.WarnContext(ctx, "punch registration deadline exceeded",
			"worker_id", req.WorkerID,
			"punch_type", req.Type,
			"deadline", s.deadline,
		)
		return dErrors.New(dErrors.CodeTimeout, "registration did not complete in time, retry")
	}
	if errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "registration cancelled")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register punch")
}

func reasonLabel(err error) string {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeDuplicatePunch:
		return string(models.ReasonDuplicatePunch)
	case dErrors.CodeInvalidOrder:
		return string(models.ReasonInvalidOrder)
	case dErrors.CodeTimeout:
		return string(models.ReasonTimeout)
	default:
		return "error"
	}
}
