package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
)

func TestParseClockTime(t *testing.T) {
	valid := map[string]ClockTime{"00:00": 0, "08:30": 510, "18:00": 1080, "23:59": 1439}
	for in, want := range valid {
		got, err := ParseClockTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, in, got.String())
	}

	for _, in := range []string{"", "8:30", "24:00", "12:60", "ab:cd", "12-30", "123:00"} {
		_, err := ParseClockTime(in)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), in)
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got)

	_, err = ParseStatus("PENDENTE")
	assert.Error(t, err)
}

func TestApplyReview(t *testing.T) {
	at := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	reviewer := id.UserID(uuid.New())
	r := &OvertimeRequest{Status: StatusPending, Start: 1080, End: 1200}
	assert.Equal(t, 120, r.Minutes())

	require.NoError(t, r.ApplyReview(reviewer, true, "ok", at))
	assert.Equal(t, StatusApproved, r.Status)
	require.NotNil(t, r.ReviewerID)
	assert.Equal(t, reviewer, *r.ReviewerID)
	assert.Equal(t, at, *r.ReviewedAt)

	err := r.ApplyReview(reviewer, false, "", at)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyReviewed))
	assert.Equal(t, StatusApproved, r.Status)
}
