package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextAllowed_SuccessorTable(t *testing.T) {
	tests := []struct {
		name    string
		history []PunchType
		want    PunchType
		wantOK  bool
	}{
		{"empty day starts with entrance", nil, PunchEntrance, true},
		{"after entrance", []PunchType{PunchEntrance}, PunchLunchOut, true},
		{"after lunch out", []PunchType{PunchEntrance, PunchLunchOut}, PunchLunchIn, true},
		{"after lunch in", []PunchType{PunchEntrance, PunchLunchOut, PunchLunchIn}, PunchExit, true},
		{"exit closes the day", []PunchType{PunchEntrance, PunchLunchOut, PunchLunchIn, PunchExit}, "", false},
		{"after overtime start", []PunchType{PunchExit, PunchOvertimeStart}, PunchOvertimeEnd, true},
		{"overtime end closes the window", []PunchType{PunchExit, PunchOvertimeStart, PunchOvertimeEnd}, "", false},
		{"unknown type closes the window", []PunchType{"coffee_break"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextAllowed(tt.history)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextAllowedWithOvertime(t *testing.T) {
	day := []PunchType{PunchEntrance, PunchLunchOut, PunchLunchIn, PunchExit}

	t.Run("approved overtime reopens the window after exit", func(t *testing.T) {
		got, ok := NextAllowedWithOvertime(day, true)
		require.True(t, ok)
		assert.Equal(t, PunchOvertimeStart, got)
	})

	t.Run("authorization does not skip the regular sequence", func(t *testing.T) {
		got, ok := NextAllowedWithOvertime([]PunchType{PunchEntrance}, true)
		require.True(t, ok)
		assert.Equal(t, PunchLunchOut, got)
	})

	t.Run("overtime end still closes the window", func(t *testing.T) {
		_, ok := NextAllowedWithOvertime(append(day, PunchOvertimeStart, PunchOvertimeEnd), true)
		assert.False(t, ok)
	})
}

// TestNextAllowed_Totality enumerates every history of up to four punches
// (including an unknown type) and checks that the result is always either a
// known type or closed, and never a type already registered that day.
func TestNextAllowed_Totality(t *testing.T) {
	alphabet := append(append([]PunchType{}, AllPunchTypes...), PunchType("bogus"))

	var walk func(history []PunchType, depth int)
	walk = func(history []PunchType, depth int) {
		for _, authorized := range []bool{false, true} {
			next, ok := NextAllowedWithOvertime(history, authorized)
			if ok {
				require.True(t, next.IsValid(), "history %v returned invalid %q", history, next)
				if isWellFormed(history) {
					require.NotContains(t, history, next, "history %v repeats %q", history, next)
				}
			} else {
				require.Empty(t, next)
			}
		}
		if depth == 0 {
			return
		}
		for _, p := range alphabet {
			walk(append(append([]PunchType{}, history...), p), depth-1)
		}
	}
	walk(nil, 4)
}

// isWellFormed reports whether history is a legal prefix produced by the state machine.
func isWellFormed(history []PunchType) bool {
	for i := range history {
		next, ok := NextAllowedWithOvertime(history[:i], true)
		if !ok || next != history[i] {
			return false
		}
	}
	return true
}

func TestParsePunchType(t *testing.T) {
	pt, err := ParsePunchType("lunch_out")
	require.NoError(t, err)
	assert.Equal(t, PunchLunchOut, pt)

	_, err = ParsePunchType("LUNCH")
	assert.Error(t, err)
}
