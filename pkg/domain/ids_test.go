package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "punchclock/pkg/domain-errors"
)

// TestParseUUID_Invariants validates that IDs are non-empty, well formed, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseGroupID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseApprovalID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		parsed, err := ParseUserID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(raw), parsed)
		assert.Equal(t, raw.String(), parsed.String())
		assert.False(t, parsed.IsNil())
	})
}

func TestParseID_HostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE punches;--", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePunchID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	parsers := map[string]func(string) error{
		"user":     func(s string) error { _, err := ParseUserID(s); return err },
		"group":    func(s string) error { _, err := ParseGroupID(s); return err },
		"session":  func(s string) error { _, err := ParseSessionID(s); return err },
		"punch":    func(s string) error { _, err := ParsePunchID(s); return err },
		"approval": func(s string) error { _, err := ParseApprovalID(s); return err },
		"overtime": func(s string) error { _, err := ParseOvertimeID(s); return err },
	}
	valid := uuid.NewString()

	for name, parse := range parsers {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, parse(valid))
			for _, bad := range []string{"", "invalid", uuid.Nil.String()} {
				assert.Error(t, parse(bad), "input %q", bad)
			}
		})
	}
}
