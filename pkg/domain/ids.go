package domain

import (
	"github.com/google/uuid"

	dErrors "punchclock/pkg/domain-errors"
)

// Typed identifiers. Distinct types keep a worker id from being passed where a
// group id is expected.
type (
	// UserID identifies an authenticated person; workers and reviewers share it.
	UserID     uuid.UUID
	GroupID    uuid.UUID
	SessionID  uuid.UUID
	PunchID    uuid.UUID
	ApprovalID uuid.UUID
	OvertimeID uuid.UUID
)

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id GroupID) String() string    { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }
func (id PunchID) String() string    { return uuid.UUID(id).String() }
func (id ApprovalID) String() string { return uuid.UUID(id).String() }
func (id OvertimeID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id GroupID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id PunchID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ApprovalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OvertimeID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the trust-boundary rule shared by every ID type:
// non-empty, well formed, and not the nil UUID.
func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return parsed, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user ID", s)
	return UserID(u), err
}

func ParseGroupID(s string) (GroupID, error) {
	u, err := parseUUID("group ID", s)
	return GroupID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID("session ID", s)
	return SessionID(u), err
}

func ParsePunchID(s string) (PunchID, error) {
	u, err := parseUUID("punch ID", s)
	return PunchID(u), err
}

func ParseApprovalID(s string) (ApprovalID, error) {
	u, err := parseUUID("approval ID", s)
	return ApprovalID(u), err
}

func ParseOvertimeID(s string) (OvertimeID, error) {
	u, err := parseUUID("overtime request ID", s)
	return OvertimeID(u), err
}

// Text encoding keeps IDs readable in JSON snapshots and cache entries.

func (id UserID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id GroupID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id SessionID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id PunchID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id ApprovalID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id OvertimeID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *GroupID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SessionID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PunchID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ApprovalID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *OvertimeID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
