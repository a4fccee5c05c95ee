package models

// successors maps each punch type to the type that follows it. An empty
// value closes the window.
var successors = map[PunchType]PunchType{
	PunchEntrance:      PunchLunchOut,
	PunchLunchOut:      PunchLunchIn,
	PunchLunchIn:       PunchExit,
	PunchExit:          "",
	PunchOvertimeStart: PunchOvertimeEnd,
	PunchOvertimeEnd:   "",
}

// NextAllowed returns the single punch type that may be registered after the
// given ordered history of the day. ok is false when the window is closed:
// after exit, after overtime_end, or when the history holds an unknown type.
func NextAllowed(punchesToday []PunchType) (next PunchType, ok bool) {
	return NextAllowedWithOvertime(punchesToday, false)
}

// NextAllowedWithOvertime is NextAllowed for a worker who may hold an approved
// overtime request for the day. With overtimeAuthorized, the closed window after
// exit reopens for overtime_start; nothing else changes.
func NextAllowedWithOvertime(punchesToday []PunchType, overtimeAuthorized bool) (next PunchType, ok bool) {
	if len(punchesToday) == 0 {
		return PunchEntrance, true
	}
	last := punchesToday[len(punchesToday)-1]
	if last == PunchExit && overtimeAuthorized {
		return PunchOvertimeStart, true
	}
	next, known := successors[last]
	if !known || next == "" {
		return "", false
	}
	return next, true
}

// IsOvertime reports whether t belongs to the overtime window.
func (t PunchType) IsOvertime() bool {
	return t == PunchOvertimeStart || t == PunchOvertimeEnd
}
