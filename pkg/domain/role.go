package domain

import dErrors "punchclock/pkg/domain-errors"

// Role is the authorization role carried in the identity token.
type Role string

const (
	RoleWorker   Role = "worker"
	RoleReviewer Role = "reviewer"
)

// ParseRole validates a role claim.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleWorker, RoleReviewer:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
	}
}

// CanReview reports whether the role may decide approvals and overtime requests.
func (r Role) CanReview() bool {
	return r == RoleReviewer
}
