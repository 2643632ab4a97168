// Package auth issues and checks bearer tokens. Every caller is a Principal
// whose role maps to a fixed set of capabilities.
package auth

import "errors"

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleTeam     Role = "TEAM"
	RoleReviewer Role = "REVIEWER"
)

type Capability string

const (
	// CapTeamWork covers a team's own profile and submission steps.
	CapTeamWork     Capability = "team:work"
	CapManage       Capability = "event:manage"
	CapTimerControl Capability = "timer:control"
	CapReview       Capability = "submission:review"
)

var permissions = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapManage:       true,
		CapTimerControl: true,
		CapReview:       true,
	},
	RoleTeam: {
		CapTeamWork: true,
	},
	RoleReviewer: {
		CapReview: true,
	},
}

func (r Role) Valid() bool {
	_, ok := permissions[r]
	return ok
}

// Principal is the authenticated caller. For teams ID is the team id.
type Principal struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

func (p Principal) Can(capability Capability) bool {
	return permissions[p.Role][capability]
}
