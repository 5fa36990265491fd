package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Role is an operator's permission level.
type Role string

const (
	RoleViewer  Role = "viewer"
	RolePlanner Role = "planner"
	RoleAdmin   Role = "admin"
)

// RoleRank maps roles to a strict ordering for minimum-role checks.
// Unknown roles rank below viewer.
func RoleRank(r Role) int {
	switch r {
	case RoleAdmin:
		return 3
	case RolePlanner:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// RoleAtLeast reports whether r meets or exceeds min.
func RoleAtLeast(r, min Role) bool {
	return RoleRank(r) >= RoleRank(min)
}

// Operator is a human user of the scheduling API.
type Operator struct {
	ID         uuid.UUID `json:"id"`
	OperatorID string    `json:"operator_id"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	APIKeyHash *string   `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

var operatorIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._@-]{1,64}$`)

// ValidateOperatorID checks the allowed character set and length.
func ValidateOperatorID(id string) error {
	if !operatorIDPattern.MatchString(id) {
		return fmt.Errorf("operator_id must be 1-64 characters of [a-zA-Z0-9._@-], got %q", id)
	}
	return nil
}
