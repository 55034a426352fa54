package tier

import (
	"errors"
	"fmt"
)

// Tier is an ordinal privilege rank. 0 is the most privileged, 5 the least.
type Tier int

const (
	Min Tier = 0
	Max Tier = 5
)

// Canonical role names. Regular is the externally visible label used in
// listing and filtering contexts for the lowest tier; User owns the ordinal.
// The two are deliberately not collapsed.
const (
	RoleAdmin     = "Admin"
	RoleExecutive = "Executive"
	RoleHR        = "HR"
	RoleManager   = "Manager"
	RoleLeader    = "Leader"
	RoleUser      = "User"
	RoleRegular   = "Regular"
)

var (
	ErrUnknownRole = errors.New("tier: unknown role")
	ErrMismatch    = errors.New("tier: role/tier mismatch")
)

// Model is the immutable role-to-tier mapping plus the role whitelists used
// by the directory surfaces. Built once at start and passed explicitly to
// every component that needs it; safe for unsynchronized concurrent reads.
type Model struct {
	byRole          map[string]Tier
	roles           []string
	adminAccess     []string
	executiveAccess []string
	managerAccess   []string
}

// NewModel constructs the standard six-role model.
func NewModel() *Model {
	return &Model{
		byRole: map[string]Tier{
			RoleAdmin:     0,
			RoleExecutive: 1,
			RoleHR:        2,
			RoleManager:   3,
			RoleLeader:    4,
			RoleUser:      5,
		},
		roles:           []string{RoleAdmin, RoleExecutive, RoleHR, RoleManager, RoleLeader, RoleUser},
		adminAccess:     []string{RoleAdmin, RoleExecutive, RoleHR, RoleManager, RoleLeader, RoleRegular},
		executiveAccess: []string{RoleHR, RoleManager, RoleLeader, RoleRegular},
		managerAccess:   []string{RoleLeader, RoleRegular},
	}
}

// TierOf resolves the tier a role name maps to.
func (m *Model) TierOf(role string) (Tier, error) {
	t, ok := m.byRole[role]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	return t, nil
}

// MismatchError reports a tier that does not belong to the supplied role.
// Its message is part of the API contract and is returned verbatim to
// callers.
type MismatchError struct {
	Role string
	Tier Tier
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("Tier '%d' is not valid for role '%s'.", e.Tier, e.Role)
}

func (e *MismatchError) Is(target error) bool { return target == ErrMismatch }

// Check verifies that a supplied tier is the one the model expects for the
// role. Unknown roles fail the same way as wrong tiers.
func (m *Model) Check(role string, t Tier) error {
	expected, ok := m.byRole[role]
	if !ok || expected != t {
		return &MismatchError{Role: role, Tier: t}
	}
	return nil
}

// Roles returns the assignable role universe in tier order.
func (m *Model) Roles() []string {
	out := make([]string, len(m.roles))
	copy(out, m.roles)
	return out
}

// AdminAccessRoles is the role whitelist for the admin surface.
func (m *Model) AdminAccessRoles() []string {
	out := make([]string, len(m.adminAccess))
	copy(out, m.adminAccess)
	return out
}

// ExecutiveAccessRoles is the role whitelist for the executive surface.
func (m *Model) ExecutiveAccessRoles() []string {
	out := make([]string, len(m.executiveAccess))
	copy(out, m.executiveAccess)
	return out
}

// ManagerAccessRoles is the role whitelist for the manager surface.
func (m *Model) ManagerAccessRoles() []string {
	out := make([]string, len(m.managerAccess))
	copy(out, m.managerAccess)
	return out
}
