package core

import "fmt"

// Role identifies a responder specialization.
type Role string

const (
	RoleData     Role = "data"
	RoleForecast Role = "forecast"
	RoleInsights Role = "insights"

	// RoleRoot is the coordinating identity. It never appears in a dispatch
	// plan; it exists only for introspection labels.
	RoleRoot Role = "root"
)

// ResponderRoles returns the fixed set of dispatchable roles in
// initialization order.
func ResponderRoles() []Role {
	return []Role{RoleData, RoleForecast, RoleInsights}
}

// EmergencyRoles returns the roles forced onto every emergency request.
func EmergencyRoles() []Role {
	return []Role{RoleForecast, RoleData, RoleInsights}
}

// IsResponder reports whether the role is dispatchable.
func (r Role) IsResponder() bool {
	switch r {
	case RoleData, RoleForecast, RoleInsights:
		return true
	default:
		return false
	}
}

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsResponder() && r != RoleRoot {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }
