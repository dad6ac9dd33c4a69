package access

import "time"

// ConstraintDefinition is the raw, config-level form of a role constraint.
// Params is interpreted by the builder registered for Type.
type ConstraintDefinition struct {
	Type   string
	Params map[string]string
}

// RoleDefinition is an immutable role catalog entry.
type RoleDefinition struct {
	Name            string
	Label           string
	Permissions     []string
	Constraints     []ConstraintDefinition
	AllowSelfSignup bool
}

// SessionContext carries the request-time inputs to constraint evaluation.
// AsOf is "now" for the purposes of time-based rules.
type SessionContext struct {
	AsOf time.Time
}

// Decision is the outcome of a permission or constraint check.
type Decision struct {
	Granted bool
	Reason  string
}
