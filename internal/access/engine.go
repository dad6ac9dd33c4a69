package access

import (
	"fmt"
	"sort"
	"time"

	"github.com/justinvest/justinvest/internal/shared"
)

type compiledRole struct {
	def         RoleDefinition
	permissions map[string]struct{}
	constraints []Evaluator
}

// Engine enforces role-based access control. Role data is compiled once at
// construction and never mutated afterwards.
type Engine struct {
	roles map[string]compiledRole
}

// NewEngine builds the role lookup and compiles every role's constraints up
// front, so malformed constraint parameters fail construction rather than a
// later authorization check. A nil registry gets the built-in types.
func NewEngine(roles []RoleDefinition, registry *Registry) (*Engine, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	compiled := make(map[string]compiledRole, len(roles))
	for _, role := range roles {
		permissions := make(map[string]struct{}, len(role.Permissions))
		for _, code := range role.Permissions {
			permissions[code] = struct{}{}
		}
		evaluators := make([]Evaluator, 0, len(role.Constraints))
		for _, def := range role.Constraints {
			evaluator, err := registry.Build(def)
			if err != nil {
				return nil, fmt.Errorf("access: role %q: %w", role.Name, err)
			}
			evaluators = append(evaluators, evaluator)
		}
		compiled[role.Name] = compiledRole{def: role, permissions: permissions, constraints: evaluators}
	}
	return &Engine{roles: compiled}, nil
}

// Role returns the definition for a role name.
func (e *Engine) Role(name string) (RoleDefinition, error) {
	role, ok := e.roles[name]
	if !ok {
		return RoleDefinition{}, fmt.Errorf("%w: %q", shared.ErrUnknownRole, name)
	}
	return role.def, nil
}

// IsOperationAllowed decides whether the role may perform the operation in the
// given context. Constraints run in declared order and short-circuit on the
// first denial. A zero context defaults to now.
func (e *Engine) IsOperationAllowed(roleName, operationCode string, ctx SessionContext) (Decision, error) {
	role, ok := e.roles[roleName]
	if !ok {
		return Decision{}, fmt.Errorf("%w: %q", shared.ErrUnknownRole, roleName)
	}
	if ctx.AsOf.IsZero() {
		ctx.AsOf = time.Now()
	}
	if _, allowed := role.permissions[operationCode]; !allowed {
		return Decision{
			Granted: false,
			Reason:  fmt.Sprintf("Role '%s' lacks '%s'.", role.def.Label, operationCode),
		}, nil
	}
	if decision := evaluateConstraints(role.constraints, ctx); !decision.Granted {
		return decision, nil
	}
	return Decision{Granted: true}, nil
}

// PermittedOperations returns the role's permission codes sorted
// lexicographically, or an empty set when any constraint denies. Constraints
// are role-scoped, so they are evaluated once rather than per operation.
func (e *Engine) PermittedOperations(roleName string, ctx SessionContext) ([]string, error) {
	role, ok := e.roles[roleName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownRole, roleName)
	}
	if ctx.AsOf.IsZero() {
		ctx.AsOf = time.Now()
	}
	if decision := evaluateConstraints(role.constraints, ctx); !decision.Granted {
		return []string{}, nil
	}
	codes := make([]string, 0, len(role.permissions))
	for code := range role.permissions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

func evaluateConstraints(evaluators []Evaluator, ctx SessionContext) Decision {
	for _, evaluator := range evaluators {
		if decision := evaluator.Evaluate(ctx); !decision.Granted {
			return decision
		}
	}
	return Decision{Granted: true}
}
