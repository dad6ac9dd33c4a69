package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinvest/justinvest/internal/shared"
)

func tellerRoles() []RoleDefinition {
	return []RoleDefinition{
		{
			Name:        "client",
			Label:       "Client",
			Permissions: []string{"VIEW_ACCOUNT_BALANCE", "VIEW_INVESTMENT_PORTFOLIO"},
		},
		{
			Name:        "teller",
			Label:       "Teller",
			Permissions: []string{"VIEW_INVESTMENT_PORTFOLIO", "VIEW_ACCOUNT_BALANCE"},
			Constraints: []ConstraintDefinition{
				{Type: "time_window", Params: map[string]string{"start": "09:00", "end": "17:00"}},
			},
		},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(tellerRoles(), NewRegistry())
	require.NoError(t, err)
	return engine
}

func TestNewEngineRejectsMalformedConstraints(t *testing.T) {
	_, err := NewEngine([]RoleDefinition{{
		Name:        "broken",
		Label:       "Broken",
		Constraints: []ConstraintDefinition{{Type: "time_window", Params: map[string]string{"start": "09:00"}}},
	}}, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewEngine([]RoleDefinition{{
		Name:        "broken",
		Label:       "Broken",
		Constraints: []ConstraintDefinition{{Type: "geo_fence"}},
	}}, nil)
	assert.ErrorIs(t, err, shared.ErrUnsupportedConstraint)
}

func TestRoleLookup(t *testing.T) {
	engine := newTestEngine(t)

	role, err := engine.Role("teller")
	require.NoError(t, err)
	assert.Equal(t, "Teller", role.Label)

	_, err = engine.Role("auditor")
	assert.ErrorIs(t, err, shared.ErrUnknownRole)
}

func TestIsOperationAllowed(t *testing.T) {
	engine := newTestEngine(t)

	decision, err := engine.IsOperationAllowed("client", "VIEW_ACCOUNT_BALANCE", at(20, 0))
	require.NoError(t, err)
	assert.True(t, decision.Granted)

	decision, err = engine.IsOperationAllowed("client", "MODIFY_INVESTMENT_PORTFOLIO", at(10, 0))
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "Role 'Client' lacks 'MODIFY_INVESTMENT_PORTFOLIO'.", decision.Reason)

	_, err = engine.IsOperationAllowed("auditor", "VIEW_ACCOUNT_BALANCE", at(10, 0))
	assert.ErrorIs(t, err, shared.ErrUnknownRole)
}

func TestIsOperationAllowedAppliesConstraints(t *testing.T) {
	engine := newTestEngine(t)

	decision, err := engine.IsOperationAllowed("teller", "VIEW_ACCOUNT_BALANCE", at(10, 0))
	require.NoError(t, err)
	assert.True(t, decision.Granted)

	decision, err = engine.IsOperationAllowed("teller", "VIEW_ACCOUNT_BALANCE", at(20, 0))
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Contains(t, decision.Reason, "09:00-17:00")

	// Permission check comes first: a lacking permission is reported even
	// when a constraint would also deny.
	decision, err = engine.IsOperationAllowed("teller", "MODIFY_INVESTMENT_PORTFOLIO", at(20, 0))
	require.NoError(t, err)
	assert.Equal(t, "Role 'Teller' lacks 'MODIFY_INVESTMENT_PORTFOLIO'.", decision.Reason)
}

func TestConstraintsShortCircuitInDeclaredOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register("deny_all", func(params map[string]string) (Evaluator, error) {
		return denyAll{reason: params["reason"]}, nil
	})
	engine, err := NewEngine([]RoleDefinition{{
		Name:        "locked",
		Label:       "Locked",
		Permissions: []string{"VIEW_ACCOUNT_BALANCE"},
		Constraints: []ConstraintDefinition{
			{Type: "deny_all", Params: map[string]string{"reason": "first"}},
			{Type: "deny_all", Params: map[string]string{"reason": "second"}},
		},
	}}, registry)
	require.NoError(t, err)

	decision, err := engine.IsOperationAllowed("locked", "VIEW_ACCOUNT_BALANCE", at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, "first", decision.Reason)
}

func TestPermittedOperations(t *testing.T) {
	engine := newTestEngine(t)

	// Inside the window: both permissions, sorted lexicographically.
	codes, err := engine.PermittedOperations("teller", at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"VIEW_ACCOUNT_BALANCE", "VIEW_INVESTMENT_PORTFOLIO"}, codes)

	// Outside the window: empty regardless of how many permissions the role has.
	codes, err = engine.PermittedOperations("teller", at(20, 0))
	require.NoError(t, err)
	assert.Empty(t, codes)

	_, err = engine.PermittedOperations("auditor", at(10, 0))
	assert.ErrorIs(t, err, shared.ErrUnknownRole)
}

func TestPermittedOperationsUnconstrainedRole(t *testing.T) {
	engine := newTestEngine(t)

	codes, err := engine.PermittedOperations("client", at(3, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"VIEW_ACCOUNT_BALANCE", "VIEW_INVESTMENT_PORTFOLIO"}, codes)
}

func TestZeroContextDefaultsToNow(t *testing.T) {
	engine := newTestEngine(t)

	// The client role has no constraints, so "now" always grants.
	decision, err := engine.IsOperationAllowed("client", "VIEW_ACCOUNT_BALANCE", SessionContext{})
	require.NoError(t, err)
	assert.True(t, decision.Granted)
}
