package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinvest/justinvest/internal/access"
	"github.com/justinvest/justinvest/internal/passwd"
	"github.com/justinvest/justinvest/internal/shared"
)

func testRoles() []access.RoleDefinition {
	return []access.RoleDefinition{
		{
			Name:        "client",
			Label:       "Client",
			Permissions: []string{"VIEW_INVESTMENT_PORTFOLIO", "VIEW_ACCOUNT_BALANCE"},
		},
		{
			Name:        "teller",
			Label:       "Teller",
			Permissions: []string{"VIEW_ACCOUNT_BALANCE", "VIEW_INVESTMENT_PORTFOLIO"},
			Constraints: []access.ConstraintDefinition{
				{Type: "time_window", Params: map[string]string{"start": "09:00", "end": "17:00"}},
			},
		},
	}
}

func newLoginFixture(t *testing.T) (*Service, *passwd.Store) {
	t.Helper()
	engine, err := access.NewEngine(testRoles(), nil)
	require.NoError(t, err)
	store := passwd.NewStore(filepath.Join(t.TempDir(), "passwd.txt"), NewHasher(1000, 8))
	return NewService(store, engine, nil, nil), store
}

func asOf(hour int) time.Time {
	return time.Date(2025, 1, 1, hour, 0, 0, 0, time.UTC)
}

func TestLoginSuccess(t *testing.T) {
	svc, store := newLoginFixture(t)
	_, err := store.Add("alice", "client", "Valid@123")
	require.NoError(t, err)

	result, err := svc.Login("alice", "Valid@123", asOf(10))
	require.NoError(t, err)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, "client", result.RoleName)
	assert.Equal(t, "Client", result.RoleLabel)
	assert.Equal(t, []string{"VIEW_ACCOUNT_BALANCE", "VIEW_INVESTMENT_PORTFOLIO"}, result.AllowedOperationCodes)
	assert.Equal(t, []string{"View account balance", "View investment portfolio"}, result.AllowedOperationLabels())
}

func TestLoginTrimsUsername(t *testing.T) {
	svc, store := newLoginFixture(t)
	_, err := store.Add("alice", "client", "Valid@123")
	require.NoError(t, err)

	result, err := svc.Login("  alice  ", "Valid@123", asOf(10))
	require.NoError(t, err)
	assert.Equal(t, "alice", result.Username)
}

func TestLoginRequiresUsername(t *testing.T) {
	svc, _ := newLoginFixture(t)

	_, err := svc.Login("   ", "whatever", asOf(10))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestLoginGenericFailureHidesWhichFieldWasWrong(t *testing.T) {
	svc, store := newLoginFixture(t)
	_, err := store.Add("alice", "client", "Valid@123")
	require.NoError(t, err)

	_, unknownErr := svc.Login("mallory", "Valid@123", asOf(10))
	_, wrongPassErr := svc.Login("alice", "Wrong@123", asOf(10))

	assert.ErrorIs(t, unknownErr, shared.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPassErr, shared.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongPassErr.Error())
}

func TestLoginRejectsStaleRole(t *testing.T) {
	svc, store := newLoginFixture(t)
	_, err := store.Add("alice", "retired_role", "Valid@123")
	require.NoError(t, err)

	_, err = svc.Login("alice", "Valid@123", asOf(10))
	assert.ErrorIs(t, err, shared.ErrUnknownRole)
}

func TestLoginAppliesTimeWindow(t *testing.T) {
	svc, store := newLoginFixture(t)
	_, err := store.Add("terry", "teller", "Valid@123")
	require.NoError(t, err)

	// Login itself succeeds outside business hours; the operation set is empty.
	result, err := svc.Login("terry", "Valid@123", asOf(20))
	require.NoError(t, err)
	assert.Empty(t, result.AllowedOperationCodes)

	result, err = svc.Login("terry", "Valid@123", asOf(10))
	require.NoError(t, err)
	assert.Equal(t, []string{"VIEW_ACCOUNT_BALANCE", "VIEW_INVESTMENT_PORTFOLIO"}, result.AllowedOperationCodes)
}
