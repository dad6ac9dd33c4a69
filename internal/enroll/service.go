// Package enroll implements self-service signup: policy check, append to the
// credential file, then append to the user-records store.
//
// The two writes are not transactional. A failure after the credential append
// leaves a user who can log in but is missing from users.json; this window is
// accepted for the prototype and surfaced in the returned error rather than
// rolled back.
package enroll

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/justinvest/justinvest/internal/access"
	"github.com/justinvest/justinvest/internal/audit"
	"github.com/justinvest/justinvest/internal/passwd"
	"github.com/justinvest/justinvest/internal/policy"
	"github.com/justinvest/justinvest/internal/shared"
	"github.com/justinvest/justinvest/internal/users"
)

// Result describes a completed enrollment.
type Result struct {
	Username     string
	Role         string
	PasswordHash string
	PasswordFile string
	UsersFile    string
}

// Service orchestrates enrollment across policy, credential store, and the
// secondary user-records store.
type Service struct {
	policy *policy.Policy
	creds  *passwd.Store
	users  *users.Store
	trail  *audit.Trail
	logger *slog.Logger
}

// NewService constructs a new Service. The audit trail may be nil.
func NewService(pol *policy.Policy, creds *passwd.Store, userStore *users.Store, trail *audit.Trail, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{policy: pol, creds: creds, users: userStore, trail: trail, logger: logger}
}

// Enroll validates the password against policy, checks the role is open for
// self-signup, and appends the user to both stores.
func (s *Service) Enroll(username string, role access.RoleDefinition, password string) (Result, error) {
	check := s.policy.Validate(username, password)
	if !check.IsValid {
		detail := strings.Join(check.Violations, "; ")
		s.record(audit.EventEnrollRejected, username, detail)
		return Result{}, fmt.Errorf("%w: %s", shared.ErrPolicyViolation, detail)
	}
	if !role.AllowSelfSignup {
		s.record(audit.EventEnrollRejected, username, "role "+role.Name+" not open for signup")
		return Result{}, fmt.Errorf("%w: role %q cannot be selected during signup", shared.ErrSignupNotAllowed, role.Label)
	}

	record, err := s.creds.Add(username, role.Name, password)
	if err != nil {
		s.record(audit.EventEnrollRejected, username, err.Error())
		return Result{}, fmt.Errorf("enroll: %w", err)
	}
	if err := s.users.Append(users.User{
		Username:     record.Username,
		FullName:     record.Username,
		Role:         record.Role,
		PasswordHash: record.PasswordHash,
	}); err != nil {
		// Credential file already holds the record; the stores are now out of
		// sync until an operator reconciles them.
		s.logger.Error("user store append failed after credential write",
			slog.String("username", record.Username), slog.Any("error", err))
		return Result{}, fmt.Errorf("enroll: user records: %w", err)
	}

	s.record(audit.EventEnrollCompleted, record.Username, record.Role)
	return Result{
		Username:     record.Username,
		Role:         record.Role,
		PasswordHash: record.PasswordHash,
		PasswordFile: s.creds.Path(),
		UsersFile:    s.users.Path(),
	}, nil
}

// SelfSignupRoles returns the subset of roles open to self-service signup.
func SelfSignupRoles(defs []access.RoleDefinition) []access.RoleDefinition {
	open := make([]access.RoleDefinition, 0, len(defs))
	for _, def := range defs {
		if def.AllowSelfSignup {
			open = append(open, def)
		}
	}
	return open
}

func (s *Service) record(event, username, detail string) {
	if s.trail == nil {
		return
	}
	if err := s.trail.Record(event, username, detail); err != nil {
		s.logger.Warn("audit append failed", slog.Any("error", err))
	}
}
