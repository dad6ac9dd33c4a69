package auth

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/justinvest/justinvest/internal/access"
	"github.com/justinvest/justinvest/internal/audit"
	"github.com/justinvest/justinvest/internal/passwd"
	"github.com/justinvest/justinvest/internal/shared"
)

// CredentialStore is the slice of the credential file the login flow needs.
type CredentialStore interface {
	Get(username string) (passwd.Record, bool, error)
	Verify(username, password string) (bool, error)
}

// Service wraps the login workflow: authenticate against the credential file,
// resolve the stored role, and compute the permitted operations.
type Service struct {
	creds  CredentialStore
	engine *access.Engine
	trail  *audit.Trail
	logger *slog.Logger
}

// NewService constructs a new Service. The audit trail may be nil.
func NewService(creds CredentialStore, engine *access.Engine, trail *audit.Trail, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{creds: creds, engine: engine, trail: trail, logger: logger}
}

// Login authenticates the user and returns their permitted operations as of
// the given time (zero means now). Absent users and wrong passwords both fail
// with the same generic error so callers cannot enumerate usernames.
func (s *Service) Login(username, password string, asOf time.Time) (Result, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Result{}, fmt.Errorf("%w: username is required", shared.ErrValidation)
	}

	record, exists, err := s.creds.Get(username)
	if err != nil {
		return Result{}, err
	}
	if !exists {
		s.deny(username, "unknown username")
		return Result{}, shared.ErrInvalidCredentials
	}
	match, err := s.creds.Verify(username, password)
	if err != nil {
		return Result{}, err
	}
	if !match {
		s.deny(username, "password mismatch")
		return Result{}, shared.ErrInvalidCredentials
	}

	role, err := s.engine.Role(record.Role)
	if err != nil {
		// Stored role no longer in the catalog: stale or corrupt data.
		return Result{}, fmt.Errorf("login: stored role for %q: %w", username, err)
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}
	codes, err := s.engine.PermittedOperations(role.Name, access.SessionContext{AsOf: asOf})
	if err != nil {
		return Result{}, err
	}

	s.record(audit.EventLoginGranted, username, role.Name)
	return Result{
		Username:              username,
		RoleName:              role.Name,
		RoleLabel:             role.Label,
		AllowedOperationCodes: codes,
	}, nil
}

func (s *Service) deny(username, detail string) {
	s.logger.Info("login denied", slog.String("username", username))
	s.record(audit.EventLoginDenied, username, detail)
}

func (s *Service) record(event, username, detail string) {
	if s.trail == nil {
		return
	}
	if err := s.trail.Record(event, username, detail); err != nil {
		s.logger.Warn("audit append failed", slog.Any("error", err))
	}
}
