package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/justinvest/justinvest/internal/access"
	"github.com/justinvest/justinvest/internal/app"
	"github.com/justinvest/justinvest/internal/audit"
	"github.com/justinvest/justinvest/internal/auth"
	"github.com/justinvest/justinvest/internal/enroll"
	"github.com/justinvest/justinvest/internal/ops"
	"github.com/justinvest/justinvest/internal/passwd"
	"github.com/justinvest/justinvest/internal/policy"
	"github.com/justinvest/justinvest/internal/roles"
	"github.com/justinvest/justinvest/internal/shared"
	"github.com/justinvest/justinvest/internal/users"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	var (
		roleDefs []access.RoleDefinition
		userList []users.User
		pol      *policy.Policy
	)
	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		var err error
		roleDefs, err = roles.Load(cfg.RolesPath)
		return err
	})
	g.Go(func() error {
		var err error
		userList, err = users.NewStore(cfg.UsersPath).Load()
		return err
	})
	g.Go(func() error {
		var err error
		pol, err = policy.NewFromFile(cfg.PasswordMinLength, cfg.PasswordMaxLength, policy.DefaultSpecialChars, cfg.WeakPasswordsPath)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("load data", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("catalogs loaded", slog.Int("roles", len(roleDefs)), slog.Int("users", len(userList)))

	engine, err := access.NewEngine(roleDefs, access.NewRegistry())
	if err != nil {
		logger.Error("build access engine", slog.Any("error", err))
		os.Exit(1)
	}
	hasher := auth.NewHasher(cfg.HashIterations, cfg.HashSaltLength)
	creds := passwd.NewStore(cfg.PasswdPath, hasher)
	userStore := users.NewStore(cfg.UsersPath)
	trail := audit.NewTrail(cfg.AuditPath)
	loginSvc := auth.NewService(creds, engine, trail, logger)
	enrollSvc := enroll.NewService(pol, creds, userStore, trail, logger)

	fmt.Println("justInvest System")
	fmt.Println(ops.Menu())

	runMenu(bufio.NewReader(os.Stdin), loginSvc, enrollSvc, roleDefs, pol)
}

// runMenu drives the top-level prompt until the operator quits or stdin is
// exhausted. A closed or piped-out stdin means nobody is left to answer, so
// it ends the session instead of re-prompting.
func runMenu(reader *bufio.Reader, loginSvc *auth.Service, enrollSvc *enroll.Service, roleDefs []access.RoleDefinition, pol *policy.Policy) {
	for {
		fmt.Print("\n1. Log in\n2. Sign up\n3. Quit\nSelect an option: ")
		choice, err := readLine(reader)
		if err != nil {
			return
		}
		switch choice {
		case "1":
			runLogin(reader, loginSvc)
		case "2":
			runSignup(reader, enrollSvc, roleDefs, pol)
		case "3", "q", "quit":
			return
		default:
			fmt.Println("Please choose 1, 2, or 3.")
		}
	}
}

func runLogin(reader *bufio.Reader, svc *auth.Service) {
	fmt.Print("\nEnter username: ")
	username, err := readLine(reader)
	if err != nil {
		return
	}
	password, err := readPassword(reader, "Enter password: ")
	if err != nil {
		return
	}

	result, err := svc.Login(username, password, time.Time{})
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) || errors.Is(err, shared.ErrValidation) {
			fmt.Println("\nACCESS DENIED. Invalid username or password.")
		} else {
			fmt.Printf("\nACCESS DENIED: %v\n", err)
		}
		return
	}

	fmt.Println("\nACCESS GRANTED!")
	fmt.Printf("Username: %s\n", result.Username)
	fmt.Printf("Role: %s (%s)\n", result.RoleLabel, result.RoleName)
	if len(result.AllowedOperationCodes) == 0 {
		fmt.Println("No operations available for the current context.")
		return
	}
	fmt.Println("Authorized operations:")
	for _, code := range result.AllowedOperationCodes {
		label := code
		if op, ok := ops.ByCode[code]; ok {
			label = op.Label
		}
		fmt.Printf("  - %s: %s\n", code, label)
	}
}

func runSignup(reader *bufio.Reader, svc *enroll.Service, roleDefs []access.RoleDefinition, pol *policy.Policy) {
	signupRoles := enroll.SelfSignupRoles(roleDefs)
	if len(signupRoles) == 0 {
		fmt.Println("Self-service signup is currently unavailable.")
		return
	}

	fmt.Println("\njustInvest Self-Service Signup")
	username, err := promptUsername(reader)
	if err != nil {
		return
	}
	role, err := promptRole(reader, signupRoles)
	if err != nil {
		return
	}
	password, err := promptPassword(reader, pol, username)
	if err != nil {
		return
	}

	result, err := svc.Enroll(username, role, password)
	if err != nil {
		fmt.Printf("Enrollment failed: %v\n", err)
		return
	}
	fmt.Printf("\nEnrollment successful! Username '%s' is ready to log in as '%s'.\n", result.Username, role.Label)
}

func promptUsername(reader *bufio.Reader) (string, error) {
	for {
		fmt.Print("Choose a username: ")
		candidate, err := readLine(reader)
		if err != nil {
			return "", err
		}
		if candidate != "" {
			return candidate, nil
		}
		fmt.Println("Username cannot be empty.")
	}
}

func promptRole(reader *bufio.Reader, signupRoles []access.RoleDefinition) (access.RoleDefinition, error) {
	fmt.Println("\nSelect your role:")
	for i, role := range signupRoles {
		fmt.Printf("%d. %s (%s)\n", i+1, role.Label, role.Name)
	}
	for {
		fmt.Print("Enter the number corresponding to your role: ")
		line, err := readLine(reader)
		if err != nil {
			return access.RoleDefinition{}, err
		}
		choice, err := strconv.Atoi(line)
		if err != nil {
			fmt.Println("Please enter a numeric choice.")
			continue
		}
		if choice >= 1 && choice <= len(signupRoles) {
			return signupRoles[choice-1], nil
		}
		fmt.Println("Selection out of range.")
	}
}

func promptPassword(reader *bufio.Reader, pol *policy.Policy, username string) (string, error) {
	for {
		password, err := readPassword(reader, "Choose a password: ")
		if err != nil {
			return "", err
		}
		confirm, err := readPassword(reader, "Confirm password: ")
		if err != nil {
			return "", err
		}
		if password != confirm {
			fmt.Println("Passwords do not match.")
			continue
		}
		result := pol.Validate(username, password)
		if result.IsValid {
			return password, nil
		}
		fmt.Println("Password does not meet policy:")
		for _, violation := range result.Violations {
			fmt.Printf("  - %s\n", violation)
		}
	}
}

// readLine returns the next trimmed input line. A final unterminated line
// still counts as input; after that, the read error (io.EOF once stdin is
// exhausted) is returned so callers stop prompting.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		return "", err
	}
	return line, nil
}

// readPassword hides input when stdin is a terminal, falling back to a plain
// line read when it is not (tests, piped input).
func readPassword(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return string(raw), nil
		}
	}
	return readLine(reader)
}
