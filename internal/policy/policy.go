// Package policy enforces the proactive password-strength rules checked at
// enrollment time. Every applicable rule is evaluated so the caller can show
// the complete list of fixes, not just the first.
package policy

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// DefaultSpecialChars is the special-character set a password must draw from.
const DefaultSpecialChars = "!@#$%*&"

// Default length bounds, inclusive.
const (
	DefaultMinLength = 8
	DefaultMaxLength = 12
)

// CheckResult reports the outcome of a password validation.
type CheckResult struct {
	IsValid    bool
	Violations []string
}

// Policy validates candidate passwords against strength rules and a
// case-insensitive weak-password blacklist.
type Policy struct {
	MinLength    int
	MaxLength    int
	SpecialChars string

	// A Caser may be stateful, so each Policy owns its own rather than
	// sharing a package-level one.
	fold      cases.Caser
	blacklist map[string]struct{}
}

// New constructs a policy with an explicit blacklist. Non-positive bounds and
// an empty special set fall back to the defaults.
func New(minLength, maxLength int, specialChars string, blacklist []string) *Policy {
	p := newPolicy(minLength, maxLength, specialChars)
	for _, entry := range blacklist {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		p.blacklist[p.fold.String(entry)] = struct{}{}
	}
	return p
}

// NewFromFile constructs a policy whose blacklist is read from a
// newline-delimited file, one entry per line. A missing file means an empty
// blacklist, not an error.
func NewFromFile(minLength, maxLength int, specialChars, blacklistPath string) (*Policy, error) {
	p := newPolicy(minLength, maxLength, specialChars)
	file, err := os.Open(blacklistPath)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("policy: open %s: %w", blacklistPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		entry := strings.TrimSpace(scanner.Text())
		if entry == "" {
			continue
		}
		p.blacklist[p.fold.String(entry)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", blacklistPath, err)
	}
	return p, nil
}

func newPolicy(minLength, maxLength int, specialChars string) *Policy {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if specialChars == "" {
		specialChars = DefaultSpecialChars
	}
	return &Policy{
		MinLength:    minLength,
		MaxLength:    maxLength,
		SpecialChars: specialChars,
		fold:         cases.Fold(),
		blacklist:    make(map[string]struct{}),
	}
}

// Validate checks the password against every rule and collects all violations.
func (p *Policy) Validate(username, password string) CheckResult {
	var violations []string

	if password != strings.TrimSpace(password) {
		violations = append(violations, "Password cannot start or end with whitespace.")
	}
	if length := len([]rune(password)); length < p.MinLength || length > p.MaxLength {
		violations = append(violations, fmt.Sprintf("Password must be between %d and %d characters.", p.MinLength, p.MaxLength))
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(p.SpecialChars, r) {
			hasSpecial = true
		}
	}
	if !hasLower {
		violations = append(violations, "Password must include at least one lowercase letter.")
	}
	if !hasUpper {
		violations = append(violations, "Password must include at least one uppercase letter.")
	}
	if !hasDigit {
		violations = append(violations, "Password must include at least one digit.")
	}
	if !hasSpecial {
		violations = append(violations, fmt.Sprintf("Password must include at least one special character from %s.", p.SpecialChars))
	}

	if username != "" && p.fold.String(password) == p.fold.String(username) {
		violations = append(violations, "Password cannot match the username.")
	}
	if _, banned := p.blacklist[p.fold.String(password)]; banned {
		violations = append(violations, "Password appears on the weak password blacklist.")
	}

	return CheckResult{IsValid: len(violations) == 0, Violations: violations}
}
