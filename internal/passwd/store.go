// Package passwd implements the flat-file credential store that is
// authoritative for login: one "username|role|passwordHash" record per line.
package passwd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/justinvest/justinvest/internal/shared"
)

// Delimiter separates record fields and is forbidden inside field values.
const Delimiter = "|"

// Record is one line of the credential file.
type Record struct {
	Username     string
	Role         string
	PasswordHash string
}

// Hasher derives and verifies password hashes for stored records.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, stored string) (bool, error)
}

// Store provides append-only access to the credential file. Writes are
// serialized within this process; the duplicate check and append are not
// atomic across processes, which is a documented limitation.
type Store struct {
	path   string
	hasher Hasher

	mu sync.Mutex
}

// NewStore constructs a store over the given file path.
func NewStore(path string, hasher Hasher) *Store {
	return &Store{path: path, hasher: hasher}
}

// Path returns the credential file location.
func (s *Store) Path() string { return s.path }

// ParseRecord splits a credential line into its three fields.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(strings.TrimSuffix(line, "\n"), Delimiter)
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("%w: credential line must have 3 fields, got %d", shared.ErrCorruptRecord, len(fields))
	}
	return Record{Username: fields[0], Role: fields[1], PasswordHash: fields[2]}, nil
}

// Records reads every record in file order, skipping blank lines. A missing
// file is an empty store, not an error.
func (s *Store) Records() ([]Record, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("passwd: open %s: %w", s.path, err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := ParseRecord(line)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("passwd: read %s: %w", s.path, err)
	}
	return records, nil
}

// Get returns the first record matching the trimmed username. The store never
// deduplicates on read; Add is the only guard against duplicates.
func (s *Store) Get(username string) (Record, bool, error) {
	username = strings.TrimSpace(username)
	records, err := s.Records()
	if err != nil {
		return Record{}, false, err
	}
	for _, record := range records {
		if record.Username == username {
			return record, true, nil
		}
	}
	return Record{}, false, nil
}

// Add hashes the password and appends a new record, rejecting duplicates and
// field values that would corrupt the line format.
func (s *Store) Add(username, role, password string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username, err := sanitizeField(username, "username")
	if err != nil {
		return Record{}, err
	}
	role, err = sanitizeField(role, "role")
	if err != nil {
		return Record{}, err
	}
	if _, exists, err := s.Get(username); err != nil {
		return Record{}, err
	} else if exists {
		return Record{}, fmt.Errorf("%w: %q", shared.ErrDuplicateUser, username)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Record{}, err
	}
	record := Record{Username: username, Role: role, PasswordHash: hash}
	if err := s.append(record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Verify reports whether the password matches the stored hash for username.
// An absent record is false, not an error.
func (s *Store) Verify(username, password string) (bool, error) {
	record, exists, err := s.Get(username)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	return s.hasher.Verify(password, record.PasswordHash)
}

func sanitizeField(value, fieldName string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", shared.ErrValidation, fieldName)
	}
	if strings.ContainsAny(value, Delimiter+"\n") {
		return "", fmt.Errorf("%w: %s cannot contain %q or newlines", shared.ErrValidation, fieldName, Delimiter)
	}
	return value, nil
}

func (s *Store) append(record Record) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("passwd: create %s: %w", dir, err)
		}
	}
	missingNewline, err := missingTrailingNewline(s.path)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("passwd: open %s: %w", s.path, err)
	}
	line := record.Username + Delimiter + record.Role + Delimiter + record.PasswordHash + "\n"
	if missingNewline {
		// The previous writer left a partial last line; start a fresh one so
		// the new record does not merge into it.
		line = "\n" + line
	}
	if _, err := file.WriteString(line); err != nil {
		file.Close()
		return fmt.Errorf("passwd: append %s: %w", s.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("passwd: close %s: %w", s.path, err)
	}
	return nil
}

func missingTrailingNewline(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("passwd: open %s: %w", path, err)
	}
	defer file.Close()

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return false, fmt.Errorf("passwd: seek %s: %w", path, err)
	}
	if end == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, end-1); err != nil {
		return false, fmt.Errorf("passwd: read %s: %w", path, err)
	}
	return last[0] != '\n', nil
}
