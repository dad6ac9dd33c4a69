package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/justinvest/justinvest/internal/shared"
)

// Algorithm is the tag stored in the first field of every hash string.
const Algorithm = "pbkdf2_sha256"

// Production defaults. Tests pass cheaper parameters.
const (
	DefaultIterations = 600_000
	DefaultSaltLength = 16
)

// Hasher derives and verifies salted PBKDF2-HMAC-SHA256 password hashes,
// serialized as "pbkdf2_sha256$<iterations>$<saltHex>$<digestHex>".
type Hasher struct {
	Iterations int
	SaltLength int
}

// NewHasher constructs a Hasher, falling back to production defaults for
// non-positive parameters.
func NewHasher(iterations, saltLength int) Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if saltLength <= 0 {
		saltLength = DefaultSaltLength
	}
	return Hasher{Iterations: iterations, SaltLength: saltLength}
}

// Hash derives a digest over the password with a fresh random salt and returns
// the self-describing hash string.
func (h Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(password), salt, h.Iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("%s$%d$%s$%s", Algorithm, h.Iterations, hex.EncodeToString(salt), hex.EncodeToString(digest)), nil
}

// Verify recomputes the digest using the salt and iteration count stored in the
// hash string and compares it in constant time. A structurally invalid hash
// fails closed with ErrCorruptRecord.
func (h Hasher) Verify(password, stored string) (bool, error) {
	algorithm, iterations, salt, digest, err := parseHash(stored)
	if err != nil {
		return false, err
	}
	if algorithm != Algorithm {
		return false, fmt.Errorf("%w: %q", shared.ErrUnsupportedAlgorithm, algorithm)
	}
	candidate := pbkdf2.Key([]byte(password), salt, iterations, len(digest), sha256.New)
	return hmac.Equal(candidate, digest), nil
}

func parseHash(stored string) (algorithm string, iterations int, salt, digest []byte, err error) {
	fields := strings.Split(stored, "$")
	if len(fields) != 4 {
		return "", 0, nil, nil, fmt.Errorf("%w: password hash must have 4 fields, got %d", shared.ErrCorruptRecord, len(fields))
	}
	iterations, convErr := strconv.Atoi(fields[1])
	if convErr != nil || iterations <= 0 {
		return "", 0, nil, nil, fmt.Errorf("%w: bad iteration count %q", shared.ErrCorruptRecord, fields[1])
	}
	salt, hexErr := hex.DecodeString(fields[2])
	if hexErr != nil {
		return "", 0, nil, nil, fmt.Errorf("%w: bad salt encoding", shared.ErrCorruptRecord)
	}
	digest, hexErr = hex.DecodeString(fields[3])
	if hexErr != nil || len(digest) == 0 {
		return "", 0, nil, nil, fmt.Errorf("%w: bad digest encoding", shared.ErrCorruptRecord)
	}
	return fields[0], iterations, salt, digest, nil
}
