package shared

import "errors"

var (
	// ErrInvalidCredentials indicates login failure. The message is safe to show
	// to users and deliberately does not say which half of the pair was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrDuplicateUser indicates the username is already enrolled.
	ErrDuplicateUser = errors.New("username already exists")
	// ErrUnknownRole indicates a role name absent from the role catalog.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnsupportedAlgorithm indicates an unrecognized password hash algorithm tag.
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")
	// ErrUnsupportedConstraint indicates an unrecognized constraint type discriminator.
	ErrUnsupportedConstraint = errors.New("unsupported constraint type")
	// ErrValidation indicates malformed input: empty or illegal field values,
	// bad constraint parameters, and the like.
	ErrValidation = errors.New("validation failed")
	// ErrCorruptRecord indicates stored data that no longer parses.
	ErrCorruptRecord = errors.New("corrupt record")
	// ErrPolicyViolation indicates a password rejected by the password policy.
	ErrPolicyViolation = errors.New("password does not meet policy")
	// ErrSignupNotAllowed indicates a role that cannot be chosen during self-signup.
	ErrSignupNotAllowed = errors.New("role not available for signup")
)
