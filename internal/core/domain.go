package core

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"time"
)

// Error kinds. Every domain error unwraps to exactly one of these so callers
// can map failures with errors.Is without knowing the concrete error.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a user-facing domain error of a given kind.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

var (
	ErrDuplicateCategory  = newError(ErrConflict, "category already exists")
	ErrCategoryNotFound   = newError(ErrNotFound, "category not found")
	ErrUserExists         = newError(ErrConflict, "username already exists")
	ErrUserNotFound       = newError(ErrNotFound, "username not found")
	ErrInvalidCredentials = newError(ErrUnauthorized, "incorrect password")
	ErrSessionExpired     = newError(ErrUnauthorized, "session expired, please log in again")
	ErrPasswordTooShort   = newError(ErrValidation, "password must be at least 6 characters")
	ErrPasswordTooLong    = newError(ErrValidation, "password must be at most 72 bytes")
	ErrInvalidUsername    = newError(ErrValidation, "username must be 1-64 letters, digits, '.', '_' or '-'")
	ErrEmptyCategoryName  = newError(ErrValidation, "category name cannot be empty")
	ErrEmptyExpenseName   = newError(ErrValidation, "please enter an expense name")
	ErrExpenseNotFound    = newError(ErrNotFound, "expense not found")
	ErrInvalidMonthKey    = newError(ErrValidation, "month must be in YYYY-MM format")
	ErrInvalidAmount      = newError(ErrValidation, "invalid amount")
	ErrNegativeAmount     = newError(ErrValidation, "amount cannot be negative")
	ErrInvalidExpression  = newError(ErrValidation, "invalid amount expression")
	ErrUnknownMetric      = newError(ErrValidation, "unknown trend metric")
)

// Password length bounds accepted at signup. bcrypt ignores input past
// MaxPasswordLength bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

const timestampLayout = "2006-01-02 15:04:05"

// Timestamp is a wall-clock time stored as "2006-01-02 15:04:05",
// the layout used by the accounts file.
type Timestamp struct {
	time.Time
}

// Text returns the stored form, empty for the zero time.
func (t Timestamp) Text() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}

// ParseTimestamp accepts the stored layout, RFC 3339 or an empty string.
func ParseTimestamp(s string) (Timestamp, error) {
	if s == "" || s == "null" {
		return Timestamp{}, nil
	}
	parsed, err := time.ParseInLocation(timestampLayout, s, time.Local)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return Timestamp{}, err
		}
	}
	return Timestamp{Time: parsed}, nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Text() + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	parsed, err := ParseTimestamp(string(bytes.Trim(b, `"`)))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Account is a registered user. Username is the key of the accounts map and
// is not serialized inside the record.
//
// LegacyPassword holds an unsalted SHA-256 hex digest written by the first
// version of the tracker. It is replaced by PasswordHash on the next login.
type Account struct {
	Username       string    `json:"-"`
	PasswordHash   string    `json:"password_hash,omitempty"`
	LegacyPassword string    `json:"password,omitempty"`
	Email          string    `json:"email"`
	CreatedAt      Timestamp `json:"created_at"`
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)

// ValidateUsername checks that a username can safely name a data file.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword enforces the signup password policy.
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// MonthKey formats t as "YYYY-MM".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ValidateMonthKey checks the "YYYY-MM" format.
func ValidateMonthKey(key string) error {
	if len(key) != 7 {
		return ErrInvalidMonthKey
	}
	if _, err := time.Parse("2006-01", key); err != nil {
		return ErrInvalidMonthKey
	}
	return nil
}

// NormalizeCategoryName trims surrounding whitespace and rejects blank names.
func NormalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyCategoryName
	}
	return name, nil
}
