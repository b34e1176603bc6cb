package account

import (
	"errors"
	"strings"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 6

// MaxEmailLength caps the email field.
const MaxEmailLength = 254

// Domain errors. Messages are shown to the user as-is.
var (
	ErrEmptyEmail       = errors.New("Please enter your email")
	ErrEmptyPassword    = errors.New("Please enter your password")
	ErrPasswordMismatch = errors.New("Passwords do not match")
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters")
	ErrEmailTooLong     = errors.New("Email cannot exceed 254 characters")
)

// Session is the API's view of the current browser session.
type Session struct {
	Authenticated bool
	Email         string // empty when the API does not report it
}

// Credentials are submitted by the login and signup forms.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup is the signup form: credentials plus the confirmation field.
type Signup struct {
	Credentials
	ConfirmPassword string `json:"-"`
}

// Normalize trims the email. Passwords are kept as typed.
// POST: Email has no surrounding whitespace
func (c *Credentials) Normalize() {
	c.Email = strings.TrimSpace(c.Email)
}

// Validate checks the credentials are present.
// PRE: Normalize has been called
// POST: Returns nil if both fields are set
func (c Credentials) Validate() error {
	if c.Email == "" {
		return ErrEmptyEmail
	}
	if len(c.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if c.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// Validate checks the signup form. The confirmation is compared before the
// length so a mismatch always reports the mismatch.
// PRE: Normalize has been called
// POST: Returns ErrPasswordMismatch, ErrPasswordTooShort or a credentials error
func (s Signup) Validate() error {
	if s.Password != s.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len([]rune(s.Password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return s.Credentials.Validate()
}
