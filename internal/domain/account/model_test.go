package account_test

import (
	"errors"
	"strings"
	"testing"

	"flightlog/internal/domain/account"
)

// TestSignup_Validate tests signup checks in order.
func TestSignup_Validate(t *testing.T) {
	tests := []struct {
		name    string
		signup  account.Signup
		wantErr error
	}{
		{
			name: "valid signup",
			signup: account.Signup{
				Credentials:     account.Credentials{Email: "pilot@example.com", Password: "secret1"},
				ConfirmPassword: "secret1",
			},
		},
		{
			name: "exactly six characters",
			signup: account.Signup{
				Credentials:     account.Credentials{Email: "pilot@example.com", Password: "abcdef"},
				ConfirmPassword: "abcdef",
			},
		},
		{
			name: "mismatch",
			signup: account.Signup{
				Credentials:     account.Credentials{Email: "pilot@example.com", Password: "secret1"},
				ConfirmPassword: "secret2",
			},
			wantErr: account.ErrPasswordMismatch,
		},
		{
			name: "mismatch reported before length",
			signup: account.Signup{
				Credentials:     account.Credentials{Email: "pilot@example.com", Password: "abc"},
				ConfirmPassword: "abd",
			},
			wantErr: account.ErrPasswordMismatch,
		},
		{
			name: "too short",
			signup: account.Signup{
				Credentials:     account.Credentials{Email: "pilot@example.com", Password: "abcde"},
				ConfirmPassword: "abcde",
			},
			wantErr: account.ErrPasswordTooShort,
		},
		{
			name: "empty password",
			signup: account.Signup{
				Credentials: account.Credentials{Email: "pilot@example.com"},
			},
			wantErr: account.ErrPasswordTooShort,
		},
		{
			name: "missing email",
			signup: account.Signup{
				Credentials:     account.Credentials{Password: "secret1"},
				ConfirmPassword: "secret1",
			},
			wantErr: account.ErrEmptyEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.signup.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignup_Messages(t *testing.T) {
	if account.ErrPasswordMismatch.Error() != "Passwords do not match" {
		t.Errorf("mismatch message = %q", account.ErrPasswordMismatch.Error())
	}
	if account.ErrPasswordTooShort.Error() != "Password must be at least 6 characters" {
		t.Errorf("length message = %q", account.ErrPasswordTooShort.Error())
	}
}

// TestCredentials_Validate tests login field checks.
func TestCredentials_Validate(t *testing.T) {
	c := account.Credentials{Email: "  pilot@example.com ", Password: "x"}
	c.Normalize()
	if c.Email != "pilot@example.com" {
		t.Errorf("Normalize email = %q", c.Email)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	c.Password = ""
	if err := c.Validate(); !errors.Is(err, account.ErrEmptyPassword) {
		t.Errorf("Validate() = %v, want ErrEmptyPassword", err)
	}

	long := account.Credentials{Email: strings.Repeat("a", 250) + "@x.io", Password: "x"}
	if err := long.Validate(); !errors.Is(err, account.ErrEmailTooLong) {
		t.Errorf("Validate() = %v, want ErrEmailTooLong", err)
	}
}
