package orchestrators

import "errors"

// UserError pairs a failure with the sentence shown to the user for it.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// UserMessage returns the user-facing sentence carried by err, or fallback.
func UserMessage(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return fallback
}

func userError(message string, err error) error {
	return &UserError{Message: message, Err: err}
}
