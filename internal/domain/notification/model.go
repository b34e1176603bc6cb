package notification

import (
	"errors"
	"strings"
	"time"
)

// Severity of a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Style is the color treatment and icon of a severity.
type Style struct {
	ColorClass string
	Icon       string
}

var styles = map[Severity]Style{
	SeveritySuccess: {ColorClass: "bg-cornflower_blue-500 text-white", Icon: "✓"},
	SeverityError:   {ColorClass: "bg-ut_orange-500 text-white", Icon: "✕"},
	SeverityInfo:    {ColorClass: "bg-periwinkle-500 text-white", Icon: "ℹ"},
}

// Style returns the display style; unknown severities render as info.
func (s Severity) Style() Style {
	if st, ok := styles[s]; ok {
		return st
	}
	return styles[SeverityInfo]
}

// Valid reports whether s is one of the three severities.
func (s Severity) Valid() bool {
	_, ok := styles[s]
	return ok
}

// Mode selects how pushed notifications combine.
type Mode string

const (
	// ModeStack keeps every active notification visible.
	ModeStack Mode = "stack"
	// ModeSingle replaces the visitor's active notification on each push.
	ModeSingle Mode = "single"
)

// Default display durations per mode.
const (
	DefaultStackTTL  = 5 * time.Second
	DefaultSingleTTL = 3 * time.Second
)

// DefaultTTL returns the display duration for m.
func (m Mode) DefaultTTL() time.Duration {
	if m == ModeSingle {
		return DefaultSingleTTL
	}
	return DefaultStackTTL
}

// ParseMode accepts "stack" or "single" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStack, "":
		return ModeStack, nil
	case ModeSingle:
		return ModeSingle, nil
	}
	return "", ErrInvalidMode
}

// Domain errors
var (
	ErrEmptyMessage    = errors.New("notification message cannot be empty")
	ErrInvalidSeverity = errors.New("notification severity must be one of: success, error, info")
	ErrInvalidMode     = errors.New("notification mode must be one of: stack, single")
	ErrNotFound        = errors.New("notification not found")
)

// Notification is a transient banner queued for one visitor.
type Notification struct {
	ID        string
	VisitorID string
	Severity  Severity
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
	Dismissed bool
}

// Validate checks if the Notification has valid data.
// PRE: Notification struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notification) Validate() error {
	if strings.TrimSpace(n.Message) == "" {
		return ErrEmptyMessage
	}
	if !n.Severity.Valid() {
		return ErrInvalidSeverity
	}
	return nil
}

// IsActive reports whether the notification should still be shown at now.
// INVARIANT: Notification fields are not mutated
func (n Notification) IsActive(now time.Time) bool {
	return !n.Dismissed && now.Before(n.ExpiresAt)
}

// Remaining returns the display time left at now, never negative.
func (n Notification) Remaining(now time.Time) time.Duration {
	if d := n.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// RemainingMs is Remaining in whole milliseconds, for the fade-out animation.
func (n Notification) RemainingMs(now time.Time) int64 {
	return n.Remaining(now).Milliseconds()
}
