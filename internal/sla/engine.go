// Package sla computes ticket response deadlines and classifies how close a
// ticket is to breaching them. Everything here is pure: callers pass "now"
// explicitly, so results are deterministic and safe to share across
// goroutines.
package sla

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the derived urgency tier of a deadline relative to now.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusBreached Status = "breached"
	StatusMet      Status = "met"
	StatusNone     Status = "none"
)

// Statuses lists every status value in display order.
var Statuses = []Status{StatusOK, StatusWarning, StatusBreached, StatusMet, StatusNone}

// WarningWindow is the fixed period before breach in which a ticket is at risk.
// It does not scale with the priority's window.
const WarningWindow = 60 * time.Minute

// Placeholder is rendered when a ticket has no deadline.
const Placeholder = "—"

// BreachedLabel is rendered once a deadline has passed.
const BreachedLabel = "Breached"

// ErrInvalidTimestamp marks a missing or unparseable timestamp input.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Snapshot bundles every derived value for one deadline at one instant.
type Snapshot struct {
	BreachAt  *time.Time    `json:"breach_at"`
	Status    Status        `json:"status"`
	Remaining string        `json:"remaining"`
	Left      time.Duration `json:"-"`
	At        time.Time     `json:"evaluated_at"`
}

// Engine applies a Policy. The zero value uses DefaultPolicy and time.Now.
type Engine struct {
	policy Policy
	clock  func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock used by Now.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewEngine builds an engine for the given policy.
func NewEngine(policy Policy, opts ...Option) *Engine {
	e := &Engine{policy: policy, clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's policy table.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Now reads the engine clock.
func (e *Engine) Now() time.Time {
	if e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

// DurationForPriority returns the window in minutes. Unknown values,
// including the empty string, get the medium window.
func (e *Engine) DurationForPriority(priority string) int {
	return e.policy.Minutes(priority)
}

// ComputeBreachAt returns createdAt plus the priority window, in UTC.
func (e *Engine) ComputeBreachAt(priority string, createdAt time.Time) (time.Time, error) {
	if createdAt.IsZero() {
		return time.Time{}, fmt.Errorf("%w: created_at is zero", ErrInvalidTimestamp)
	}
	return createdAt.Add(e.policy.Duration(priority)).UTC(), nil
}

// ComputeBreachAtString parses createdAt as RFC3339 before computing.
func (e *Engine) ComputeBreachAtString(priority, createdAt string) (time.Time, error) {
	t, err := ParseTimestamp(createdAt)
	if err != nil {
		return time.Time{}, err
	}
	return e.ComputeBreachAt(priority, t)
}

// ClassifyStatus derives the urgency tier. Resolved and closed tickets are
// always met, whatever the deadline says.
func (e *Engine) ClassifyStatus(breachAt *time.Time, ticketStatus string, now time.Time) Status {
	if IsExempt(ticketStatus) {
		return StatusMet
	}
	if breachAt == nil {
		return StatusNone
	}
	remaining := breachAt.Sub(now)
	switch {
	case remaining <= 0:
		return StatusBreached
	case remaining <= WarningWindow:
		return StatusWarning
	default:
		return StatusOK
	}
}

// FormatRemaining renders the time left as "3h 24m", "45m" or "Breached".
func (e *Engine) FormatRemaining(breachAt *time.Time, now time.Time) string {
	if breachAt == nil {
		return Placeholder
	}
	remaining := breachAt.Sub(now)
	if remaining <= 0 {
		return BreachedLabel
	}
	totalMins := int64(remaining / time.Minute)
	hours := totalMins / 60
	mins := totalMins % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// Evaluate computes status and label together.
func (e *Engine) Evaluate(breachAt *time.Time, ticketStatus string, now time.Time) Snapshot {
	snap := Snapshot{
		BreachAt:  breachAt,
		Status:    e.ClassifyStatus(breachAt, ticketStatus, now),
		Remaining: e.FormatRemaining(breachAt, now),
		At:        now.UTC(),
	}
	if breachAt != nil {
		snap.Left = breachAt.Sub(now)
	}
	return snap
}

// IsExempt reports whether the operational status ends SLA tracking.
func IsExempt(ticketStatus string) bool {
	switch strings.ToLower(strings.TrimSpace(ticketStatus)) {
	case "resolved", "closed":
		return true
	}
	return false
}

// ParseTimestamp accepts RFC3339 with or without fractional seconds.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
	}
	return t, nil
}

var defaultEngine = NewEngine(DefaultPolicy())

// DurationForPriority uses the default policy.
func DurationForPriority(priority string) int {
	return defaultEngine.DurationForPriority(priority)
}

// ComputeBreachAt uses the default policy.
func ComputeBreachAt(priority string, createdAt time.Time) (time.Time, error) {
	return defaultEngine.ComputeBreachAt(priority, createdAt)
}

// ClassifyStatus uses the default policy.
func ClassifyStatus(breachAt *time.Time, ticketStatus string, now time.Time) Status {
	return defaultEngine.ClassifyStatus(breachAt, ticketStatus, now)
}

// FormatRemaining uses the default policy.
func FormatRemaining(breachAt *time.Time, now time.Time) string {
	return defaultEngine.FormatRemaining(breachAt, now)
}
