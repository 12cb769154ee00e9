package sla

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Priority enumerates ticket urgency tags that drive SLA duration.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Priorities lists every known priority from most to least urgent.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// FallbackPriority is used for any priority value missing from the policy.
const FallbackPriority = PriorityMedium

// ErrInvalidPolicy is returned when a policy table violates its invariants.
var ErrInvalidPolicy = errors.New("invalid sla policy")

// Policy maps priorities to their response windows in minutes.
type Policy struct {
	minutes map[Priority]int
}

// DefaultPolicy returns the standard 4h/8h/24h/72h table.
func DefaultPolicy() Policy {
	return Policy{minutes: map[Priority]int{
		PriorityCritical: 4 * 60,
		PriorityHigh:     8 * 60,
		PriorityMedium:   24 * 60,
		PriorityLow:      72 * 60,
	}}
}

// NewPolicy validates and copies the given table. All four priorities must be
// present with positive durations that grow as urgency decreases.
func NewPolicy(minutes map[Priority]int) (Policy, error) {
	table := make(map[Priority]int, len(Priorities))
	prev := 0
	for _, p := range Priorities {
		m, ok := minutes[p]
		if !ok {
			return Policy{}, fmt.Errorf("%w: missing %s", ErrInvalidPolicy, p)
		}
		if m <= 0 {
			return Policy{}, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidPolicy, p, m)
		}
		if m <= prev {
			return Policy{}, fmt.Errorf("%w: %s (%dm) must exceed the previous tier (%dm)", ErrInvalidPolicy, p, m, prev)
		}
		table[p] = m
		prev = m
	}
	return Policy{minutes: table}, nil
}

// Minutes returns the window for priority, falling back to medium.
func (p Policy) Minutes(priority string) int {
	table := p.minutes
	if table == nil {
		table = DefaultPolicy().minutes
	}
	if m, ok := table[NormalizePriority(priority)]; ok {
		return m
	}
	return table[FallbackPriority]
}

// Duration is Minutes expressed as a time.Duration.
func (p Policy) Duration(priority string) time.Duration {
	return time.Duration(p.Minutes(priority)) * time.Minute
}

// Table returns a copy of the policy table.
func (p Policy) Table() map[Priority]int {
	out := make(map[Priority]int, len(Priorities))
	for _, pr := range Priorities {
		out[pr] = p.Minutes(string(pr))
	}
	return out
}

// NormalizePriority lower-cases and trims a raw priority value.
func NormalizePriority(priority string) Priority {
	return Priority(strings.ToLower(strings.TrimSpace(priority)))
}

// IsKnown reports whether priority names one of the four tiers.
func (p Priority) IsKnown() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
