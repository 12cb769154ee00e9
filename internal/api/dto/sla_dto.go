package dto

import (
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/sla"
)

// SLASnapshot is the derived SLA state of one deadline.
type SLASnapshot struct {
	BreachAt         *time.Time `json:"breach_at"`
	Status           sla.Status `json:"status"`
	Remaining        string     `json:"remaining"`
	RemainingSeconds *int64     `json:"remaining_seconds"`
	EvaluatedAt      time.Time  `json:"evaluated_at"`
}

// EvaluateRequest is a stateless SLA evaluation. Supply breach_at, or
// created_at together with priority.
type EvaluateRequest struct {
	Priority  string `json:"priority"`
	CreatedAt string `json:"created_at"`
	BreachAt  string `json:"breach_at"`
	Status    string `json:"status"`
	Now       string `json:"now"`
}

// EvaluateResponse echoes the resolved window and the snapshot.
type EvaluateResponse struct {
	Priority        sla.Priority `json:"priority"`
	DurationMinutes int          `json:"duration_minutes"`
	SLA             SLASnapshot  `json:"sla"`
}

// PolicyResponse describes the active priority table.
type PolicyResponse struct {
	Priorities           []PolicyEntry `json:"priorities"`
	FallbackPriority     sla.Priority  `json:"fallback_priority"`
	WarningWindowMinutes int           `json:"warning_window_minutes"`
}

// PolicyEntry is one row of the priority table.
type PolicyEntry struct {
	Priority        sla.Priority `json:"priority"`
	DurationMinutes int          `json:"duration_minutes"`
}

// SummaryResponse counts tickets per SLA status.
type SummaryResponse struct {
	Counts      map[sla.Status]int `json:"counts"`
	Total       int                `json:"total"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
}
