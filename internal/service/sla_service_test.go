package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

type statusTally struct {
	mu     sync.Mutex
	counts map[sla.Status]int
}

func (s *statusTally) ObserveSLAStatus(status sla.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[sla.Status]int{}
	}
	s.counts[status]++
}

func TestEvaluate(t *testing.T) {
	tally := &statusTally{}
	svc := NewSLAService(sla.NewEngine(sla.DefaultPolicy()), nil, tally)

	tests := []struct {
		name      string
		input     EvaluateInput
		status    sla.Status
		remaining string
		minutes   int
	}{
		{
			name:      "from created_at",
			input:     EvaluateInput{Priority: "critical", CreatedAt: "2024-01-01T00:00:00Z", TicketStatus: "open", Now: "2024-01-01T00:36:00Z"},
			status:    sla.StatusOK,
			remaining: "3h 24m",
			minutes:   240,
		},
		{
			name:      "from breach_at inside warning window",
			input:     EvaluateInput{BreachAt: "2024-01-01T01:00:00Z", TicketStatus: "in_progress", Now: "2024-01-01T00:15:00Z"},
			status:    sla.StatusWarning,
			remaining: "45m",
			minutes:   1440,
		},
		{
			name:      "breached",
			input:     EvaluateInput{BreachAt: "2024-01-01T00:00:00Z", TicketStatus: "open", Now: "2024-01-01T00:05:00Z"},
			status:    sla.StatusBreached,
			remaining: "Breached",
			minutes:   1440,
		},
		{
			name:      "resolved is met",
			input:     EvaluateInput{BreachAt: "2024-01-01T00:00:00Z", TicketStatus: "resolved", Now: "2024-01-01T01:00:00Z"},
			status:    sla.StatusMet,
			remaining: "Breached",
			minutes:   1440,
		},
		{
			name:      "no deadline",
			input:     EvaluateInput{TicketStatus: "open", Now: "2024-01-01T00:00:00Z"},
			status:    sla.StatusNone,
			remaining: sla.Placeholder,
			minutes:   1440,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Evaluate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Snapshot.Status)
			assert.Equal(t, tt.remaining, res.Snapshot.Remaining)
			assert.Equal(t, tt.minutes, res.DurationMinutes)
		})
	}
	assert.Equal(t, 1, tally.counts[sla.StatusMet])
}

func TestEvaluateRejectsBadTimestamps(t *testing.T) {
	svc := NewSLAService(nil, nil, nil)
	for field, input := range map[string]EvaluateInput{
		"created_at": {Priority: "high", CreatedAt: "last tuesday"},
		"breach_at":  {BreachAt: "2024-02-30T00:00:00Z"},
		"now":        {BreachAt: "2024-01-01T00:00:00Z", Now: "soon"},
	} {
		_, err := svc.Evaluate(input)
		require.Error(t, err, field)
		de := apperrors.ToDomainError(err)
		assert.Equal(t, "INVALID_TIMESTAMP", de.Code, field)
		assert.Equal(t, field, de.Details["field"])
		assert.ErrorIs(t, err, sla.ErrInvalidTimestamp)
	}
}

func TestEvaluateDefaultsNowToClock(t *testing.T) {
	engine := sla.NewEngine(sla.DefaultPolicy(), sla.WithClock(func() time.Time { return testNow }))
	svc := NewSLAService(engine, nil, nil)
	res, err := svc.Evaluate(EvaluateInput{BreachAt: "2024-01-01T01:00:00Z", TicketStatus: "open"})
	require.NoError(t, err)
	assert.Equal(t, sla.StatusWarning, res.Snapshot.Status)
	assert.Equal(t, testNow, res.Snapshot.At)
}

func TestPolicyView(t *testing.T) {
	view := NewSLAService(nil, nil, nil).Policy()
	assert.Equal(t, 240, view.Minutes[sla.PriorityCritical])
	assert.Equal(t, sla.PriorityMedium, view.Fallback)
	assert.Equal(t, time.Hour, view.WarningWindow)
}

func seedMixed(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()
	for _, p := range []string{"critical", "high", "medium", "low"} {
		_, err := h.svc.CreateTicket(ctx, TicketCreateInput{Title: p + " issue", Priority: p})
		require.NoError(t, err)
	}
	resolved, err := h.svc.CreateTicket(ctx, TicketCreateInput{Title: "done", Priority: "critical"})
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(ctx, "", resolved.ID, "resolved")
	require.NoError(t, err)

	legacy := &domain.Ticket{TicketNumber: "VM-LEGACY", Title: "legacy", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh, CreatedAt: testNow}
	require.NoError(t, h.tickets.Create(ctx, legacy))
}

func TestSummary(t *testing.T) {
	h := newHarness(t, DeadlineLocked)
	seedMixed(t, h)

	// critical breaches at 04:00, high enters warning at 07:00
	now := testNow.Add(7*time.Hour + 30*time.Minute)
	counts, err := h.sla.Summary(context.Background(), TicketListFilter{}, now)
	require.NoError(t, err)
	assert.Equal(t, map[sla.Status]int{
		sla.StatusOK:       2,
		sla.StatusWarning:  1,
		sla.StatusBreached: 1,
		sla.StatusMet:      1,
		sla.StatusNone:     1,
	}, counts)
}

func TestSummaryPagesThroughLargeSets(t *testing.T) {
	h := newHarness(t, DeadlineLocked)
	ctx := context.Background()
	for i := 0; i < 1203; i++ {
		_, err := h.svc.CreateTicket(ctx, TicketCreateInput{Title: "bulk", Priority: "low"})
		require.NoError(t, err)
	}
	counts, err := h.sla.Summary(ctx, TicketListFilter{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1203, counts[sla.StatusOK])
}

func TestTicketSLA(t *testing.T) {
	h := newHarness(t, DeadlineLocked)
	ticket, err := h.svc.CreateTicket(context.Background(), TicketCreateInput{Title: "x", Priority: "critical"})
	require.NoError(t, err)

	snap := h.sla.TicketSLA(ticket, testNow.Add(36*time.Minute))
	assert.Equal(t, sla.StatusOK, snap.Status)
	assert.Equal(t, "3h 24m", snap.Remaining)
}

func TestExportCSV(t *testing.T) {
	h := newHarness(t, DeadlineLocked)
	seedMixed(t, h)

	var buf bytes.Buffer
	err := h.sla.ExportCSV(context.Background(), &buf, TicketListFilter{}, testNow.Add(5*time.Hour))
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)
	assert.Equal(t, exportHeaders, records[0])

	byTitle := map[string][]string{}
	for _, rec := range records[1:] {
		byTitle[rec[1]] = rec
	}
	assert.Equal(t, "2024-01-01T04:00:00Z", byTitle["critical issue"][5])
	assert.Equal(t, "breached", byTitle["critical issue"][6])
	assert.Equal(t, "met", byTitle["done"][6])
	assert.Equal(t, "", byTitle["legacy"][5])
	assert.Equal(t, "none", byTitle["legacy"][6])
}
