package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

func TestBuildTicketWhere(t *testing.T) {
	requester := "u1"
	assignee := "agent-2"
	category := "network"
	term := "  VPN_100% "
	validID := uuid.NewString()

	tests := []struct {
		name   string
		filter TicketFilter
		where  string
		args   []any
	}{
		{
			name:   "empty filter",
			filter: TicketFilter{},
			where:  "1=1",
			args:   []any{},
		},
		{
			name: "scalar filters number placeholders in order",
			filter: TicketFilter{
				RequesterID: &requester,
				AssigneeID:  &assignee,
				Category:    &category,
			},
			where: "1=1 AND requester_id=$1 AND assignee_id=$2 AND category=$3",
			args:  []any{"u1", "agent-2", "network"},
		},
		{
			name: "in lists continue numbering",
			filter: TicketFilter{
				RequesterID: &requester,
				Statuses:    []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress},
				Priorities:  []domain.TicketPriority{domain.TicketPriorityCritical},
			},
			where: "1=1 AND requester_id=$1 AND status IN ($2,$3) AND priority IN ($4)",
			args: []any{"u1", domain.TicketStatusOpen, domain.TicketStatusInProgress,
				domain.TicketPriorityCritical},
		},
		{
			name:   "ids drop values that are not uuids",
			filter: TicketFilter{IDs: []string{validID, "VM-ABCDEF"}},
			where:  "1=1 AND id = ANY($1::uuid[])",
			args:   []any{[]string{validID}},
		},
		{
			name:   "search escapes like wildcards and reuses one placeholder",
			filter: TicketFilter{SearchTerm: &term},
			where: `1=1 AND (LOWER(title) LIKE $1 ESCAPE '\' OR LOWER(description) LIKE $1 ESCAPE '\'` +
				` OR LOWER(ticket_number) LIKE $1 ESCAPE '\')`,
			args: []any{`%vpn\_100\%%`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildTicketWhere(tt.filter)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestBuildTicketWhereSkipsBlankSearch(t *testing.T) {
	blank := "   "
	where, args := buildTicketWhere(TicketFilter{SearchTerm: &blank})
	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, `50\%\_off`, escapeLike(`50%_off`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestNormalizePage(t *testing.T) {
	cases := []struct{ limit, offset, wantLimit, wantOffset int }{
		{0, 0, 20, 0},
		{-5, -1, 20, 0},
		{10, 30, 10, 30},
		{10000, 0, MaxPageSize, 0},
	}
	for _, c := range cases {
		limit, offset := normalizePage(c.limit, c.offset)
		assert.Equal(t, c.wantLimit, limit)
		assert.Equal(t, c.wantOffset, offset)
	}
}
