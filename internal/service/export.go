package service

import (
	"context"
	"encoding/csv"
	"io"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

var exportHeaders = []string{
	"Ticket Number", "Title", "Priority", "Status", "Category",
	"SLA Breach", "SLA Status", "Created At",
}

// ExportCSV writes every ticket matching filter as CSV, including the SLA
// status derived at now.
func (s *SLAService) ExportCSV(ctx context.Context, w io.Writer, filter TicketListFilter, now time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return err
	}
	var writeErr error
	err := s.eachTicket(ctx, filter, func(t *domain.Ticket) {
		if writeErr != nil {
			return
		}
		breach := ""
		if t.SLABreachAt != nil {
			breach = t.SLABreachAt.UTC().Format(time.RFC3339)
		}
		writeErr = cw.Write([]string{
			t.TicketNumber,
			t.Title,
			string(t.Priority),
			string(t.Status),
			t.Category,
			breach,
			string(s.engine.ClassifyStatus(t.SLABreachAt, string(t.Status), now)),
			t.CreatedAt.UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}
	cw.Flush()
	return cw.Error()
}
