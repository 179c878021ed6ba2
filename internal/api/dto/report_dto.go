package dto

import (
	"strconv"
	"strings"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/pkg/util"
)

// RankedTicketResponse is one report row on the wire. TicketName carries the
// "NUMBER Title" display form; Priority is the numeric class as a string.
type RankedTicketResponse struct {
	TicketName string `json:"ticket_name"`
	Priority   string `json:"priority"`
}

// PriorityReportResponse is the serialized report, ordered most urgent
// first. The same shape is stored in the cache and returned over HTTP.
type PriorityReportResponse struct {
	Tickets []RankedTicketResponse `json:"tickets"`
}

// NewPriorityReportResponse converts a domain report to its wire form.
func NewPriorityReportResponse(report *domain.PriorityReport) PriorityReportResponse {
	out := PriorityReportResponse{Tickets: make([]RankedTicketResponse, 0, len(report.Tickets))}
	for _, ranked := range report.Tickets {
		out.Tickets = append(out.Tickets, RankedTicketResponse{
			TicketName: ranked.Ticket.Display(),
			Priority:   ranked.Priority.String(),
		})
	}
	return out
}

// ToDomain converts the wire form back to a domain report. A priority that
// does not parse as an integer means the stored blob is corrupt.
func (r PriorityReportResponse) ToDomain() (*domain.PriorityReport, error) {
	report := &domain.PriorityReport{Tickets: make([]domain.RankedTicket, 0, len(r.Tickets))}
	for _, row := range r.Tickets {
		value, err := strconv.Atoi(row.Priority)
		if err != nil {
			return nil, util.NewDataIntegrityError("cached report has malformed priority",
				map[string]any{"ticket_name": row.TicketName, "priority": row.Priority}, err)
		}
		number, title, _ := strings.Cut(row.TicketName, " ")
		report.Tickets = append(report.Tickets, domain.RankedTicket{
			Ticket:   domain.Ticket{Number: number, Title: title},
			Priority: domain.Priority(value),
		})
	}
	return report, nil
}

// InProgressResponse lists tickets currently awaiting a staff response, in
// upstream filter order.
type InProgressResponse struct {
	Tickets []string `json:"tickets"`
}

// NewInProgressResponse converts the in-progress view to its wire form.
func NewInProgressResponse(tickets []domain.Ticket) InProgressResponse {
	out := InProgressResponse{Tickets: make([]string, 0, len(tickets))}
	for _, ticket := range tickets {
		out.Tickets = append(out.Tickets, ticket.Display())
	}
	return out
}
