package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/domain"
)

// TriageAPI is the report surface the handler exposes over HTTP.
type TriageAPI interface {
	CachedHighPriorityReport(ctx context.Context) (*domain.PriorityReport, error)
	RefreshHighPriorityReport(ctx context.Context) (*domain.PriorityReport, error)
	InProgressReport(ctx context.Context) ([]domain.Ticket, error)
}

// ReportsHandler serves the priority and in-progress reports.
type ReportsHandler struct {
	triage TriageAPI
}

// NewReportsHandler returns a new handler instance.
func NewReportsHandler(triage TriageAPI) *ReportsHandler {
	return &ReportsHandler{triage: triage}
}

// HighPriority returns the last cached priority report. Responds 404 with a
// CACHE_MISS envelope when no report has ever been computed.
func (h *ReportsHandler) HighPriority(c *fiber.Ctx) error {
	report, err := h.triage.CachedHighPriorityReport(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPriorityReportResponse(report))
}

// RefreshHighPriority recomputes the report, replaces the cached snapshot,
// and returns the fresh result.
func (h *ReportsHandler) RefreshHighPriority(c *fiber.Ctx) error {
	report, err := h.triage.RefreshHighPriorityReport(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPriorityReportResponse(report))
}

// InProgress computes the live needs-response view. Never cached.
func (h *ReportsHandler) InProgress(c *fiber.Ctx) error {
	tickets, err := h.triage.InProgressReport(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewInProgressResponse(tickets))
}
