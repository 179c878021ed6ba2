package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/triage-service/internal/catalog"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/servicenow"
)

// TicketSource executes catalog filters against the upstream ticket store.
type TicketSource interface {
	Tickets(ctx context.Context, filter catalog.Filter) ([]domain.Ticket, error)
	RawTickets(ctx context.Context, filter catalog.Filter) ([]servicenow.TicketRecord, error)
}

// ResponseClassifier decides whether a single ticket awaits a response.
type ResponseClassifier interface {
	NeedsResponse(ctx context.Context, record servicenow.TicketRecord) (bool, error)
}

// ReportStore persists and retrieves the computed priority report.
type ReportStore interface {
	Store(ctx context.Context, report *domain.PriorityReport) error
	Load(ctx context.Context) (*domain.PriorityReport, error)
}

// TriageService computes the priority and in-progress reports.
type TriageService struct {
	tickets        TicketSource
	classifier     ResponseClassifier
	reports        ReportStore
	catalog        catalog.Catalog
	journalWorkers int
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// TriageDependencies bundles collaborators for the triage service.
type TriageDependencies struct {
	Tickets        TicketSource
	Classifier     ResponseClassifier
	Reports        ReportStore
	Catalog        catalog.Catalog
	JournalWorkers int
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewTriageService constructs the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	workers := deps.JournalWorkers
	if workers < 1 {
		workers = 1
	}
	return &TriageService{
		tickets:        deps.Tickets,
		classifier:     deps.Classifier,
		reports:        deps.Reports,
		catalog:        deps.Catalog,
		journalWorkers: workers,
		dispatcher:     deps.Dispatcher,
		logger:         deps.Logger,
		metrics:        deps.Metrics,
	}
}

// HighPriorityReport fetches the ranked filters concurrently, merges the
// results into one deduplicated report, and sorts it most urgent first.
//
// A ticket matching several filters keeps the most urgent of its matched
// classes. Any single filter failure aborts the whole report: a partial
// report that silently omits a class would misinform staffing decisions.
func (s *TriageService) HighPriorityReport(ctx context.Context) (*domain.PriorityReport, error) {
	start := time.Now()
	filters := s.catalog.Ranked()
	batches := make([][]domain.RankedTicket, len(filters))

	g, gctx := errgroup.WithContext(ctx)
	for i, filter := range filters {
		i, filter := i, filter
		g.Go(func() error {
			tickets, err := s.tickets.Tickets(gctx, filter)
			if err != nil {
				return err
			}
			ranked := make([]domain.RankedTicket, 0, len(tickets))
			for _, ticket := range tickets {
				ranked = append(ranked, domain.RankedTicket{Ticket: ticket, Priority: filter.Priority})
			}
			batches[i] = ranked
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.publishReportFailed(ctx, events.ReportTypeHighPriority, err)
		return nil, err
	}

	// Single pass: remember where each ticket number landed and upgrade it
	// in place when a more urgent class shows up.
	seen := make(map[string]int)
	merged := make([]domain.RankedTicket, 0)
	for _, batch := range batches {
		for _, ranked := range batch {
			if at, ok := seen[ranked.Ticket.Number]; ok {
				if ranked.Priority.MoreUrgentThan(merged[at].Priority) {
					merged[at] = ranked
				}
				continue
			}
			seen[ranked.Ticket.Number] = len(merged)
			merged = append(merged, ranked)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Priority < merged[j].Priority
	})

	report := &domain.PriorityReport{Tickets: merged}
	s.metrics.RecordReport(events.ReportTypeHighPriority, len(merged), time.Since(start))
	s.publishReportComputed(ctx, events.ReportTypeHighPriority, len(merged), time.Since(start))
	return report, nil
}

// RefreshHighPriorityReport computes the report and replaces the cached
// snapshot. A failed computation leaves the previous snapshot untouched.
func (s *TriageService) RefreshHighPriorityReport(ctx context.Context) (*domain.PriorityReport, error) {
	report, err := s.HighPriorityReport(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.reports.Store(ctx, report); err != nil {
		return nil, err
	}
	s.logger.Info("cached high priority report", zap.Int("tickets", len(report.Tickets)))
	return report, nil
}

// CachedHighPriorityReport returns the last stored report.
func (s *TriageService) CachedHighPriorityReport(ctx context.Context) (*domain.PriorityReport, error) {
	return s.reports.Load(ctx)
}

// InProgressReport returns every ticket matching the catch-all filter that
// currently awaits a staff response, in upstream filter order. This view is
// urgency-agnostic and never cached.
func (s *TriageService) InProgressReport(ctx context.Context) ([]domain.Ticket, error) {
	start := time.Now()
	records, err := s.tickets.RawTickets(ctx, s.catalog.All)
	if err != nil {
		s.publishReportFailed(ctx, events.ReportTypeInProgress, err)
		return nil, err
	}

	// Per-ticket journal lookups are independent; the limit keeps the fan
	// out from overwhelming the upstream API.
	needs := make([]bool, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.journalWorkers)
	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			awaiting, err := s.classifier.NeedsResponse(gctx, record)
			if err != nil {
				return err
			}
			needs[i] = awaiting
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.publishReportFailed(ctx, events.ReportTypeInProgress, err)
		return nil, err
	}

	tickets := make([]domain.Ticket, 0, len(records))
	for i, record := range records {
		if needs[i] {
			tickets = append(tickets, record.Ticket())
		}
	}
	s.metrics.RecordReport(events.ReportTypeInProgress, len(tickets), time.Since(start))
	s.publishReportComputed(ctx, events.ReportTypeInProgress, len(tickets), time.Since(start))
	return tickets, nil
}

func (s *TriageService) publishReportComputed(ctx context.Context, reportType string, count int, duration time.Duration) {
	s.publish(ctx, events.Event{
		Type: events.EventReportComputed,
		Payload: events.ReportComputedPayload{
			ReportType:  reportType,
			TicketCount: count,
			Duration:    duration,
		},
	})
}

func (s *TriageService) publishReportFailed(ctx context.Context, reportType string, cause error) {
	s.publish(ctx, events.Event{
		Type: events.EventReportFailed,
		Payload: events.ReportFailedPayload{
			ReportType: reportType,
			Reason:     cause.Error(),
		},
	})
}

func (s *TriageService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
