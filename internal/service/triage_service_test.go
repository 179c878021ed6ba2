package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/catalog"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/servicenow"
	"github.com/spec-kit/triage-service/pkg/util"
)

type fakeTicketSource struct {
	mu      sync.Mutex
	tickets map[string][]domain.Ticket
	errs    map[string]error
	raw     []servicenow.TicketRecord
	rawErr  error
}

func (f *fakeTicketSource) Tickets(ctx context.Context, filter catalog.Filter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[filter.Name]; err != nil {
		return nil, err
	}
	return f.tickets[filter.Name], nil
}

func (f *fakeTicketSource) RawTickets(ctx context.Context, filter catalog.Filter) ([]servicenow.TicketRecord, error) {
	if f.rawErr != nil {
		return nil, f.rawErr
	}
	return f.raw, nil
}

type fakeClassifier struct {
	needs   map[string]bool
	err     error
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeClassifier) NeedsResponse(ctx context.Context, record servicenow.TicketRecord) (bool, error) {
	now := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		peak := f.maxSeen.Load()
		if now <= peak || f.maxSeen.CompareAndSwap(peak, now) {
			break
		}
	}
	if f.err != nil {
		return false, f.err
	}
	return f.needs[record.SysID], nil
}

type fakeReportStore struct {
	mu     sync.Mutex
	stored []*domain.PriorityReport
	loaded *domain.PriorityReport
	err    error
}

func (f *fakeReportStore) Store(ctx context.Context, report *domain.PriorityReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, report)
	return nil
}

func (f *fakeReportStore) Load(ctx context.Context) (*domain.PriorityReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.loaded, nil
}

func newTriage(tickets TicketSource, classifier ResponseClassifier, store ReportStore, workers int) *TriageService {
	return NewTriageService(TriageDependencies{
		Tickets:        tickets,
		Classifier:     classifier,
		Reports:        store,
		Catalog:        catalog.Default("grp"),
		JournalWorkers: workers,
		Logger:         zap.NewNop(),
	})
}

func TestHighPriorityReportMergesAndSorts(t *testing.T) {
	t1 := domain.Ticket{Number: "INC0001", Title: "Laptop dead"}
	t2 := domain.Ticket{Number: "INC0002", Title: "Email bounce"}
	source := &fakeTicketSource{
		tickets: map[string][]domain.Ticket{
			catalog.FilterUnassigned:    {t1},
			catalog.FilterClientUpdated: {t1, t2},
			catalog.FilterStale:         {},
		},
	}
	triage := newTriage(source, nil, &fakeReportStore{}, 1)

	report, err := triage.HighPriorityReport(context.Background())
	require.NoError(t, err)

	// T1 matched two filters and keeps the more urgent class.
	assert.Equal(t, []domain.RankedTicket{
		{Ticket: t1, Priority: domain.PriorityUnassigned},
		{Ticket: t2, Priority: domain.PriorityClientUpdated},
	}, report.Tickets)
}

func TestHighPriorityReportDedupKeepsMostUrgent(t *testing.T) {
	shared := domain.Ticket{Number: "INC0042", Title: "Projector flicker"}
	source := &fakeTicketSource{
		tickets: map[string][]domain.Ticket{
			catalog.FilterUnassigned:    {},
			catalog.FilterClientUpdated: {shared},
			catalog.FilterStale:         {shared, {Number: "INC0043", Title: "Slow login"}},
		},
	}
	triage := newTriage(source, nil, &fakeReportStore{}, 1)

	report, err := triage.HighPriorityReport(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Tickets, 2)
	byNumber := map[string]domain.Priority{}
	for _, ranked := range report.Tickets {
		_, dup := byNumber[ranked.Ticket.Number]
		assert.False(t, dup, "ticket %s appears twice", ranked.Ticket.Number)
		byNumber[ranked.Ticket.Number] = ranked.Priority
	}
	assert.Equal(t, domain.PriorityClientUpdated, byNumber["INC0042"])
	assert.Equal(t, domain.PriorityStale, byNumber["INC0043"])
}

func TestHighPriorityReportSortedNonDecreasing(t *testing.T) {
	source := &fakeTicketSource{
		tickets: map[string][]domain.Ticket{
			catalog.FilterUnassigned:    {{Number: "INC0005"}},
			catalog.FilterClientUpdated: {{Number: "INC0001"}, {Number: "INC0002"}},
			catalog.FilterStale:         {{Number: "INC0003"}, {Number: "INC0004"}},
		},
	}
	triage := newTriage(source, nil, &fakeReportStore{}, 1)

	report, err := triage.HighPriorityReport(context.Background())
	require.NoError(t, err)

	for i := 1; i < len(report.Tickets); i++ {
		assert.LessOrEqual(t, report.Tickets[i-1].Priority, report.Tickets[i].Priority)
	}
}

func TestRefreshAbortsOnFilterFailure(t *testing.T) {
	upstreamErr := util.NewUpstreamError("tickets:stale", 503, nil)
	source := &fakeTicketSource{
		tickets: map[string][]domain.Ticket{
			catalog.FilterUnassigned:    {{Number: "INC0001"}},
			catalog.FilterClientUpdated: {{Number: "INC0002"}},
		},
		errs: map[string]error{catalog.FilterStale: upstreamErr},
	}
	store := &fakeReportStore{}
	triage := newTriage(source, nil, store, 1)

	report, err := triage.RefreshHighPriorityReport(context.Background())
	assert.Nil(t, report)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeUpstreamFailure))

	// A failed computation must leave the cached snapshot untouched.
	assert.Empty(t, store.stored)
}

func TestRefreshStoresReport(t *testing.T) {
	source := &fakeTicketSource{
		tickets: map[string][]domain.Ticket{
			catalog.FilterUnassigned: {{Number: "INC0001", Title: "New ticket"}},
		},
	}
	store := &fakeReportStore{}
	triage := newTriage(source, nil, store, 1)

	report, err := triage.RefreshHighPriorityReport(context.Background())
	require.NoError(t, err)
	require.Len(t, store.stored, 1)
	assert.Equal(t, report, store.stored[0])
}

func TestInProgressReportPreservesFilterOrder(t *testing.T) {
	records := []servicenow.TicketRecord{
		{SysID: "s1", Number: "INC0001", ShortDescription: "First"},
		{SysID: "s2", Number: "INC0002", ShortDescription: "Second"},
		{SysID: "s3", Number: "INC0003", ShortDescription: "Third"},
		{SysID: "s4", Number: "INC0004", ShortDescription: "Fourth"},
	}
	classifier := &fakeClassifier{needs: map[string]bool{"s1": true, "s3": true, "s4": true}}
	triage := newTriage(&fakeTicketSource{raw: records}, classifier, &fakeReportStore{}, 2)

	tickets, err := triage.InProgressReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Ticket{
		{Number: "INC0001", Title: "First"},
		{Number: "INC0003", Title: "Third"},
		{Number: "INC0004", Title: "Fourth"},
	}, tickets)
	assert.LessOrEqual(t, classifier.maxSeen.Load(), int32(2), "journal scans must respect the worker limit")
}

func TestInProgressReportAbortsOnClassifierFailure(t *testing.T) {
	records := []servicenow.TicketRecord{
		{SysID: "s1", Number: "INC0001"},
		{SysID: "s2", Number: "INC0002"},
	}
	classifier := &fakeClassifier{err: util.NewUpstreamError("journal:comments", 500, nil)}
	triage := newTriage(&fakeTicketSource{raw: records}, classifier, &fakeReportStore{}, 2)

	tickets, err := triage.InProgressReport(context.Background())
	assert.Nil(t, tickets)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeUpstreamFailure))
}

func TestInProgressReportAbortsOnFetchFailure(t *testing.T) {
	source := &fakeTicketSource{rawErr: util.NewUpstreamError("tickets:all", 502, nil)}
	triage := newTriage(source, &fakeClassifier{}, &fakeReportStore{}, 2)

	_, err := triage.InProgressReport(context.Background())
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeUpstreamFailure))
}
