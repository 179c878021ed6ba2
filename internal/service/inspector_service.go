package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/servicenow"
)

// JournalSource provides journal entries and originator resolution for a
// ticket.
type JournalSource interface {
	JournalEntries(ctx context.Context, elementID, journalType string) ([]domain.JournalEntry, error)
	ResolveClient(ctx context.Context, link string) (*servicenow.ClientInfo, error)
}

// InspectorService decides whether a ticket is awaiting a staff response by
// comparing the most recent comment author against the ticket's originator.
type InspectorService struct {
	journals JournalSource
	logger   *zap.Logger
}

// NewInspectorService constructs the service.
func NewInspectorService(journals JournalSource, logger *zap.Logger) *InspectorService {
	return &InspectorService{journals: journals, logger: logger}
}

// NeedsResponse reports whether the ticket requires staff attention.
//
// A ticket with no comments is brand new and always needs a response. When
// the originator cannot be resolved to a user, the raw caller reference is
// compared as-is; it will essentially never match a comment author, so
// ambiguous tickets default to needing attention.
func (s *InspectorService) NeedsResponse(ctx context.Context, record servicenow.TicketRecord) (bool, error) {
	entries, err := s.journals.JournalEntries(ctx, record.SysID, domain.JournalTypeComments)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return true, nil
	}

	originator := record.CallerID.Value
	client, err := s.journals.ResolveClient(ctx, record.CallerID.Link)
	if err != nil {
		return false, err
	}
	if client != nil {
		originator = client.UserName
	} else {
		s.logger.Debug("originator not resolvable, comparing raw caller reference",
			zap.String("number", record.Number),
			zap.String("caller", record.CallerID.Value))
	}

	// The client already orders entries, but the decision below depends on
	// it, so re-sort rather than trusting the source's contract.
	servicenow.SortEntriesMostRecentFirst(entries)
	latest := entries[0]
	return latest.CreatedBy == originator, nil
}
