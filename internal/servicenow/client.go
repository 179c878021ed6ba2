package servicenow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/catalog"
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/pkg/util"
)

const (
	incidentPath = "/api/now/table/incident"
	journalPath  = "/api/now/table/sys_journal_field"

	// sys_created_on format on journal entries.
	journalTimeLayout = "2006-01-02 15:04:05"
)

// Reference is a ServiceNow record reference: the raw value plus a link to
// the referenced record.
type Reference struct {
	Value string `json:"value"`
	Link  string `json:"link"`
}

// TicketRecord is the raw incident record as returned by the table API.
type TicketRecord struct {
	SysID            string    `json:"sys_id"`
	Number           string    `json:"number"`
	ShortDescription string    `json:"short_description"`
	CallerID         Reference `json:"caller_id"`
}

// Ticket converts the raw record to its lightweight summary form.
func (r TicketRecord) Ticket() domain.Ticket {
	return domain.Ticket{Number: r.Number, Title: r.ShortDescription}
}

// ClientInfo is a resolved sys_user record for a ticket's originator.
type ClientInfo struct {
	SysID    string `json:"sys_id"`
	UserName string `json:"user_name"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type journalRecord struct {
	SysID     string `json:"sys_id"`
	Element   string `json:"element"`
	CreatedOn string `json:"sys_created_on"`
	CreatedBy string `json:"sys_created_by"`
}

// Client talks to the ServiceNow table API with basic auth.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewClient constructs a client from configuration.
func NewClient(cfg config.ServiceNowConfig, logger *zap.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: cfg.Timeout()},
		logger:   logger,
		metrics:  metrics,
	}
}

// Tickets fetches tickets matching the filter as lightweight summaries,
// preserving upstream order. No dedup happens at this stage.
func (c *Client) Tickets(ctx context.Context, filter catalog.Filter) ([]domain.Ticket, error) {
	records, err := c.RawTickets(ctx, filter)
	if err != nil {
		return nil, err
	}
	tickets := make([]domain.Ticket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, record.Ticket())
	}
	return tickets, nil
}

// RawTickets fetches the unprocessed incident records matching the filter,
// including originator references and internal ids.
func (c *Client) RawTickets(ctx context.Context, filter catalog.Filter) ([]TicketRecord, error) {
	operation := "tickets:" + filter.Name
	query := url.Values{"sysparm_query": {filter.Query}}

	var records []TicketRecord
	if err := c.get(ctx, operation, incidentPath+"?"+query.Encode(), &records); err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.Number == "" {
			return nil, util.NewDataIntegrityError("incident record missing number",
				map[string]any{"filter": filter.Name, "sys_id": record.SysID}, nil)
		}
	}
	return records, nil
}

// JournalEntries fetches the journal entries attached to an incident,
// locally filtered to the requested journal type ("comments" or
// "work_notes") and ordered most recent first.
func (c *Client) JournalEntries(ctx context.Context, elementID, journalType string) ([]domain.JournalEntry, error) {
	operation := "journal:" + journalType
	query := url.Values{"sysparm_query": {"element_id=" + elementID}}

	var records []journalRecord
	if err := c.get(ctx, operation, journalPath+"?"+query.Encode(), &records); err != nil {
		return nil, err
	}

	entries := make([]domain.JournalEntry, 0, len(records))
	for _, record := range records {
		if record.Element != journalType {
			continue
		}
		createdAt, err := ParseJournalTimestamp(record.CreatedOn)
		if err != nil {
			return nil, util.NewDataIntegrityError("journal entry has malformed sys_created_on",
				map[string]any{"sys_id": record.SysID, "sys_created_on": record.CreatedOn}, err)
		}
		entries = append(entries, domain.JournalEntry{
			SysID:     record.SysID,
			Element:   record.Element,
			CreatedAt: createdAt,
			CreatedBy: record.CreatedBy,
		})
	}
	SortEntriesMostRecentFirst(entries)
	return entries, nil
}

// ResolveClient follows an originator reference link and returns the
// resolved user, or nil when the lookup yields no match. Absence is not an
// error: some tickets have no resolvable originator.
func (c *Client) ResolveClient(ctx context.Context, link string) (*ClientInfo, error) {
	if link == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, util.NewUpstreamError("resolve_client", 0, err)
	}
	c.prepare(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamFailure("resolve_client")
		return nil, util.NewUpstreamError("resolve_client", 0, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstreamRequest("resolve_client", resp.StatusCode)

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordUpstreamFailure("resolve_client")
		return nil, util.NewUpstreamError("resolve_client", resp.StatusCode, nil)
	}

	var envelope struct {
		Result *ClientInfo `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, util.NewUpstreamError("resolve_client", resp.StatusCode, err)
	}
	return envelope.Result, nil
}

// Ping verifies upstream reachability for readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	query := url.Values{"sysparm_limit": {"1"}}
	var records []TicketRecord
	return c.get(ctx, "ping", incidentPath+"?"+query.Encode(), &records)
}

// get performs a table API request and decodes the {"result": [...]}
// envelope into out. Non-2xx responses become upstream errors carrying the
// operation and status.
func (c *Client) get(ctx context.Context, operation, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return util.NewUpstreamError(operation, 0, err)
	}
	c.prepare(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamFailure(operation)
		return util.NewUpstreamError(operation, 0, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstreamRequest(operation, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordUpstreamFailure(operation)
		c.logger.Warn("upstream returned non-success status",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode))
		return util.NewUpstreamError(operation, resp.StatusCode, nil)
	}

	envelope := struct {
		Result json.RawMessage `json:"result"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return util.NewUpstreamError(operation, resp.StatusCode, err)
	}
	if envelope.Result == nil {
		return util.NewDataIntegrityError("upstream response missing result envelope",
			map[string]any{"operation": operation}, nil)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return util.NewDataIntegrityError("upstream result has unexpected shape",
			map[string]any{"operation": operation}, err)
	}
	return nil
}

func (c *Client) prepare(req *http.Request) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}

// ParseJournalTimestamp parses a sys_created_on value. The upstream emits
// timestamps in a fixed second-resolution layout; anything else is a
// data-integrity problem for the caller to surface.
func ParseJournalTimestamp(raw string) (time.Time, error) {
	ts, err := time.Parse(journalTimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse journal timestamp %q: %w", raw, err)
	}
	return ts, nil
}

// SortEntriesMostRecentFirst orders entries newest first. Entries sharing a
// timestamp order by sys_id descending, then by input position, so the
// "most recent entry" decision is deterministic regardless of upstream
// iteration order.
func SortEntriesMostRecentFirst(entries []domain.JournalEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].SysID > entries[j].SysID
	})
}
