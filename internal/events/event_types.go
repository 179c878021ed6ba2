package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReportComputed EventType = "report_computed"
	EventReportFailed   EventType = "report_failed"
)

// Report type identifiers used in event payloads.
const (
	ReportTypeHighPriority = "high_priority"
	ReportTypeInProgress   = "in_progress"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ReportComputedPayload payload.
type ReportComputedPayload struct {
	ReportType  string        `json:"report_type"`
	TicketCount int           `json:"ticket_count"`
	Duration    time.Duration `json:"duration"`
}

// ReportFailedPayload payload.
type ReportFailedPayload struct {
	ReportType string `json:"report_type"`
	Reason     string `json:"reason"`
}
