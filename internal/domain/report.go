package domain

import (
	"strconv"
	"time"
)

// Priority classifies how urgently a ticket needs staff attention.
// Lower numeric value means more urgent; reports sort ascending so the
// most urgent class comes first.
type Priority int

const (
	PriorityUnassigned    Priority = 0
	PriorityClientUpdated Priority = 1
	PriorityStale         Priority = 2
)

// String renders the numeric wire form used in serialized reports.
func (p Priority) String() string {
	return strconv.Itoa(int(p))
}

// MoreUrgentThan reports whether p outranks other.
func (p Priority) MoreUrgentThan(other Priority) bool {
	return p < other
}

// Ticket is the lightweight summary carried through reports. Number is the
// stable upstream identifier (e.g. INC0012345); Title is display-only.
type Ticket struct {
	Number string
	Title  string
}

// Display renders the "NUMBER Title" form shown on the dashboard and stored
// in serialized reports.
func (t Ticket) Display() string {
	if t.Title == "" {
		return t.Number
	}
	return t.Number + " " + t.Title
}

// RankedTicket pairs a ticket with its resolved priority class. A ticket
// appears in a report with exactly one priority even when it matched
// filters for several classes.
type RankedTicket struct {
	Ticket   Ticket
	Priority Priority
}

// PriorityReport is the deduplicated, priority-sorted result of one
// computation cycle. It is replaced wholesale each cycle, never patched.
type PriorityReport struct {
	Tickets []RankedTicket
}

// JournalTypeComments selects client-visible comment entries; work notes
// are internal and never influence response classification.
const JournalTypeComments = "comments"

// JournalEntry is one conversational record on a ticket, immutable once
// fetched.
type JournalEntry struct {
	SysID     string
	Element   string
	CreatedAt time.Time
	CreatedBy string
}
