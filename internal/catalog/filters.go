package catalog

import (
	"fmt"

	"github.com/spec-kit/triage-service/internal/domain"
)

// Filter names recognized by the catalog.
const (
	FilterUnassigned    = "unassigned"
	FilterClientUpdated = "client_updated"
	FilterStale         = "stale"
	FilterAll           = "all"
)

// Filter binds a name to an opaque upstream query predicate and, for the
// ranked filters, the priority class its matches are tagged with. Queries
// are passed through to the upstream verbatim; the catalog never interprets
// them.
type Filter struct {
	Name     string
	Query    string
	Priority domain.Priority
}

// Catalog is the fixed set of filters the reports are built from. All has
// no priority class; it only feeds the in-progress view.
type Catalog struct {
	Unassigned    Filter
	ClientUpdated Filter
	Stale         Filter
	All           Filter
}

// Ranked returns the priority-bearing filters in ascending priority order.
func (c Catalog) Ranked() []Filter {
	return []Filter{c.Unassigned, c.ClientUpdated, c.Stale}
}

// Default builds the production catalog scoped to one assignment group.
func Default(assignmentGroup string) Catalog {
	return Catalog{
		Unassigned: Filter{
			Name:     FilterUnassigned,
			Query:    fmt.Sprintf("active=true^assignment_group=%s^assigned_toISEMPTY", assignmentGroup),
			Priority: domain.PriorityUnassigned,
		},
		ClientUpdated: Filter{
			Name:     FilterClientUpdated,
			Query:    fmt.Sprintf("assignment_group=%s^incident_state!=6^incident_state!=7^sys_updated_bySAMEAScaller_id.user_name", assignmentGroup),
			Priority: domain.PriorityClientUpdated,
		},
		Stale: Filter{
			Name:     FilterStale,
			Query:    fmt.Sprintf("assignment_group=%s^incident_state!=6^incident_state!=7^sys_updated_on<javascript:gs.daysAgo(3)", assignmentGroup),
			Priority: domain.PriorityStale,
		},
		All: Filter{
			Name:  FilterAll,
			Query: fmt.Sprintf("assignment_group=%s^incident_state!=7", assignmentGroup),
		},
	}
}
