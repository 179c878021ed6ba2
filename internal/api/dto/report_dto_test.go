package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/pkg/util"
)

func TestPriorityReportWireShape(t *testing.T) {
	report := &domain.PriorityReport{Tickets: []domain.RankedTicket{
		{Ticket: domain.Ticket{Number: "INC0001", Title: "Laptop dead"}, Priority: domain.PriorityUnassigned},
		{Ticket: domain.Ticket{Number: "INC0002", Title: "Email bounce"}, Priority: domain.PriorityClientUpdated},
	}}

	payload, err := json.Marshal(NewPriorityReportResponse(report))
	require.NoError(t, err)
	assert.JSONEq(t, `{"tickets": [
		{"ticket_name": "INC0001 Laptop dead", "priority": "0"},
		{"ticket_name": "INC0002 Email bounce", "priority": "1"}
	]}`, string(payload))
}

func TestPriorityReportEmpty(t *testing.T) {
	payload, err := json.Marshal(NewPriorityReportResponse(&domain.PriorityReport{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"tickets": []}`, string(payload))
}

func TestToDomainMalformedPriority(t *testing.T) {
	response := PriorityReportResponse{Tickets: []RankedTicketResponse{
		{TicketName: "INC0001 Laptop dead", Priority: "urgent"},
	}}

	_, err := response.ToDomain()
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeDataIntegrity))
}

func TestInProgressWireShape(t *testing.T) {
	payload, err := json.Marshal(NewInProgressResponse([]domain.Ticket{
		{Number: "INC0003", Title: "Wifi down"},
		{Number: "INC0004"},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"tickets": ["INC0003 Wifi down", "INC0004"]}`, string(payload))
}
