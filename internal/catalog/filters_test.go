package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/triage-service/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default("55e7ddcd0a0a3d28")

	assert.Equal(t, FilterUnassigned, c.Unassigned.Name)
	assert.Equal(t, domain.PriorityUnassigned, c.Unassigned.Priority)
	assert.Equal(t, FilterClientUpdated, c.ClientUpdated.Name)
	assert.Equal(t, domain.PriorityClientUpdated, c.ClientUpdated.Priority)
	assert.Equal(t, FilterStale, c.Stale.Name)
	assert.Equal(t, domain.PriorityStale, c.Stale.Priority)
	assert.Equal(t, FilterAll, c.All.Name)

	for _, f := range []Filter{c.Unassigned, c.ClientUpdated, c.Stale, c.All} {
		assert.Contains(t, f.Query, "assignment_group=55e7ddcd0a0a3d28", "filter %s", f.Name)
	}
}

func TestRankedOrderAscendingByPriority(t *testing.T) {
	ranked := Default("g").Ranked()
	require.Len(t, ranked, 3)

	for i := 1; i < len(ranked); i++ {
		assert.True(t, ranked[i-1].Priority < ranked[i].Priority,
			"ranked filters must ascend in priority value")
	}
}
