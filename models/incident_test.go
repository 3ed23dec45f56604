package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRank_TotalOrder(t *testing.T) {
	for i := 1; i < len(Severities); i++ {
		assert.Less(t, Severities[i-1].Rank(), Severities[i].Rank())
	}
	assert.Equal(t, 0, SeverityCritical.Rank())
	assert.Equal(t, len(Severities), Severity("bogus").Rank())
}

func TestSLAFor_DependsOnSeverity(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	crit := SLAFor(SeverityCritical, created)
	assert.Equal(t, created.Add(15*time.Minute), crit.AcknowledgeBy)
	assert.Equal(t, created.Add(4*time.Hour), crit.ResolveBy)

	for _, s := range []Severity{SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo} {
		sla := SLAFor(s, created)
		assert.Equal(t, created.Add(60*time.Minute), sla.AcknowledgeBy, s)
		assert.Equal(t, created.Add(24*time.Hour), sla.ResolveBy, s)
	}
}

func TestRefreshSLA_DerivesOverdue(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	inc := Incident{Severity: SeverityCritical, Status: StatusOpen, CreatedAt: created, SLA: SLAFor(SeverityCritical, created)}

	inc.RefreshSLA(created.Add(3 * time.Hour))
	assert.False(t, inc.SLA.IsOverdue)

	inc.RefreshSLA(created.Add(5 * time.Hour))
	assert.True(t, inc.SLA.IsOverdue)

	inc.Status = StatusResolved
	inc.RefreshSLA(created.Add(5 * time.Hour))
	assert.False(t, inc.SLA.IsOverdue, "resolved incidents are never overdue")
}

func TestTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	inc := Incident{Status: StatusOpen}

	require.NoError(t, inc.Transition(StatusAcknowledged, now))
	assert.Equal(t, StatusAcknowledged, inc.Status)
	assert.Equal(t, now, inc.UpdatedAt)

	err := inc.Transition(StatusOpen, now)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	require.NoError(t, inc.Transition(StatusClosed, now))
	assert.False(t, StatusClosed.CanTransitionTo(StatusResolved))
	assert.False(t, StatusOpen.CanTransitionTo("archived"))
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-5))
	assert.Equal(t, 100, ClampScore(140))
	assert.Equal(t, 42, ClampScore(42))
}
