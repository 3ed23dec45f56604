package mockdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsecho/models"
	"opsecho/views"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func TestGenerate_IncidentsReferenceGeneratedMachines(t *testing.T) {
	snap := New(42).Generate(now)
	require.Len(t, snap.Incidents, IncidentCount)

	machines := make(map[string]models.Machine, len(snap.Machines))
	for _, m := range snap.Machines {
		machines[m.ID] = m
	}
	humans := make(map[string]bool, len(snap.Humans))
	for _, h := range snap.Humans {
		humans[h.ID] = true
	}

	for _, incident := range snap.Incidents {
		require.Len(t, incident.InvolvedMachines, 1, incident.ID)
		machine, ok := machines[incident.InvolvedMachines[0]]
		require.True(t, ok, "incident %s references unknown machine", incident.ID)
		assert.Equal(t, machine.Location, incident.Location)

		assert.GreaterOrEqual(t, len(incident.InvolvedHumans), 1)
		assert.LessOrEqual(t, len(incident.InvolvedHumans), 3)
		for _, h := range incident.InvolvedHumans {
			assert.True(t, humans[h], "incident %s references unknown human %s", incident.ID, h)
		}
	}
}

func TestGenerate_SLAFollowsSeverity(t *testing.T) {
	snap := New(7).Generate(now)
	for _, incident := range snap.Incidents {
		ack, resolve := time.Hour, 24*time.Hour
		if incident.Severity == models.SeverityCritical {
			ack, resolve = 15*time.Minute, 4*time.Hour
		}
		assert.Equal(t, incident.CreatedAt.Add(ack), incident.SLA.AcknowledgeBy, incident.ID)
		assert.Equal(t, incident.CreatedAt.Add(resolve), incident.SLA.ResolveBy, incident.ID)

		wantOverdue := incident.Status.IsActive() && now.After(incident.SLA.ResolveBy)
		assert.Equal(t, wantOverdue, incident.SLA.IsOverdue, incident.ID)
	}
}

func TestGenerate_PressureChannelConstants(t *testing.T) {
	snap := New(3).Generate(now)
	require.Len(t, snap.TelemetryChannels, len(snap.Machines)*5)

	pressure := views.ChannelsByType(snap.TelemetryChannels, models.ChannelPressure)
	require.Len(t, pressure, len(snap.Machines))
	for _, c := range pressure {
		assert.Equal(t, 100.0, c.MaxValue)
		require.NotNil(t, c.WarningThreshold)
		require.NotNil(t, c.CriticalThreshold)
		assert.Equal(t, 80.0, *c.WarningThreshold)
		assert.Equal(t, 95.0, *c.CriticalThreshold)
		assert.Equal(t, "bar", c.Unit)
		assert.GreaterOrEqual(t, c.CurrentValue, 0.0)
		assert.Less(t, c.CurrentValue, 100.0)
	}
}

func TestGenerate_Shape(t *testing.T) {
	snap := New(11).Generate(now)

	assert.Len(t, snap.Humans, 16)
	assert.Len(t, snap.ChatThreads, ThreadCount)
	assert.Len(t, snap.HumanMachineInteractions, InteractionCount)
	assert.GreaterOrEqual(t, len(snap.Machines), 8*len(Sites))
	assert.LessOrEqual(t, len(snap.Machines), 12*len(Sites))

	for i, h := range snap.Humans {
		site := Sites[i%len(Sites)]
		assert.Equal(t, site.Name, h.Shift.Site)
		assert.InDelta(t, site.Location.Lat, h.Location.Lat, 5/kmPerDegree)
		assert.InDelta(t, site.Location.Lng, h.Location.Lng, 5/kmPerDegree)
	}
	for _, m := range snap.Machines {
		assert.GreaterOrEqual(t, m.HealthScore, 60)
		assert.LessOrEqual(t, m.HealthScore, 100)
	}
	for i, thread := range snap.ChatThreads {
		assert.Len(t, thread.Participants, 3)
		if i < LinkedThreads {
			assert.NotEmpty(t, thread.IncidentID)
		} else {
			assert.Empty(t, thread.IncidentID)
		}
	}
	for _, hmi := range snap.HumanMachineInteractions {
		assert.GreaterOrEqual(t, hmi.Duration, 0)
		assert.Less(t, hmi.Duration, 3600)
	}
	assert.Len(t, snap.ChatMessages, LinkedThreads*len(script))
	assert.Equal(t, views.ComputeStatistics(*snap, now), snap.Statistics)
}

func TestGenerate_DeterministicForSeed(t *testing.T) {
	a := New(99).Generate(now)
	b := New(99).Generate(now)
	assert.Equal(t, a, b)

	c := New(100).Generate(now)
	assert.NotEqual(t, a.Incidents, c.Incidents)
}

func TestSource_Load(t *testing.T) {
	src := NewSource(5, func() time.Time { return now })
	assert.Equal(t, "mock", src.Name())

	snap, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Incidents, IncidentCount)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
