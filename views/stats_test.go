package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"opsecho/models"
	"opsecho/store"
)

func TestComputeKPIs(t *testing.T) {
	st := store.InitialState(now)
	st.Incidents = []models.Incident{
		{ID: "1", Severity: models.SeverityCritical, Status: models.StatusOpen,
			CreatedAt: now.Add(-5 * time.Hour), UpdatedAt: now.Add(-5 * time.Hour),
			SLA: models.SLAFor(models.SeverityCritical, now.Add(-5*time.Hour))},
		{ID: "2", Severity: models.SeverityHigh, Status: models.StatusAcknowledged,
			CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-40 * time.Minute),
			SLA: models.SLAFor(models.SeverityHigh, now.Add(-time.Hour))},
		{ID: "3", Severity: models.SeverityCritical, Status: models.StatusResolved,
			CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now.Add(-time.Hour),
			SLA: models.SLAFor(models.SeverityCritical, now.Add(-3*time.Hour))},
	}
	st.Humans = []models.Human{{Status: models.HumanEmergency}, {Status: models.HumanActive}}
	st.Machines = []models.Machine{{Status: models.MachineFault}, {Status: models.MachineOffline}, {Status: models.MachineOperational}}

	k := ComputeKPIs(st, now)
	assert.Equal(t, 2, k.ActiveIncidents)
	assert.Equal(t, 2, k.CriticalCount)
	assert.Equal(t, 1, k.OverdueIncidents)
	assert.Equal(t, 1, k.PeopleAtRisk)
	assert.Equal(t, 2, k.MachinesDown)
	assert.Equal(t, 20.0, k.MeanTimeToAcknowledge)
	assert.Equal(t, 120.0, k.MeanTimeToResolve)

	assert.False(t, st.Incidents[0].SLA.IsOverdue, "state is not modified")
}

func TestComputeStatistics(t *testing.T) {
	snap := models.Snapshot{
		Humans: []models.Human{
			{Status: models.HumanActive, Shift: models.Shift{Site: "Ghawar Field"}},
			{Status: models.HumanActive, Shift: models.Shift{Site: "Manifa Field"}},
			{Status: models.HumanOffline, Shift: models.Shift{Site: "Shaybah Field"}},
		},
		Machines: []models.Machine{{Status: models.MachineOperational}, {Status: models.MachineFault}},
		Incidents: []models.Incident{
			{DetectedBy: "human"}, {DetectedBy: "sensor"}, {DetectedBy: "ai"}, {DetectedBy: "sensor"},
		},
		TelemetryChannels: []models.TelemetryChannel{
			{IsAnomalous: true, MaxValue: 100, CurrentValue: 50, LastUpdate: now},
			{MaxValue: 100, CurrentValue: 150, LastUpdate: now},
			{MaxValue: 100, CurrentValue: 10, LastUpdate: now.Add(-time.Hour)},
			{MaxValue: 100, CurrentValue: 10, LastUpdate: now},
		},
		ChatThreads: []models.ChatThread{
			{IsActive: true, Participants: []string{"a", "b"}, LastActivity: now.Add(-time.Hour), MessageCount: 10},
			{IsActive: true, Participants: []string{"b", "c"}, LastActivity: now.Add(-48 * time.Hour), MessageCount: 99},
			{IsActive: false, Participants: []string{"d"}, LastActivity: now, MessageCount: 5},
		},
		HumanMachineInteractions: []models.HumanMachineInteraction{
			{Result: models.ResultSuccess, Timestamp: now.Add(-time.Hour)},
			{Result: models.ResultFailure, Timestamp: now.Add(-30 * time.Hour)},
		},
	}

	stats := ComputeStatistics(snap, now)

	assert.Equal(t, models.ChatFeedStats{ActiveTeams: 2, ActiveParticipants: 3, MessagesLast24h: 10}, stats.ChatFeed)
	assert.Equal(t, models.TelemetryStats{SitesActive: 2, MachinesActive: 1, AnomalyPercentage: 25, DataQuality: 50}, stats.Telemetry)
	assert.Equal(t, models.HumanMachineSplit{Human: 25, Machine: 75}, stats.HumanMachineInteractions.FirstResponderTypePercentage)
	assert.Equal(t, models.HumanMachineSplit{Human: 50, Machine: 50}, stats.HumanMachineInteractions.SuccessRates)
	assert.Equal(t, 1, stats.HumanMachineInteractions.InteractionsLast24h)
}

func TestComputeStatistics_EmptySnapshot(t *testing.T) {
	assert.Equal(t, models.PanelStatistics{}, ComputeStatistics(models.Snapshot{}, now))
}
