package views

import (
	"math"
	"time"

	"opsecho/models"
	"opsecho/store"
)

// freshness is how recent a channel update must be to count towards data quality
const freshness = 15 * time.Minute

// KPIs are the headline counters of the dashboard header
type KPIs struct {
	ActiveIncidents  int `json:"activeIncidents"`
	CriticalCount    int `json:"criticalCount"`
	OverdueIncidents int `json:"overdueIncidents"`
	PeopleAtRisk     int `json:"peopleAtRisk"`
	MachinesDown     int `json:"machinesDown"`
	// Mean minutes from creation to the last update of acknowledged or resolved incidents
	MeanTimeToAcknowledge float64 `json:"meanTimeToAcknowledge"`
	MeanTimeToResolve     float64 `json:"meanTimeToResolve"`
}

// ComputeKPIs derives the header counters from the collections
func ComputeKPIs(state store.State, now time.Time) KPIs {
	var k KPIs
	var ackTotal, resolveTotal time.Duration
	var ackCount, resolveCount int

	for _, incident := range state.Incidents {
		if incident.Status.IsActive() {
			k.ActiveIncidents++
		}
		if incident.Severity == models.SeverityCritical {
			k.CriticalCount++
		}
		incident.RefreshSLA(now)
		if incident.SLA.IsOverdue {
			k.OverdueIncidents++
		}

		elapsed := incident.UpdatedAt.Sub(incident.CreatedAt)
		if elapsed < 0 {
			continue
		}
		switch incident.Status {
		case models.StatusAcknowledged, models.StatusInvestigating:
			ackTotal += elapsed
			ackCount++
		case models.StatusResolved, models.StatusClosed:
			resolveTotal += elapsed
			resolveCount++
		}
	}

	for _, h := range state.Humans {
		if h.Status == models.HumanEmergency {
			k.PeopleAtRisk++
		}
	}
	for _, m := range state.Machines {
		if m.Status == models.MachineFault || m.Status == models.MachineOffline {
			k.MachinesDown++
		}
	}

	k.MeanTimeToAcknowledge = meanMinutes(ackTotal, ackCount)
	k.MeanTimeToResolve = meanMinutes(resolveTotal, resolveCount)
	return k
}

func meanMinutes(total time.Duration, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(total.Minutes()/float64(n)*10) / 10
}

func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(d)))
}

// ComputeStatistics derives the panel statistics from a snapshot's collections
func ComputeStatistics(snap models.Snapshot, now time.Time) models.PanelStatistics {
	dayAgo := now.Add(-24 * time.Hour)
	var stats models.PanelStatistics

	participants := make(map[string]struct{})
	for _, thread := range snap.ChatThreads {
		if !thread.IsActive {
			continue
		}
		stats.ChatFeed.ActiveTeams++
		for _, p := range thread.Participants {
			participants[p] = struct{}{}
		}
		if !thread.LastActivity.Before(dayAgo) {
			stats.ChatFeed.MessagesLast24h += thread.MessageCount
		}
	}
	stats.ChatFeed.ActiveParticipants = len(participants)

	sites := make(map[string]struct{})
	for _, h := range snap.Humans {
		if h.Status == models.HumanActive && h.Shift.Site != "" {
			sites[h.Shift.Site] = struct{}{}
		}
	}
	stats.Telemetry.SitesActive = len(sites)

	operational := 0
	for _, m := range snap.Machines {
		if m.Status == models.MachineOperational {
			operational++
		}
	}
	stats.Telemetry.MachinesActive = operational

	anomalous, fresh := 0, 0
	for _, c := range snap.TelemetryChannels {
		if c.IsAnomalous {
			anomalous++
		}
		inRange := c.CurrentValue >= c.MinValue && c.CurrentValue <= c.MaxValue
		if inRange && now.Sub(c.LastUpdate) <= freshness {
			fresh++
		}
	}
	stats.Telemetry.AnomalyPercentage = percent(anomalous, len(snap.TelemetryChannels))
	stats.Telemetry.DataQuality = percent(fresh, len(snap.TelemetryChannels))

	humanDetected, machineDetected := 0, 0
	for _, incident := range snap.Incidents {
		switch incident.DetectedBy {
		case "human":
			humanDetected++
		case "sensor", "ai":
			machineDetected++
		}
	}
	detected := humanDetected + machineDetected
	stats.HumanMachineInteractions.FirstResponderTypePercentage = models.HumanMachineSplit{
		Human:   percent(humanDetected, detected),
		Machine: percent(machineDetected, detected),
	}

	succeeded, recent := 0, 0
	for _, interaction := range snap.HumanMachineInteractions {
		if interaction.Result == models.ResultSuccess {
			succeeded++
		}
		if !interaction.Timestamp.Before(dayAgo) {
			recent++
		}
	}
	stats.HumanMachineInteractions.SuccessRates = models.HumanMachineSplit{
		Human:   percent(succeeded, len(snap.HumanMachineInteractions)),
		Machine: percent(operational, len(snap.Machines)),
	}
	stats.HumanMachineInteractions.InteractionsLast24h = recent

	return stats
}
