package views

import (
	"fmt"
	"sort"
	"time"

	"opsecho/models"
	"opsecho/store"
)

// EventType classifies a timeline marker
type EventType string

const (
	EventIncident    EventType = "incident"
	EventChat        EventType = "chat"
	EventMaintenance EventType = "maintenance"
	EventAnomaly     EventType = "anomaly"
)

// MaintenanceWindow is the assumed length of a maintenance interval
const MaintenanceWindow = 4 * time.Hour

// TimelineEvent is one marker on the playback timeline.
// Position is the percentage of the window elapsed at Timestamp.
type TimelineEvent struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	Timestamp  time.Time       `json:"timestamp"`
	Title      string          `json:"title"`
	Severity   models.Severity `json:"severity,omitempty"`
	Count      int             `json:"count,omitempty"`
	DurationMs int64           `json:"durationMs,omitempty"`
	Position   float64         `json:"position"`
}

// BuildTimeline merges incidents, chat bursts, maintenance windows and anomaly markers
// that fall inside window, ordered by timestamp then id.
func BuildTimeline(state store.State, window models.TimeRange) []TimelineEvent {
	events := []TimelineEvent{}
	span := window.End.Sub(window.Start)
	if span <= 0 {
		return events
	}

	add := func(ev TimelineEvent) {
		ev.Position = float64(ev.Timestamp.Sub(window.Start)) / float64(span) * 100
		if ev.Position < 0 || ev.Position > 100 {
			return
		}
		events = append(events, ev)
	}

	for _, incident := range state.Incidents {
		add(TimelineEvent{
			ID:        "incident-" + incident.ID,
			Type:      EventIncident,
			Timestamp: incident.CreatedAt,
			Title:     incident.Title,
			Severity:  incident.Severity,
		})
	}

	for _, thread := range state.ChatThreads {
		add(TimelineEvent{
			ID:        "chat-" + thread.ID,
			Type:      EventChat,
			Timestamp: thread.LastActivity,
			Title:     thread.Title,
			Count:     thread.MessageCount,
		})
	}

	for _, machine := range state.Machines {
		if machine.LastMaintenance.IsZero() {
			continue
		}
		add(TimelineEvent{
			ID:         "maintenance-" + machine.ID,
			Type:       EventMaintenance,
			Timestamp:  machine.LastMaintenance,
			Title:      "Scheduled maintenance - " + machine.Name,
			DurationMs: MaintenanceWindow.Milliseconds(),
		})
	}

	for _, channel := range state.TelemetryChannels {
		if !channel.IsAnomalous {
			continue
		}
		add(TimelineEvent{
			ID:        "anomaly-" + channel.ID,
			Type:      EventAnomaly,
			Timestamp: channel.LastUpdate,
			Title:     fmt.Sprintf("%s anomaly on %s", channel.Name, MachineName(state.Machines, channel.MachineID)),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].ID < events[j].ID
	})
	return events
}
