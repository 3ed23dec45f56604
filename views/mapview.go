package views

import (
	"slices"
	"time"

	"opsecho/models"
	"opsecho/store"
)

// Time range presets offered by the header bar
const (
	PresetLive = "live"
	Preset15m  = "15m"
	Preset1h   = "1h"
	Preset4h   = "4h"
	Preset24h  = "24h"
)

// MapEntities are the markers drawn for the selected layers
type MapEntities struct {
	Humans    []models.Human    `json:"humans"`
	Machines  []models.Machine  `json:"machines"`
	Incidents []models.Incident `json:"incidents"`
}

// VisibleEntities projects the collections whose layer is selected.
// Incident overdue flags are recomputed against now.
func VisibleEntities(state store.State, now time.Time) MapEntities {
	e := MapEntities{
		Humans:    []models.Human{},
		Machines:  []models.Machine{},
		Incidents: []models.Incident{},
	}
	if slices.Contains(state.SelectedLayers, store.LayerHumans) {
		e.Humans = state.Humans
	}
	if slices.Contains(state.SelectedLayers, store.LayerMachines) {
		e.Machines = state.Machines
	}
	if slices.Contains(state.SelectedLayers, store.LayerIncidents) {
		e.Incidents = models.RefreshIncidents(state.Incidents, now)
	}
	return e
}

// TimeRangeForPreset returns the window ending at now for a header preset.
// Unknown presets fall back to the last 24 hours.
func TimeRangeForPreset(preset string, now time.Time) models.TimeRange {
	var span time.Duration
	switch preset {
	case PresetLive, Preset15m:
		span = 15 * time.Minute
	case Preset1h:
		span = time.Hour
	case Preset4h:
		span = 4 * time.Hour
	default:
		preset = Preset24h
		span = 24 * time.Hour
	}
	return models.TimeRange{Start: now.Add(-span), End: now, Preset: preset}
}
