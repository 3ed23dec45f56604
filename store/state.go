package store

import (
	"time"

	"opsecho/models"
)

// Section names shared by loading flags and errors
const (
	SectionIncidents  = "incidents"
	SectionHumans     = "humans"
	SectionMachines   = "machines"
	SectionTelemetry  = "telemetry"
	SectionChat       = "chat"
	SectionConnection = "connection"
)

// Tabs of the context panel
const (
	TabDetails   = "details"
	TabEntities  = "entities"
	TabTelemetry = "telemetry"
	TabActions   = "actions"
	TabDocuments = "documents"
)

// Map layers shown by default
const (
	LayerHumans    = "humans"
	LayerMachines  = "machines"
	LayerIncidents = "incidents"
)

// Loading flags per data section
type Loading struct {
	Incidents bool `json:"incidents"`
	Humans    bool `json:"humans"`
	Machines  bool `json:"machines"`
	Telemetry bool `json:"telemetry"`
	Chat      bool `json:"chat"`
}

// Errors per data section; empty means no error
type Errors struct {
	Incidents  string `json:"incidents,omitempty"`
	Humans     string `json:"humans,omitempty"`
	Machines   string `json:"machines,omitempty"`
	Telemetry  string `json:"telemetry,omitempty"`
	Chat       string `json:"chat,omitempty"`
	Connection string `json:"connection,omitempty"`
}

// State is one immutable snapshot of the dashboard.
// Slices inside a State are shared between snapshots and must not be mutated.
type State struct {
	Incidents                []models.Incident                `json:"incidents"`
	Humans                   []models.Human                   `json:"humans"`
	Machines                 []models.Machine                 `json:"machines"`
	TelemetryChannels        []models.TelemetryChannel        `json:"telemetryChannels"`
	ChatThreads              []models.ChatThread              `json:"chatThreads"`
	ChatMessages             []models.ChatMessage             `json:"chatMessages"`
	HumanMachineInteractions []models.HumanMachineInteraction `json:"humanMachineInteractions"`

	SelectedIncidentIDs []string           `json:"selectedIncidentIds"`
	SelectedHumanIDs    []string           `json:"selectedHumanIds"`
	SelectedMachineIDs  []string           `json:"selectedMachineIds"`
	Filters             models.FilterState `json:"filters"`
	MapViewport         models.MapViewport `json:"mapViewport"`
	SelectedLayers      []string           `json:"selectedLayers"`

	IsRightPanelOpen  bool   `json:"isRightPanelOpen"`
	LeftRailCollapsed bool   `json:"leftRailCollapsed"`
	SelectedTab       string `json:"selectedTab"`

	LiveMode   bool                   `json:"liveMode"`
	LastUpdate *time.Time             `json:"lastUpdate"`
	Statistics models.PanelStatistics `json:"statistics"`

	Loading Loading `json:"loading"`
	Errors  Errors  `json:"errors"`
}

// InitialState returns the state the dashboard starts from
func InitialState(now time.Time) State {
	return State{
		Incidents:                []models.Incident{},
		Humans:                   []models.Human{},
		Machines:                 []models.Machine{},
		TelemetryChannels:        []models.TelemetryChannel{},
		ChatThreads:              []models.ChatThread{},
		ChatMessages:             []models.ChatMessage{},
		HumanMachineInteractions: []models.HumanMachineInteraction{},
		SelectedIncidentIDs:      []string{},
		SelectedHumanIDs:         []string{},
		SelectedMachineIDs:       []string{},
		Filters: models.FilterState{
			TimeRange: models.TimeRange{
				Start:  now.Add(-24 * time.Hour),
				End:    now,
				Preset: "24h",
			},
			Severity: append([]models.Severity(nil), models.Severities...),
			Status: []string{
				string(models.StatusOpen),
				string(models.StatusAcknowledged),
				string(models.StatusInvestigating),
			},
			Sites:        []string{},
			Units:        []string{},
			MachineTypes: []string{},
			Roles:        []string{},
			Tags:         []string{},
		},
		MapViewport: models.MapViewport{
			Center: models.Location{Lat: 25.2048, Lng: 55.2708},
			Zoom:   10,
		},
		SelectedLayers: []string{LayerHumans, LayerMachines, LayerIncidents},
		SelectedTab:    TabDetails,
		LiveMode:       true,
	}
}
