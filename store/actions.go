package store

import (
	"time"

	"opsecho/models"
)

// Action is a closed set of state updates. Every variant is declared in this file.
type Action interface {
	// Type is the wire tag of the action, e.g. "TOGGLE_LAYER"
	Type() string
	isAction()
}

type (
	SetIncidents   struct{ Incidents []models.Incident }
	AddIncident    struct{ Incident models.Incident }
	UpdateIncident struct{ Incident models.Incident }
	// TransitionIncident moves an incident along its lifecycle.
	// Reducing a move the lifecycle forbids, or an unknown id, is a no-op.
	TransitionIncident struct {
		ID     string                `json:"id"`
		Status models.IncidentStatus `json:"status"`
		At     time.Time             `json:"at"`
	}
	SetHumans              struct{ Humans []models.Human }
	UpdateHuman            struct{ Human models.Human }
	SetMachines            struct{ Machines []models.Machine }
	UpdateMachine          struct{ Machine models.Machine }
	SetTelemetryChannels   struct{ Channels []models.TelemetryChannel }
	UpdateTelemetryChannel struct {
		Channel models.TelemetryChannel
	}
	SetChatThreads  struct{ Threads []models.ChatThread }
	AddChatThread   struct{ Thread models.ChatThread }
	SetChatMessages struct{ Messages []models.ChatMessage }
	AddChatMessage  struct{ Message models.ChatMessage }
	SetInteractions struct {
		Interactions []models.HumanMachineInteraction
	}
	AddInteraction struct {
		Interaction models.HumanMachineInteraction
	}
	SelectIncidents   struct{ IDs []string }
	SelectHumans      struct{ IDs []string }
	SelectMachines    struct{ IDs []string }
	SetMapViewport    struct{ Viewport models.MapViewport }
	ToggleLayer       struct{ Layer string }
	SetSelectedLayers struct{ Layers []string }
	ToggleRightPanel  struct{}
	SetRightPanel     struct{ Open bool }
	ToggleLeftRail    struct{}
	SetSelectedTab    struct{ Tab string }
	SetLiveMode       struct{ Live bool }
	SetStatistics     struct{ Statistics models.PanelStatistics }
	SetLoading        struct {
		Section string
		Loading bool
	}
	SetError struct {
		Section string
		Error   string
	}
	ClearErrors   struct{}
	SetLastUpdate struct{ At time.Time }

	// Unknown carries a tag this build does not understand; reducing it is a no-op
	Unknown struct{ Tag string }
)

// SetFilters merges the non-nil fields into the current filters.
// A nil slice leaves the field unchanged, an empty slice clears it.
type SetFilters struct {
	TimeRange    *models.TimeRange `json:"timeRange,omitempty"`
	Severity     []models.Severity `json:"severity,omitempty"`
	Status       []string          `json:"status,omitempty"`
	Sites        []string          `json:"sites,omitempty"`
	Units        []string          `json:"units,omitempty"`
	MachineTypes []string          `json:"machineTypes,omitempty"`
	Roles        []string          `json:"roles,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
}

func (SetIncidents) Type() string           { return "SET_INCIDENTS" }
func (AddIncident) Type() string            { return "ADD_INCIDENT" }
func (UpdateIncident) Type() string         { return "UPDATE_INCIDENT" }
func (TransitionIncident) Type() string     { return "TRANSITION_INCIDENT" }
func (SetHumans) Type() string              { return "SET_HUMANS" }
func (UpdateHuman) Type() string            { return "UPDATE_HUMAN" }
func (SetMachines) Type() string            { return "SET_MACHINES" }
func (UpdateMachine) Type() string          { return "UPDATE_MACHINE" }
func (SetTelemetryChannels) Type() string   { return "SET_TELEMETRY_CHANNELS" }
func (UpdateTelemetryChannel) Type() string { return "UPDATE_TELEMETRY_CHANNEL" }
func (SetChatThreads) Type() string         { return "SET_CHAT_THREADS" }
func (AddChatThread) Type() string          { return "ADD_CHAT_THREAD" }
func (SetChatMessages) Type() string        { return "SET_CHAT_MESSAGES" }
func (AddChatMessage) Type() string         { return "ADD_CHAT_MESSAGE" }
func (SetInteractions) Type() string        { return "SET_HMI_INTERACTIONS" }
func (AddInteraction) Type() string         { return "ADD_HMI_INTERACTION" }
func (SelectIncidents) Type() string        { return "SELECT_INCIDENTS" }
func (SelectHumans) Type() string           { return "SELECT_HUMANS" }
func (SelectMachines) Type() string         { return "SELECT_MACHINES" }
func (SetFilters) Type() string             { return "SET_FILTERS" }
func (SetMapViewport) Type() string         { return "SET_MAP_VIEWPORT" }
func (ToggleLayer) Type() string            { return "TOGGLE_LAYER" }
func (SetSelectedLayers) Type() string      { return "SET_SELECTED_LAYERS" }
func (ToggleRightPanel) Type() string       { return "TOGGLE_RIGHT_PANEL" }
func (SetRightPanel) Type() string          { return "SET_RIGHT_PANEL" }
func (ToggleLeftRail) Type() string         { return "TOGGLE_LEFT_RAIL" }
func (SetSelectedTab) Type() string         { return "SET_SELECTED_TAB" }
func (SetLiveMode) Type() string            { return "SET_LIVE_MODE" }
func (SetStatistics) Type() string          { return "SET_STATISTICS" }
func (SetLoading) Type() string             { return "SET_LOADING" }
func (SetError) Type() string               { return "SET_ERROR" }
func (ClearErrors) Type() string            { return "CLEAR_ERRORS" }
func (SetLastUpdate) Type() string          { return "SET_LAST_UPDATE" }
func (u Unknown) Type() string              { return u.Tag }

func (SetIncidents) isAction()           {}
func (AddIncident) isAction()            {}
func (UpdateIncident) isAction()         {}
func (TransitionIncident) isAction()     {}
func (SetHumans) isAction()              {}
func (UpdateHuman) isAction()            {}
func (SetMachines) isAction()            {}
func (UpdateMachine) isAction()          {}
func (SetTelemetryChannels) isAction()   {}
func (UpdateTelemetryChannel) isAction() {}
func (SetChatThreads) isAction()         {}
func (AddChatThread) isAction()          {}
func (SetChatMessages) isAction()        {}
func (AddChatMessage) isAction()         {}
func (SetInteractions) isAction()        {}
func (AddInteraction) isAction()         {}
func (SelectIncidents) isAction()        {}
func (SelectHumans) isAction()           {}
func (SelectMachines) isAction()         {}
func (SetFilters) isAction()             {}
func (SetMapViewport) isAction()         {}
func (ToggleLayer) isAction()            {}
func (SetSelectedLayers) isAction()      {}
func (ToggleRightPanel) isAction()       {}
func (SetRightPanel) isAction()          {}
func (ToggleLeftRail) isAction()         {}
func (SetSelectedTab) isAction()         {}
func (SetLiveMode) isAction()            {}
func (SetStatistics) isAction()          {}
func (SetLoading) isAction()             {}
func (SetError) isAction()               {}
func (ClearErrors) isAction()            {}
func (SetLastUpdate) isAction()          {}
func (Unknown) isAction()                {}
