package models

import (
	"time"
)

// TimeRange is the dashboard's active time window
type TimeRange struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Preset string    `json:"preset,omitempty"`
}

// FilterState holds the global dashboard filters
type FilterState struct {
	TimeRange    TimeRange  `json:"timeRange"`
	Severity     []Severity `json:"severity"`
	Status       []string   `json:"status"`
	Sites        []string   `json:"sites"`
	Units        []string   `json:"units"`
	MachineTypes []string   `json:"machineTypes"`
	Roles        []string   `json:"roles"`
	Tags         []string   `json:"tags"`
}

// Bounds is a lat/lng bounding box
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// MapViewport is the visible map area
type MapViewport struct {
	Center Location `json:"center"`
	Zoom   int      `json:"zoom"`
	Bounds *Bounds  `json:"bounds,omitempty"`
}

// NotificationPreferences toggles notification categories
type NotificationPreferences struct {
	Incidents       bool `json:"incidents"`
	TelemetryAlerts bool `json:"telemetryAlerts"`
	ChatMentions    bool `json:"chatMentions"`
	SystemUpdates   bool `json:"systemUpdates"`
}

// DashboardPreferences tunes dashboard behaviour
type DashboardPreferences struct {
	RefreshInterval int  `json:"refreshInterval"`
	AutoAcknowledge bool `json:"autoAcknowledge"`
	SoundAlerts     bool `json:"soundAlerts"`
}

// UserPreferences are the persisted display preferences of the operator
type UserPreferences struct {
	Language      string                  `json:"language"`
	Theme         string                  `json:"theme"`
	Timezone      string                  `json:"timezone"`
	DefaultView   string                  `json:"defaultView"`
	Notifications NotificationPreferences `json:"notifications"`
	Dashboard     DashboardPreferences    `json:"dashboard"`
}

// DefaultPreferences returns the preferences used when nothing is persisted
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Language:    "en",
		Theme:       "dark",
		Timezone:    "Asia/Riyadh",
		DefaultView: "overview",
		Notifications: NotificationPreferences{
			Incidents:       true,
			TelemetryAlerts: true,
			ChatMentions:    true,
			SystemUpdates:   false,
		},
		Dashboard: DashboardPreferences{
			RefreshInterval: 30,
		},
	}
}

// Alert is raised when a telemetry channel crosses its critical threshold
type Alert struct {
	ChannelID string    `json:"channelId"`
	MachineID string    `json:"machineId"`
	AlertType string    `json:"alertType"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// WebSocketMessage represents a message sent to WebSocket clients
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// WebSocket message types
const (
	MessageIncidentUpdate = "incident_update"
	MessageTelemetryData  = "telemetry_data"
	MessageChatMessage    = "chat_message"
	MessageHumanLocation  = "human_location"
	MessageMachineStatus  = "machine_status"
	MessageSystemAlert    = "system_alert"
	MessageStateChanged   = "state_changed"
)
