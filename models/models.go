package models

import (
	"time"
)

// Location is a WGS84 position
type Location struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Altitude *float64 `json:"altitude,omitempty"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// HumanRole is the job function of field personnel
type HumanRole string

const (
	RoleOperator    HumanRole = "operator"
	RoleSupervisor  HumanRole = "supervisor"
	RoleHSE         HumanRole = "hse"
	RoleMaintenance HumanRole = "maintenance"
	RoleContractor  HumanRole = "contractor"
)

// HumanRoles lists every role in display order
var HumanRoles = []HumanRole{RoleOperator, RoleSupervisor, RoleHSE, RoleMaintenance, RoleContractor}

// HumanStatus is the presence state of a person on site
type HumanStatus string

const (
	HumanActive    HumanStatus = "active"
	HumanInactive  HumanStatus = "inactive"
	HumanEmergency HumanStatus = "emergency"
	HumanOffline   HumanStatus = "offline"
)

// Contact holds the ways to reach a person
type Contact struct {
	Phone string `json:"phone,omitempty"`
	Radio string `json:"radio,omitempty"`
	Email string `json:"email,omitempty"`
}

// Shift is the working window of a person at a site
type Shift struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Site  string    `json:"site"`
}

// EmergencyContact is the next of kin for a person
type EmergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// Human represents field personnel
type Human struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Role             HumanRole         `json:"role"`
	BadgeID          string            `json:"badgeId"`
	Certifications   []string          `json:"certifications"`
	Location         Location          `json:"location"`
	LastSeen         time.Time         `json:"lastSeen"`
	Status           HumanStatus       `json:"status"`
	Contact          Contact           `json:"contact"`
	Shift            Shift             `json:"shift"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
}

// MachineType is the equipment category
type MachineType string

const (
	MachinePump       MachineType = "pump"
	MachineCompressor MachineType = "compressor"
	MachineValve      MachineType = "valve"
	MachineTank       MachineType = "tank"
	MachineSensor     MachineType = "sensor"
	MachineVehicle    MachineType = "vehicle"
	MachineGenerator  MachineType = "generator"
	MachineOther      MachineType = "other"
)

// MachineStatus is the operational state of equipment
type MachineStatus string

const (
	MachineOperational MachineStatus = "operational"
	MachineMaintenance MachineStatus = "maintenance"
	MachineFault       MachineStatus = "fault"
	MachineOffline     MachineStatus = "offline"
	MachineEmergency   MachineStatus = "emergency"
)

// Machine represents a piece of field equipment
type Machine struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Type             MachineType       `json:"type"`
	Model            string            `json:"model"`
	Manufacturer     string            `json:"manufacturer"`
	SerialNumber     string            `json:"serialNumber"`
	Location         Location          `json:"location"`
	Status           MachineStatus     `json:"status"`
	HealthScore      int               `json:"healthScore"`
	LastMaintenance  time.Time         `json:"lastMaintenance"`
	NextMaintenance  time.Time         `json:"nextMaintenance"`
	AssignedOperator string            `json:"assignedOperator,omitempty"`
	Tags             []string          `json:"tags"`
	Specifications   map[string]string `json:"specifications"`
}

// ChannelType is the physical quantity measured by a telemetry channel
type ChannelType string

const (
	ChannelPressure    ChannelType = "pressure"
	ChannelTemperature ChannelType = "temperature"
	ChannelVibration   ChannelType = "vibration"
	ChannelFlow        ChannelType = "flow"
	ChannelGas         ChannelType = "gas"
	ChannelPower       ChannelType = "power"
	ChannelLevel       ChannelType = "level"
	ChannelSpeed       ChannelType = "speed"
	ChannelCustom      ChannelType = "custom"
)

// Trend is the recent direction of a channel value
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// TelemetryChannel is one measured signal of a machine
type TelemetryChannel struct {
	ID                string      `json:"id"`
	MachineID         string      `json:"machineId"`
	Name              string      `json:"name"`
	Type              ChannelType `json:"type"`
	Unit              string      `json:"unit"`
	MinValue          float64     `json:"minValue"`
	MaxValue          float64     `json:"maxValue"`
	WarningThreshold  *float64    `json:"warningThreshold,omitempty"`
	CriticalThreshold *float64    `json:"criticalThreshold,omitempty"`
	CurrentValue      float64     `json:"currentValue"`
	LastUpdate        time.Time   `json:"lastUpdate"`
	IsAnomalous       bool        `json:"isAnomalous"`
	TrendDirection    Trend       `json:"trendDirection"`
}

// TelemetryReading is a single sample delivered by the live feed
type TelemetryReading struct {
	ChannelID string    `json:"channelId"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Quality   string    `json:"quality"`
}

// ChatThread is a conversation, optionally bound to an incident
type ChatThread struct {
	ID           string    `json:"id"`
	IncidentID   string    `json:"incidentId,omitempty"`
	Title        string    `json:"title"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	MessageCount int       `json:"messageCount"`
	IsActive     bool      `json:"isActive"`
	Summary      string    `json:"summary,omitempty"`
}

// Attachment is a file shared in a chat message
type Attachment struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ChatMessage is one entry of a chat thread
type ChatMessage struct {
	ID                string       `json:"id"`
	SenderID          string       `json:"senderId"`
	SenderName        string       `json:"senderName"`
	SenderRole        string       `json:"senderRole"`
	Timestamp         time.Time    `json:"timestamp"`
	Content           string       `json:"content"`
	Type              string       `json:"type"`
	ThreadID          string       `json:"threadId,omitempty"`
	IncidentID        string       `json:"incidentId,omitempty"`
	Attachments       []Attachment `json:"attachments"`
	IsRadioTranscript bool         `json:"isRadioTranscript"`
	IsEmergency       bool         `json:"isEmergency"`
	Mentions          []string     `json:"mentions"`
	Tags              []string     `json:"tags"`
}

// InteractionType is the kind of contact between a person and equipment
type InteractionType string

const (
	InteractionOperation     InteractionType = "operation"
	InteractionInspection    InteractionType = "inspection"
	InteractionMaintenance   InteractionType = "maintenance"
	InteractionOverride      InteractionType = "override"
	InteractionProximity     InteractionType = "proximity"
	InteractionEmergencyStop InteractionType = "emergency_stop"
)

// InteractionResult is the outcome of an interaction
type InteractionResult string

const (
	ResultSuccess InteractionResult = "success"
	ResultFailure InteractionResult = "failure"
	ResultPartial InteractionResult = "partial"
	ResultPending InteractionResult = "pending"
)

// RiskAssessment grades the hazard of an interaction
type RiskAssessment struct {
	Level   string   `json:"level"`
	Factors []string `json:"factors"`
}

// HumanMachineInteraction records a person acting on a machine
type HumanMachineInteraction struct {
	ID             string            `json:"id"`
	HumanID        string            `json:"humanId"`
	MachineID      string            `json:"machineId"`
	Type           InteractionType   `json:"type"`
	Action         string            `json:"action"`
	Result         InteractionResult `json:"result"`
	Timestamp      time.Time         `json:"timestamp"`
	Duration       int               `json:"duration"`
	EvidenceURL    string            `json:"evidenceUrl,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	PermitID       string            `json:"permitId,omitempty"`
	WorkOrderID    string            `json:"workOrderId,omitempty"`
	RiskAssessment *RiskAssessment   `json:"riskAssessment,omitempty"`
}

// ChatFeedStats summarises chat activity
type ChatFeedStats struct {
	ActiveTeams        int `json:"activeTeams"`
	ActiveParticipants int `json:"activeParticipants"`
	MessagesLast24h    int `json:"messagesLast24h"`
}

// TelemetryStats summarises the telemetry fleet
type TelemetryStats struct {
	SitesActive       int `json:"sitesActive"`
	MachinesActive    int `json:"machinesActive"`
	AnomalyPercentage int `json:"anomalyPercentage"`
	DataQuality       int `json:"dataQuality"`
}

// HumanMachineSplit is a pair of percentages for people and equipment
type HumanMachineSplit struct {
	Human   int `json:"human"`
	Machine int `json:"machine"`
}

// InteractionStats summarises human-machine interactions
type InteractionStats struct {
	FirstResponderTypePercentage HumanMachineSplit `json:"firstResponderTypePercentage"`
	SuccessRates                 HumanMachineSplit `json:"successRates"`
	InteractionsLast24h          int               `json:"interactionsLast24h"`
}

// PanelStatistics is the rollup shown across dashboard panels
type PanelStatistics struct {
	ChatFeed                 ChatFeedStats    `json:"chatFeed"`
	Telemetry                TelemetryStats   `json:"telemetry"`
	HumanMachineInteractions InteractionStats `json:"humanMachineInteractions"`
}

// Snapshot is a complete, cross-referenced dataset as delivered by a data source
type Snapshot struct {
	Humans                   []Human                   `json:"humans"`
	Machines                 []Machine                 `json:"machines"`
	Incidents                []Incident                `json:"incidents"`
	TelemetryChannels        []TelemetryChannel        `json:"telemetryChannels"`
	ChatThreads              []ChatThread              `json:"chatThreads"`
	ChatMessages             []ChatMessage             `json:"chatMessages"`
	HumanMachineInteractions []HumanMachineInteraction `json:"humanMachineInteractions"`
	Statistics               PanelStatistics           `json:"statistics"`
}
