package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when an incident status change is not allowed
var ErrInvalidTransition = errors.New("invalid incident status transition")

// Severity grades an incident; critical is the most severe
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists all severities from most to least severe
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Rank orders severities: critical is 0, info is 4, unknown values sort last
func (s Severity) Rank() int {
	for i, v := range Severities {
		if v == s {
			return i
		}
	}
	return len(Severities)
}

// IncidentStatus is a stage of the incident lifecycle
type IncidentStatus string

const (
	StatusOpen          IncidentStatus = "open"
	StatusAcknowledged  IncidentStatus = "acknowledged"
	StatusInvestigating IncidentStatus = "investigating"
	StatusResolved      IncidentStatus = "resolved"
	StatusClosed        IncidentStatus = "closed"
)

// IncidentStatuses lists the lifecycle in order
var IncidentStatuses = []IncidentStatus{StatusOpen, StatusAcknowledged, StatusInvestigating, StatusResolved, StatusClosed}

func (s IncidentStatus) stage() int {
	for i, v := range IncidentStatuses {
		if v == s {
			return i
		}
	}
	return -1
}

// IsActive reports whether the incident still needs attention
func (s IncidentStatus) IsActive() bool {
	return s == StatusOpen || s == StatusAcknowledged || s == StatusInvestigating
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
// Only forward moves are allowed; closed is terminal.
func (s IncidentStatus) CanTransitionTo(next IncidentStatus) bool {
	from, to := s.stage(), next.stage()
	if from < 0 || to < 0 {
		return false
	}
	return to > from
}

// IncidentType is the category of an incident
type IncidentType string

const (
	TypeSafety        IncidentType = "safety"
	TypeEquipment     IncidentType = "equipment"
	TypeEnvironmental IncidentType = "environmental"
	TypeSecurity      IncidentType = "security"
	TypeOperational   IncidentType = "operational"
)

// IncidentTypes lists every incident category
var IncidentTypes = []IncidentType{TypeSafety, TypeEquipment, TypeEnvironmental, TypeSecurity, TypeOperational}

// SLA holds the service-level deadlines of an incident
type SLA struct {
	AcknowledgeBy time.Time `json:"acknowledgeBy"`
	ResolveBy     time.Time `json:"resolveBy"`
	IsOverdue     bool      `json:"isOverdue"`
}

// Incident is an operational event requiring response
type Incident struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Severity         Severity       `json:"severity"`
	Status           IncidentStatus `json:"status"`
	Type             IncidentType   `json:"type"`
	Priority         int            `json:"priority"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DetectedBy       string         `json:"detectedBy"`
	Location         Location       `json:"location"`
	Site             string         `json:"site"`
	Unit             string         `json:"unit"`
	Owner            string         `json:"owner,omitempty"`
	Assignee         string         `json:"assignee,omitempty"`
	InvolvedHumans   []string       `json:"involvedHumans"`
	InvolvedMachines []string       `json:"involvedMachines"`
	SLA              SLA            `json:"sla"`
	RiskScore        int            `json:"riskScore"`
	CauseHypothesis  string         `json:"causeHypothesis,omitempty"`
	RootCause        string         `json:"rootCause,omitempty"`
	Resolution       string         `json:"resolution,omitempty"`
	EvidenceURLs     []string       `json:"evidenceUrls"`
	WorkOrderID      string         `json:"workOrderId,omitempty"`
	Tags             []string       `json:"tags"`
}

// SLAFor returns the deadlines for an incident of the given severity created at createdAt.
// Critical incidents must be acknowledged within 15 minutes and resolved within 4 hours,
// everything else within 60 minutes and 24 hours.
func SLAFor(severity Severity, createdAt time.Time) SLA {
	ack, resolve := 60*time.Minute, 24*time.Hour
	if severity == SeverityCritical {
		ack, resolve = 15*time.Minute, 4*time.Hour
	}
	return SLA{
		AcknowledgeBy: createdAt.Add(ack),
		ResolveBy:     createdAt.Add(resolve),
	}
}

// RefreshSLA recomputes the overdue flag against now
func (i *Incident) RefreshSLA(now time.Time) {
	i.SLA.IsOverdue = i.Status.IsActive() && now.After(i.SLA.ResolveBy)
}

// RefreshIncidents returns a copy of incidents with every overdue flag recomputed against now.
// The input slice is left untouched.
func RefreshIncidents(incidents []Incident, now time.Time) []Incident {
	if incidents == nil {
		return nil
	}
	out := make([]Incident, len(incidents))
	for i, incident := range incidents {
		incident.RefreshSLA(now)
		out[i] = incident
	}
	return out
}

// Transition moves the incident to next, stamping updatedAt
func (i *Incident) Transition(next IncidentStatus, now time.Time) error {
	if !i.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.Status, next)
	}
	i.Status = next
	i.UpdatedAt = now
	i.RefreshSLA(now)
	return nil
}

// ClampScore bounds health and risk scores to [0, 100]
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
