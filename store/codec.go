package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"opsecho/models"
)

// ErrMissingType is returned for an envelope without a type tag
var ErrMissingType = errors.New("action type is required")

// Envelope is the wire form of an action: {"type": "...", "payload": ...}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type decoder func(payload json.RawMessage) (Action, error)

// into decodes the payload into a value of type P and wraps it with build
func into[P any](build func(P) Action) decoder {
	return func(payload json.RawMessage) (Action, error) {
		var p P
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &p); err != nil {
				return nil, err
			}
		}
		return build(p), nil
	}
}

func noPayload(a Action) decoder {
	return func(json.RawMessage) (Action, error) { return a, nil }
}

type sectionFlag struct {
	Section string `json:"section"`
	Loading bool   `json:"loading"`
}

type sectionError struct {
	Section string `json:"section"`
	Error   string `json:"error"`
}

var decoders = map[string]decoder{
	"SET_INCIDENTS":       into(func(p []models.Incident) Action { return SetIncidents{Incidents: p} }),
	"ADD_INCIDENT":        into(func(p models.Incident) Action { return AddIncident{Incident: p} }),
	"UPDATE_INCIDENT":     into(func(p models.Incident) Action { return UpdateIncident{Incident: p} }),
	"TRANSITION_INCIDENT": into(func(p TransitionIncident) Action { return p }),
	"SET_HUMANS":          into(func(p []models.Human) Action { return SetHumans{Humans: p} }),
	"UPDATE_HUMAN":        into(func(p models.Human) Action { return UpdateHuman{Human: p} }),
	"SET_MACHINES":        into(func(p []models.Machine) Action { return SetMachines{Machines: p} }),
	"UPDATE_MACHINE":      into(func(p models.Machine) Action { return UpdateMachine{Machine: p} }),
	"SET_TELEMETRY_CHANNELS": into(func(p []models.TelemetryChannel) Action {
		return SetTelemetryChannels{Channels: p}
	}),
	"UPDATE_TELEMETRY_CHANNEL": into(func(p models.TelemetryChannel) Action {
		return UpdateTelemetryChannel{Channel: p}
	}),
	"SET_CHAT_THREADS":  into(func(p []models.ChatThread) Action { return SetChatThreads{Threads: p} }),
	"ADD_CHAT_THREAD":   into(func(p models.ChatThread) Action { return AddChatThread{Thread: p} }),
	"SET_CHAT_MESSAGES": into(func(p []models.ChatMessage) Action { return SetChatMessages{Messages: p} }),
	"ADD_CHAT_MESSAGE":  into(func(p models.ChatMessage) Action { return AddChatMessage{Message: p} }),
	"SET_HMI_INTERACTIONS": into(func(p []models.HumanMachineInteraction) Action {
		return SetInteractions{Interactions: p}
	}),
	"ADD_HMI_INTERACTION": into(func(p models.HumanMachineInteraction) Action {
		return AddInteraction{Interaction: p}
	}),
	"SELECT_INCIDENTS":    into(func(p []string) Action { return SelectIncidents{IDs: p} }),
	"SELECT_HUMANS":       into(func(p []string) Action { return SelectHumans{IDs: p} }),
	"SELECT_MACHINES":     into(func(p []string) Action { return SelectMachines{IDs: p} }),
	"SET_FILTERS":         into(func(p SetFilters) Action { return p }),
	"SET_MAP_VIEWPORT":    into(func(p models.MapViewport) Action { return SetMapViewport{Viewport: p} }),
	"TOGGLE_LAYER":        into(func(p string) Action { return ToggleLayer{Layer: p} }),
	"SET_SELECTED_LAYERS": into(func(p []string) Action { return SetSelectedLayers{Layers: p} }),
	"TOGGLE_RIGHT_PANEL":  noPayload(ToggleRightPanel{}),
	"SET_RIGHT_PANEL":     into(func(p bool) Action { return SetRightPanel{Open: p} }),
	"TOGGLE_LEFT_RAIL":    noPayload(ToggleLeftRail{}),
	"SET_SELECTED_TAB":    into(func(p string) Action { return SetSelectedTab{Tab: p} }),
	"SET_LIVE_MODE":       into(func(p bool) Action { return SetLiveMode{Live: p} }),
	"SET_STATISTICS":      into(func(p models.PanelStatistics) Action { return SetStatistics{Statistics: p} }),
	"SET_LOADING": into(func(p sectionFlag) Action {
		return SetLoading{Section: p.Section, Loading: p.Loading}
	}),
	"SET_ERROR": into(func(p sectionError) Action {
		return SetError{Section: p.Section, Error: p.Error}
	}),
	"CLEAR_ERRORS":    noPayload(ClearErrors{}),
	"SET_LAST_UPDATE": into(func(p time.Time) Action { return SetLastUpdate{At: p} }),
}

// DecodeAction parses a wire envelope into its action variant.
// Unrecognised tags decode to Unknown so that newer clients do not fail.
func DecodeAction(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode action envelope: %w", err)
	}
	return env.Action()
}

// Action resolves the envelope into its action variant
func (e Envelope) Action() (Action, error) {
	if e.Type == "" {
		return nil, ErrMissingType
	}
	dec, ok := decoders[e.Type]
	if !ok {
		return Unknown{Tag: e.Type}, nil
	}
	action, err := dec(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return action, nil
}
