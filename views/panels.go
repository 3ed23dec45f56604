package views

import (
	"opsecho/models"
	"opsecho/store"
)

// RelevantTelemetryCap bounds the telemetry panel when nothing is selected
const RelevantTelemetryCap = 20

// FilterAll disables an HMI filter dimension
const FilterAll = "all"

// Placeholder labels for dangling references
const (
	UnknownHuman   = "Unknown"
	UnknownRole    = "unknown"
	UnknownMachine = "Unknown Machine"
)

// HMIFilter narrows the interaction list; empty or "all" fields do not constrain
type HMIFilter struct {
	Type   string `json:"type" form:"type"`
	Role   string `json:"role" form:"role"`
	Result string `json:"result" form:"result"`
}

// RelevantTelemetry returns the channels of machines involved in the selected incidents,
// or the first channels of the fleet when no incident is selected.
func RelevantTelemetry(state store.State, limit int) []models.TelemetryChannel {
	if len(state.SelectedIncidentIDs) == 0 {
		if limit > 0 && len(state.TelemetryChannels) > limit {
			return append([]models.TelemetryChannel(nil), state.TelemetryChannels[:limit]...)
		}
		return append([]models.TelemetryChannel{}, state.TelemetryChannels...)
	}

	machines := involvedMachines(state)
	out := []models.TelemetryChannel{}
	for _, channel := range state.TelemetryChannels {
		if _, ok := machines[channel.MachineID]; ok {
			out = append(out, channel)
		}
	}
	return out
}

// ChannelsByType keeps the channels measuring t
func ChannelsByType(channels []models.TelemetryChannel, t models.ChannelType) []models.TelemetryChannel {
	out := []models.TelemetryChannel{}
	for _, channel := range channels {
		if channel.Type == t {
			out = append(out, channel)
		}
	}
	return out
}

// AnomalousChannels keeps the channels flagged as anomalous
func AnomalousChannels(channels []models.TelemetryChannel) []models.TelemetryChannel {
	out := []models.TelemetryChannel{}
	for _, channel := range channels {
		if channel.IsAnomalous {
			out = append(out, channel)
		}
	}
	return out
}

// FilterChatMessages scopes chat messages to the selected incidents
func FilterChatMessages(state store.State) []models.ChatMessage {
	if len(state.SelectedIncidentIDs) == 0 {
		return append([]models.ChatMessage{}, state.ChatMessages...)
	}
	selected := make(map[string]struct{}, len(state.SelectedIncidentIDs))
	for _, id := range state.SelectedIncidentIDs {
		selected[id] = struct{}{}
	}

	out := []models.ChatMessage{}
	for _, msg := range state.ChatMessages {
		if _, ok := selected[msg.IncidentID]; ok {
			out = append(out, msg)
		}
	}
	return out
}

// FilterInteractions applies every active HMI filter at once.
// The role filter resolves the human by id; an unknown human never matches a role.
// With incidents selected, only interactions on their involved machines are kept.
func FilterInteractions(state store.State, filter HMIFilter) []models.HumanMachineInteraction {
	var machines map[string]struct{}
	if len(state.SelectedIncidentIDs) > 0 {
		machines = involvedMachines(state)
	}

	out := []models.HumanMachineInteraction{}
	for _, interaction := range state.HumanMachineInteractions {
		if constrained(filter.Type) && string(interaction.Type) != filter.Type {
			continue
		}
		if constrained(filter.Result) && string(interaction.Result) != filter.Result {
			continue
		}
		if constrained(filter.Role) {
			human, ok := findHuman(state.Humans, interaction.HumanID)
			if !ok || string(human.Role) != filter.Role {
				continue
			}
		}
		if machines != nil {
			if _, ok := machines[interaction.MachineID]; !ok {
				continue
			}
		}
		out = append(out, interaction)
	}
	return out
}

func constrained(v string) bool {
	return v != "" && v != FilterAll
}

func findHuman(humans []models.Human, id string) (models.Human, bool) {
	for _, h := range humans {
		if h.ID == id {
			return h, true
		}
	}
	return models.Human{}, false
}

func findMachine(machines []models.Machine, id string) (models.Machine, bool) {
	for _, m := range machines {
		if m.ID == id {
			return m, true
		}
	}
	return models.Machine{}, false
}

// HumanName resolves a person's name, falling back to a placeholder
func HumanName(humans []models.Human, id string) string {
	if h, ok := findHuman(humans, id); ok {
		return h.Name
	}
	return UnknownHuman
}

// HumanRole resolves a person's role, falling back to a placeholder
func HumanRole(humans []models.Human, id string) string {
	if h, ok := findHuman(humans, id); ok {
		return string(h.Role)
	}
	return UnknownRole
}

// MachineName resolves a machine's name, falling back to a placeholder
func MachineName(machines []models.Machine, id string) string {
	if m, ok := findMachine(machines, id); ok {
		return m.Name
	}
	return UnknownMachine
}

// InteractionRow is an interaction with its references resolved for display
type InteractionRow struct {
	models.HumanMachineInteraction
	HumanName   string `json:"humanName"`
	HumanRole   string `json:"humanRole"`
	MachineName string `json:"machineName"`
}

// ResolveInteractions attaches display names to interactions
func ResolveInteractions(state store.State, interactions []models.HumanMachineInteraction) []InteractionRow {
	rows := make([]InteractionRow, 0, len(interactions))
	for _, interaction := range interactions {
		rows = append(rows, InteractionRow{
			HumanMachineInteraction: interaction,
			HumanName:               HumanName(state.Humans, interaction.HumanID),
			HumanRole:               HumanRole(state.Humans, interaction.HumanID),
			MachineName:             MachineName(state.Machines, interaction.MachineID),
		})
	}
	return rows
}
