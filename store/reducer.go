package store

import (
	"opsecho/models"
)

// Reduce returns the state that results from applying action to state.
// It never mutates the slices of the input state.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case SetIncidents:
		state.Incidents = a.Incidents
	case AddIncident:
		state.Incidents = prepend(state.Incidents, a.Incident)
	case UpdateIncident:
		state.Incidents = replaceByID(state.Incidents, a.Incident, func(i models.Incident) string { return i.ID })
	case TransitionIncident:
		state.Incidents = transition(state.Incidents, a)

	case SetHumans:
		state.Humans = a.Humans
	case UpdateHuman:
		state.Humans = replaceByID(state.Humans, a.Human, func(h models.Human) string { return h.ID })

	case SetMachines:
		state.Machines = a.Machines
	case UpdateMachine:
		state.Machines = replaceByID(state.Machines, a.Machine, func(m models.Machine) string { return m.ID })

	case SetTelemetryChannels:
		state.TelemetryChannels = a.Channels
	case UpdateTelemetryChannel:
		state.TelemetryChannels = replaceByID(state.TelemetryChannels, a.Channel, func(c models.TelemetryChannel) string { return c.ID })

	case SetChatThreads:
		state.ChatThreads = a.Threads
	case AddChatThread:
		state.ChatThreads = prepend(state.ChatThreads, a.Thread)
	case SetChatMessages:
		state.ChatMessages = a.Messages
	case AddChatMessage:
		state.ChatMessages = append(append([]models.ChatMessage(nil), state.ChatMessages...), a.Message)

	case SetInteractions:
		state.HumanMachineInteractions = a.Interactions
	case AddInteraction:
		state.HumanMachineInteractions = prepend(state.HumanMachineInteractions, a.Interaction)

	case SelectIncidents:
		state.SelectedIncidentIDs = copyStrings(a.IDs)
	case SelectHumans:
		state.SelectedHumanIDs = copyStrings(a.IDs)
	case SelectMachines:
		state.SelectedMachineIDs = copyStrings(a.IDs)

	case SetFilters:
		state.Filters = mergeFilters(state.Filters, a)
	case SetMapViewport:
		state.MapViewport = a.Viewport
	case ToggleLayer:
		state.SelectedLayers = toggle(state.SelectedLayers, a.Layer)
	case SetSelectedLayers:
		state.SelectedLayers = copyStrings(a.Layers)

	case ToggleRightPanel:
		state.IsRightPanelOpen = !state.IsRightPanelOpen
	case SetRightPanel:
		state.IsRightPanelOpen = a.Open
	case ToggleLeftRail:
		state.LeftRailCollapsed = !state.LeftRailCollapsed
	case SetSelectedTab:
		state.SelectedTab = a.Tab
	case SetLiveMode:
		state.LiveMode = a.Live
	case SetStatistics:
		state.Statistics = a.Statistics

	case SetLoading:
		state.Loading = setLoading(state.Loading, a.Section, a.Loading)
	case SetError:
		state.Errors = setError(state.Errors, a.Section, a.Error)
	case ClearErrors:
		state.Errors = Errors{}
	case SetLastUpdate:
		at := a.At
		state.LastUpdate = &at

	default:
		// unknown variants leave the state untouched
	}
	return state
}

// transition applies a lifecycle move, leaving incidents unchanged when it is not allowed
func transition(incidents []models.Incident, a TransitionIncident) []models.Incident {
	for _, incident := range incidents {
		if incident.ID != a.ID {
			continue
		}
		if err := incident.Transition(a.Status, a.At); err != nil {
			return incidents
		}
		return replaceByID(incidents, incident, func(i models.Incident) string { return i.ID })
	}
	return incidents
}

func prepend[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

// replaceByID swaps the element whose id matches item's id; the rest keep their position
func replaceByID[T any](items []T, item T, id func(T) string) []T {
	target := id(item)
	out := make([]T, len(items))
	for i, existing := range items {
		if id(existing) == target {
			out[i] = item
		} else {
			out[i] = existing
		}
	}
	return out
}

func toggle(layers []string, layer string) []string {
	out := make([]string, 0, len(layers)+1)
	found := false
	for _, l := range layers {
		if l == layer {
			found = true
			continue
		}
		out = append(out, l)
	}
	if !found {
		out = append(out, layer)
	}
	return out
}

func copyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}

func mergeFilters(current models.FilterState, patch SetFilters) models.FilterState {
	if patch.TimeRange != nil {
		current.TimeRange = *patch.TimeRange
	}
	if patch.Severity != nil {
		current.Severity = append([]models.Severity(nil), patch.Severity...)
	}
	if patch.Status != nil {
		current.Status = copyStrings(patch.Status)
	}
	if patch.Sites != nil {
		current.Sites = copyStrings(patch.Sites)
	}
	if patch.Units != nil {
		current.Units = copyStrings(patch.Units)
	}
	if patch.MachineTypes != nil {
		current.MachineTypes = copyStrings(patch.MachineTypes)
	}
	if patch.Roles != nil {
		current.Roles = copyStrings(patch.Roles)
	}
	if patch.Tags != nil {
		current.Tags = copyStrings(patch.Tags)
	}
	return current
}

func setLoading(l Loading, section string, v bool) Loading {
	switch section {
	case SectionIncidents:
		l.Incidents = v
	case SectionHumans:
		l.Humans = v
	case SectionMachines:
		l.Machines = v
	case SectionTelemetry:
		l.Telemetry = v
	case SectionChat:
		l.Chat = v
	}
	return l
}

func setError(e Errors, section, msg string) Errors {
	switch section {
	case SectionIncidents:
		e.Incidents = msg
	case SectionHumans:
		e.Humans = msg
	case SectionMachines:
		e.Machines = msg
	case SectionTelemetry:
		e.Telemetry = msg
	case SectionChat:
		e.Chat = msg
	case SectionConnection:
		e.Connection = msg
	}
	return e
}
