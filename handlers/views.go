package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"opsecho/models"
	"opsecho/store"
	"opsecho/views"
)

// incidentQuery reads sort, dir and group from the query string
func incidentQuery(c *gin.Context) (views.SortConfig, views.GroupBy, error) {
	sort := views.DefaultSort
	if key := c.Query("sort"); key != "" {
		sort.Key = views.SortKey(key)
	}
	switch dir := c.Query("dir"); dir {
	case "":
	case string(views.Asc), string(views.Desc):
		sort.Direction = views.SortDirection(dir)
	default:
		return sort, "", &queryError{param: "dir", value: dir}
	}

	group := views.GroupBy(c.DefaultQuery("group", string(views.GroupNone)))
	switch group {
	case views.GroupNone, views.GroupSeverity, views.GroupStatus, views.GroupSite:
	default:
		return sort, "", &queryError{param: "group", value: string(group)}
	}
	return sort, group, nil
}

type queryError struct {
	param string
	value string
}

func (e *queryError) Error() string {
	return "invalid " + e.param + ": " + strconv.Quote(e.value)
}

// GetIncidentTable returns the filtered, sorted and grouped incident table
func (h *Handler) GetIncidentTable(c *gin.Context) {
	sort, group, err := incidentQuery(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid query", err)
		return
	}
	c.JSON(http.StatusOK, views.BuildIncidentTable(h.store.State(), sort, group, h.now()))
}

// GetTelemetryView returns the channels relevant to the current selection.
// type narrows to one channel type, anomalous=true to anomalous channels.
func (h *Handler) GetTelemetryView(c *gin.Context) {
	channels := views.RelevantTelemetry(h.store.State(), views.RelevantTelemetryCap)
	if t := c.Query("type"); t != "" && t != views.FilterAll {
		channels = views.ChannelsByType(channels, models.ChannelType(t))
	}
	if anomalous, _ := strconv.ParseBool(c.Query("anomalous")); anomalous {
		channels = views.AnomalousChannels(channels)
	}
	c.JSON(http.StatusOK, gin.H{
		"channels": channels,
		"count":    len(channels),
	})
}

// GetChatView returns the messages of the selected incidents
func (h *Handler) GetChatView(c *gin.Context) {
	messages := views.FilterChatMessages(h.store.State())
	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// GetInteractionView returns the filtered HMI log with resolved names
func (h *Handler) GetInteractionView(c *gin.Context) {
	var filter views.HMIFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid query", err)
		return
	}
	state := h.store.State()
	rows := views.ResolveInteractions(state, views.FilterInteractions(state, filter))
	c.JSON(http.StatusOK, gin.H{
		"interactions": rows,
		"count":        len(rows),
		"filter":       filter,
	})
}

// GetTimeline returns the events inside the active time range, or inside a preset window
func (h *Handler) GetTimeline(c *gin.Context) {
	state := h.store.State()
	window := state.Filters.TimeRange
	if preset := c.Query("preset"); preset != "" {
		window = views.TimeRangeForPreset(preset, h.now())
	}
	events := views.BuildTimeline(state, window)
	c.JSON(http.StatusOK, gin.H{
		"window": window,
		"events": events,
	})
}

// GetMapView returns the markers of the selected layers
func (h *Handler) GetMapView(c *gin.Context) {
	state := h.store.State()
	c.JSON(http.StatusOK, gin.H{
		"viewport": state.MapViewport,
		"layers":   state.SelectedLayers,
		"entities": views.VisibleEntities(state, h.now()),
	})
}

// GetKPIs returns the header counters
func (h *Handler) GetKPIs(c *gin.Context) {
	c.JSON(http.StatusOK, views.ComputeKPIs(h.store.State(), h.now()))
}

// GetStatistics recomputes the panel statistics from the store collections
func (h *Handler) GetStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, views.ComputeStatistics(snapshotOf(h.store.State()), h.now()))
}

func snapshotOf(state store.State) models.Snapshot {
	return models.Snapshot{
		Humans:                   state.Humans,
		Machines:                 state.Machines,
		Incidents:                state.Incidents,
		TelemetryChannels:        state.TelemetryChannels,
		ChatThreads:              state.ChatThreads,
		ChatMessages:             state.ChatMessages,
		HumanMachineInteractions: state.HumanMachineInteractions,
	}
}

// GetChannelStats returns the sliding-window statistics of a telemetry channel
func (h *Handler) GetChannelStats(c *gin.Context) {
	id := c.Param("id")
	if h.anomalyDetector == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No readings for channel", "id": id})
		return
	}
	stats := h.anomalyDetector.GetChannelStats(id)
	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No readings for channel", "id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"channel_id": id,
		"stats":      stats,
	})
}
