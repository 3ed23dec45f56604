package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"opsecho/models"
	"opsecho/preferences"
	"opsecho/services"
	"opsecho/store"
	"opsecho/websocket"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Dependencies are the collaborators of the HTTP handlers. Store is required.
type Dependencies struct {
	Store           *store.Store
	Source          store.DataSource
	Hub             *websocket.Hub
	AnomalyDetector *services.AnomalyDetector
	Playback        *services.Playback
	Preferences     *preferences.Store
	Logger          *zap.Logger
	// Now defaults to time.Now
	Now func() time.Time
	// Lifetime bounds background work started by requests, such as playback
	Lifetime context.Context
}

// Handler contains all the dependencies needed for HTTP handlers
type Handler struct {
	store           *store.Store
	source          store.DataSource
	hub             *websocket.Hub
	anomalyDetector *services.AnomalyDetector
	playback        *services.Playback
	preferences     *preferences.Store
	logger          *zap.Logger
	now             func() time.Time
	lifetime        context.Context
}

// New creates a new handler instance. It panics without a store.
func New(deps Dependencies) *Handler {
	if deps.Store == nil {
		panic("handlers: a store is required")
	}
	h := &Handler{
		store:           deps.Store,
		source:          deps.Source,
		hub:             deps.Hub,
		anomalyDetector: deps.AnomalyDetector,
		playback:        deps.Playback,
		preferences:     deps.Preferences,
		logger:          deps.Logger,
		now:             deps.Now,
		lifetime:        deps.Lifetime,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.lifetime == nil {
		h.lifetime = context.Background()
	}
	return h
}

// RegisterRoutes mounts every endpoint on router
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	{
		api.GET("/health", h.Health)

		// Incidents
		api.GET("/incidents", h.GetIncidents)
		api.POST("/incidents", h.CreateIncident)
		api.GET("/incidents/export", h.ExportIncidents)
		api.POST("/incidents/:id/transition", h.TransitionIncident)

		// Store
		api.GET("/snapshot", h.GetSnapshot)
		api.GET("/state", h.GetState)
		api.POST("/dispatch", h.Dispatch)

		// Derived views
		api.GET("/views/incidents", h.GetIncidentTable)
		api.GET("/views/telemetry", h.GetTelemetryView)
		api.GET("/views/chat", h.GetChatView)
		api.GET("/views/hmi", h.GetInteractionView)
		api.GET("/views/timeline", h.GetTimeline)
		api.GET("/views/map", h.GetMapView)
		api.GET("/kpis", h.GetKPIs)
		api.GET("/statistics", h.GetStatistics)
		api.GET("/telemetry/:id/stats", h.GetChannelStats)

		// Preferences
		api.GET("/preferences", h.GetPreferences)
		api.PUT("/preferences", h.UpdatePreferences)

		// Playback
		api.GET("/playback", h.GetPlayback)
		api.POST("/playback/play", h.PlayPlayback)
		api.POST("/playback/pause", h.PausePlayback)
		api.POST("/playback/restart", h.RestartPlayback)
		api.POST("/playback/now", h.JumpToNow)
		api.POST("/playback/seek", h.SeekPlayback)
		api.POST("/playback/skip", h.SkipPlayback)
		api.POST("/playback/speed", h.SetPlaybackSpeed)
	}

	router.GET("/ws", h.WebSocketEndpoint)
}

// errorResponse writes the {error, details} body used by the extended API
func (h *Handler) errorResponse(c *gin.Context, status int, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
		h.logger.Warn(message, zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, body)
}

// dispatch applies action and maps a stopped store to 503
func (h *Handler) dispatch(c *gin.Context, action store.Action) (store.State, bool) {
	state, err := h.store.Dispatch(c.Request.Context(), action)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrStopped) {
			status = http.StatusServiceUnavailable
		}
		h.errorResponse(c, status, "Failed to apply action", err)
		return store.State{}, false
	}
	return state, true
}

// Health reports the API status
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "OpsEcho API is running",
		"timestamp": h.now().UTC(),
		"version":   Version,
		"components": gin.H{
			"incidents": "operational",
			"telemetry": "operational",
			"chat":      "operational",
			"map":       "operational",
		},
	})
}

// GetIncidents returns the incidents of a freshly loaded dataset
func (h *Handler) GetIncidents(c *gin.Context) {
	snap, err := h.loadSnapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to fetch incidents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Failed to fetch incidents",
			"timestamp": h.now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      snap.Incidents,
		"total":     len(snap.Incidents),
		"timestamp": h.now().UTC(),
	})
}

// CreateIncident echoes the posted incident with a generated id and timestamps.
// Nothing is stored; a later GET does not return it.
func (h *Handler) CreateIncident(c *gin.Context) {
	var body map[string]interface{}
	raw, err := io.ReadAll(c.Request.Body)
	if err == nil {
		err = json.Unmarshal(raw, &body)
	}
	if err == nil && body == nil {
		err = errors.New("body is not a JSON object")
	}
	if err != nil {
		h.logger.Warn("failed to create incident", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Failed to create incident",
			"timestamp": h.now().UTC(),
		})
		return
	}

	now := h.now().UTC()
	body["id"] = fmt.Sprintf("incident_%d", now.UnixMilli())
	body["createdAt"] = now
	body["updatedAt"] = now

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      body,
		"message":   "Incident created successfully",
		"timestamp": now,
	})
}

// TransitionIncident moves an incident of the store along its lifecycle
func (h *Handler) TransitionIncident(c *gin.Context) {
	var req struct {
		Status models.IncidentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := c.Param("id")
	current, found := findIncident(h.store.State().Incidents, id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Incident not found", "id": id})
		return
	}
	if !current.Status.CanTransitionTo(req.Status) {
		h.rejectTransition(c, current.Status, req.Status)
		return
	}

	// the reducer re-checks the move; a concurrent transition may have won
	at := h.now()
	state, ok := h.dispatch(c, store.TransitionIncident{ID: id, Status: req.Status, At: at})
	if !ok {
		return
	}
	incident, found := findIncident(state.Incidents, id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Incident not found", "id": id})
		return
	}
	if incident.Status != req.Status || !incident.UpdatedAt.Equal(at) {
		h.rejectTransition(c, incident.Status, req.Status)
		return
	}

	incident.RefreshSLA(at)
	c.JSON(http.StatusOK, gin.H{
		"message":  "Incident updated successfully",
		"incident": incident,
	})
}

func findIncident(incidents []models.Incident, id string) (models.Incident, bool) {
	for _, incident := range incidents {
		if incident.ID == id {
			return incident, true
		}
	}
	return models.Incident{}, false
}

func (h *Handler) rejectTransition(c *gin.Context, from, to models.IncidentStatus) {
	err := fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
	h.errorResponse(c, http.StatusConflict, "Invalid status transition", err)
}

// GetSnapshot returns a freshly loaded dataset
func (h *Handler) GetSnapshot(c *gin.Context) {
	snap, err := h.loadSnapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Failed to load data",
			"timestamp": h.now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      snap,
		"timestamp": h.now().UTC(),
	})
}

func (h *Handler) loadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	if h.source == nil {
		return nil, errors.New("no data source configured")
	}
	snap, err := h.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	snap.Incidents = models.RefreshIncidents(snap.Incidents, h.now())
	return snap, nil
}

// present prepares a store snapshot for output, deriving overdue flags at the current time
func (h *Handler) present(state store.State) store.State {
	state.Incidents = models.RefreshIncidents(state.Incidents, h.now())
	return state
}

// GetState returns the current store snapshot
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.present(h.store.State()))
}

// Dispatch applies an action envelope {type, payload} to the store
func (h *Handler) Dispatch(c *gin.Context) {
	var env store.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	action, err := env.Action()
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid action", err)
		return
	}

	state, ok := h.dispatch(c, action)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"action": action.Type(),
		"state":  h.present(state),
	})
}

// WebSocketEndpoint upgrades the connection and attaches it to the hub
func (h *Handler) WebSocketEndpoint(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live updates are not available"})
		return
	}
	h.hub.HandleWebSocket(c.Writer, c.Request)
}
