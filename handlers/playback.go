package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// playbackAvailable writes 503 when no playback timeline is configured
func (h *Handler) playbackAvailable(c *gin.Context) bool {
	if h.playback == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Playback is not available"})
		return false
	}
	return true
}

func (h *Handler) playbackStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.playback.Status())
}

// GetPlayback returns the timeline position and speed
func (h *Handler) GetPlayback(c *gin.Context) {
	if !h.playbackAvailable(c) {
		return
	}
	h.playbackStatus(c)
}

// PlayPlayback starts playback, optionally at a new speed.
// Playback outlives the request and stops with the server.
func (h *Handler) PlayPlayback(c *gin.Context) {
	if !h.playbackAvailable(c) {
		return
	}
	var req struct {
		Speed float64 `json:"speed"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	if req.Speed > 0 {
		h.playback.SetSpeed(req.Speed)
	}
	if err := h.playback.Play(h.lifetime); err != nil {
		h.errorResponse(c, http.StatusServiceUnavailable, "Failed to start playback", err)
		return
	}
	h.playbackStatus(c)
}

// PausePlayback stops advancing the timeline
func (h *Handler) PausePlayback(c *gin.Context) {
	if !h.playbackAvailable(c) {
		return
	}
	h.playback.Pause()
	h.playbackStatus(c)
}

// RestartPlayback rewinds to the start of the window
func (h *Handler) RestartPlayback(c *gin.Context) {
	if !h.playbackAvailable(c) {
		return
	}
	h.playback.Restart()
	h.playbackStatus(c)
}

// JumpToNow moves to the end of the window and resumes live mode
func (h *Handler) JumpToNow(c *gin.Context) {
	if !h.playbackAvailable(c) {
		return
	}
	if err := h.playback.JumpToNow(c.Request.Context()); err != nil {
		h.errorResponse(c, http.StatusServiceUnavailable, "Failed to resume live mode", err)
		return
	}
	h.playbackStatus(c)
}

// SeekPlayback moves to a position between 0 and 100
func (h *Handler) SeekPlayback(c *gin.Context) {
	if !h.playbackAvailable(c) {
		return
	}
	var req struct {
		Position *float64 `json:"position" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.playback.Seek(*req.Position)
	h.playbackStatus(c)
}

// SkipPlayback moves by a number of steps, negative to go back
func (h *Handler) SkipPlayback(c *gin.Context) {
	if !h.playbackAvailable(c) {
		return
	}
	var req struct {
		Steps int `json:"steps" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.playback.Skip(req.Steps)
	h.playbackStatus(c)
}

// SetPlaybackSpeed sets the speed, or cycles to the next preset without a body
func (h *Handler) SetPlaybackSpeed(c *gin.Context) {
	if !h.playbackAvailable(c) {
		return
	}
	if c.Request.ContentLength == 0 {
		h.playback.NextSpeed()
		h.playbackStatus(c)
		return
	}
	var req struct {
		Speed float64 `json:"speed" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.playback.SetSpeed(req.Speed)
	h.playbackStatus(c)
}
