package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"opsecho/models"
)

// GetPreferences returns the stored display preferences, or the defaults
func (h *Handler) GetPreferences(c *gin.Context) {
	if h.preferences == nil {
		c.JSON(http.StatusOK, models.DefaultPreferences())
		return
	}
	prefs, err := h.preferences.Load(c.Request.Context())
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "Failed to load preferences", err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences replaces the stored preferences.
// Fields missing from the body keep their default values.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	if h.preferences == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Preferences storage is not available"})
		return
	}
	prefs := models.DefaultPreferences()
	if err := c.ShouldBindJSON(&prefs); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.preferences.Save(c.Request.Context(), prefs); err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "Failed to save preferences", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Preferences updated successfully",
		"preferences": prefs,
	})
}
