package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/mozsignals/mozsignals-api/internal/models"
)

const settingsCacheKey = "site_settings"

//
// --- Site Customization Handlers ---
//

// GetSiteSettings is the handler for GET /v1/settings.
// Public: the front-end applies fonts/colors on load, so this is hit on
// every visit and served from a short-lived cache.
func (h *Handlers) GetSiteSettings(c *gin.Context) {
	if cached, ok := h.SettingsCache.Get(settingsCacheKey); ok {
		c.JSON(http.StatusOK, gin.H{"settings": cached.(models.SiteSettings)})
		return
	}

	settings, found, err := h.Settings.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	if !found {
		settings = models.SiteSettings{} // defaults: nothing enabled
	}

	h.SettingsCache.Set(settingsCacheKey, settings, gocache.DefaultExpiration)
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSiteSettings is the handler for PUT /v1/admin/settings.
func (h *Handlers) UpdateSiteSettings(c *gin.Context) {
	var input models.SiteSettings
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.UpdatedAt = time.Now()

	if err := h.Settings.Set(input); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	// Drop the cached copy so the change is visible right away.
	h.SettingsCache.Delete(settingsCacheKey)

	c.JSON(http.StatusOK, gin.H{"message": "Settings updated", "settings": input})
}
