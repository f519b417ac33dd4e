package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mozsignals/mozsignals-api/internal/models"
)

//
// --- Admin: Maintenance Flag Handlers ---
//

// GetMaintenance is the handler for GET /v1/admin/maintenance/:surface.
func (h *Handlers) GetMaintenance(c *gin.Context) {
	surface := c.Param("surface")
	if !models.IsKnownSurface(surface) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown surface"})
		return
	}

	flag, found, err := h.Flags.Get(surface)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load maintenance flag"})
		return
	}
	if !found {
		// Absent flag means the surface is simply up.
		flag = models.MaintenanceFlag{Surface: surface, Enabled: false}
	}

	c.JSON(http.StatusOK, gin.H{"maintenance": flag})
}

// SetMaintenanceInput defines the JSON for flagging a surface.
type SetMaintenanceInput struct {
	Enabled  bool      `json:"enabled"`
	Reason   string    `json:"reason"`
	Message  string    `json:"message"`
	EndTime  time.Time `json:"endTime"`
	ImageURL string    `json:"imageUrl"`
}

// SetMaintenance is the handler for PUT /v1/admin/maintenance/:surface.
// Flagging a surface blocks that page with a banner; it never touches
// anyone's subscription.
func (h *Handlers) SetMaintenance(c *gin.Context) {
	surface := c.Param("surface")
	if !models.IsKnownSurface(surface) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown surface"})
		return
	}

	var input SetMaintenanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flag := models.MaintenanceFlag{
		Surface:   surface,
		Enabled:   input.Enabled,
		Reason:    input.Reason,
		Message:   input.Message,
		EndTime:   input.EndTime,
		ImageURL:  input.ImageURL,
		UpdatedAt: time.Now(),
	}
	if err := h.Flags.Set(flag); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save maintenance flag"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Maintenance flag updated", "maintenance": flag})
}
