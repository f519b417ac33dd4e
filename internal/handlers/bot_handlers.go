package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mozsignals/mozsignals-api/internal/middleware"
	"github.com/mozsignals/mozsignals-api/internal/models"
)

//
// --- Bot Surface Entry ---
//

// EnterBotSurface is the handler for GET /v1/bots/:surface.
// Every bot page entry re-runs the Access Gate for that surface. An
// active subscriber gets the go-ahead plus the maintenance overlay when
// the surface is flagged; the page content itself lives in the
// front-end.
func (h *Handlers) EnterBotSurface(c *gin.Context) {
	surface := c.Param("surface")
	if !models.IsKnownSurface(surface) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown surface"})
		return
	}

	accountID_raw, _ := c.Get(middleware.CtxAccountID)
	accountID := accountID_raw.(int64)

	out := h.Gate.Check(accountID, surface, time.Now())
	if !middleware.RespondForOutcome(c, out) {
		return
	}

	response := gin.H{
		"surface": surface,
		"access":  "granted",
	}
	if out.Maintenance != nil {
		response["maintenance"] = out.Maintenance
	}

	c.JSON(http.StatusOK, response)
}
