package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"baches/internal/middleware"
	"baches/internal/models"
)

func (h HandlerSet) ListWorkers(c *gin.Context) {
	empty := gin.H{"workers": []models.Worker{}}
	if h.roster == nil {
		empty["error"] = "roster_requires_remote_backend"
		c.JSON(http.StatusNotImplemented, empty)
		return
	}

	sess, _ := middleware.CurrentSession(c)
	workers, err := h.roster.Workers(c.Request.Context(), sess, c.Query("q"))
	if err != nil {
		h.respondError(c, err, empty)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workers": workers, "count": len(workers)})
}

func (h HandlerSet) ListVehicles(c *gin.Context) {
	empty := gin.H{"vehicles": []models.Vehicle{}}
	if h.roster == nil {
		empty["error"] = "roster_requires_remote_backend"
		c.JSON(http.StatusNotImplemented, empty)
		return
	}

	sess, _ := middleware.CurrentSession(c)
	vehicles, err := h.roster.Vehicles(c.Request.Context(), sess, c.Query("q"))
	if err != nil {
		h.respondError(c, err, empty)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles, "count": len(vehicles)})
}
