package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang/geo/s2"

	"baches/internal/apperr"
)

func (h HandlerSet) ReverseGeocode(c *gin.Context) {
	if h.geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "geocoding_disabled"})
		return
	}

	loc, err := parseLatLng(c.Query("lat"), c.Query("lng"))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	if !s2.LatLngFromDegrees(loc.Lat, loc.Lng).IsValid() {
		h.respondError(c, apperr.NewValidation("location", "coordinates out of range"), nil)
		return
	}

	addr, err := h.geocoder.Reverse(c.Request.Context(), loc.Lat, loc.Lng)
	if err != nil {
		h.log.Warn().Err(err).Float64("lat", loc.Lat).Float64("lng", loc.Lng).Msg("reverse geocode")
		c.JSON(http.StatusBadGateway, gin.H{"error": "geocoder_unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": loc, "address": addr})
}
