package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/0xVampirot/justZappIt/internal/http/middleware"
)

// GeocodeResponse is a single forward-geocoding hit.
type GeocodeResponse struct {
	Lat         float64 `json:"lat" example:"38.7223"`
	Lng         float64 `json:"lng" example:"-9.1393"`
	Approximate bool    `json:"approximate" example:"false"`
}

// Geocode godoc
// @ID          geocode
// @Summary     Forward-geocode an address
// @Description Proxies a free-text address query to the upstream geocoder and returns the best match.
// @Tags        Geocode
// @Produce     json
// @Param       q query string true "Free-text address query"
// @Success     200 {object} handlers.GeocodeResponse
// @Failure     400 {object} handlers.ErrorResponse "Missing query"
// @Failure     404 {object} handlers.ErrorResponse "No match"
// @Failure     500 {object} handlers.ErrorResponse "Upstream geocoder failure"
// @Router      /geocode [get]
func (h *Handlers) Geocode(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}

	res, err := h.geocoder.Search(c.Request.Context(), q)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("geocode proxy failed")
		fail(c, http.StatusInternalServerError, ErrCodeGeocodeFailed, "Geocoding service unavailable. Please try again.")
		return
	}
	if res == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no match for the given address")
		return
	}
	ok(c, http.StatusOK, GeocodeResponse{Lat: res.Lat, Lng: res.Lng, Approximate: res.Approximate})
}
