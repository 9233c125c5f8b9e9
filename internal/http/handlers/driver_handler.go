// README: Driver handlers for nearby open rides, accept and advance.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"adile/internal/http/middleware"
	"adile/internal/modules/dispatch"
	"adile/internal/modules/matching"
	"adile/internal/types"
)

type DriverHandler struct {
	dispatch *dispatch.Service
	matching *matching.Service
}

func NewDriverHandler(dispatchSvc *dispatch.Service, matchingSvc *matching.Service) *DriverHandler {
	return &DriverHandler{dispatch: dispatchSvc, matching: matchingSvc}
}

// ListOpen takes an optional lat/lng pair; without it the driver's last
// reported position is used.
func (h *DriverHandler) ListOpen(c *gin.Context) {
	var origin *types.Point
	if lat, lng := c.Query("lat"), c.Query("lng"); lat != "" || lng != "" {
		p, ok := parsePoint(lat, lng)
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid lat/lng")
			return
		}
		origin = &p
	}
	candidates, err := h.matching.Nearby(c.Request.Context(), types.ID(middleware.CallerUID(c)), origin)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if candidates == nil {
		candidates = []matching.Candidate{}
	}
	writeJSON(c, http.StatusOK, gin.H{"radius_km": h.matching.RadiusKm(), "rides": candidates})
}

func (h *DriverHandler) Accept(c *gin.Context) {
	r, err := h.dispatch.AcceptRide(c.Request.Context(), dispatch.AcceptCommand{
		RideID: types.ID(c.Param("id")),
		Driver: middleware.Caller(c),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *DriverHandler) Advance(c *gin.Context) {
	r, err := h.dispatch.AdvanceRide(c.Request.Context(), dispatch.AdvanceCommand{
		RideID: types.ID(c.Param("id")),
		Actor:  middleware.Caller(c),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func parsePoint(lat, lng string) (types.Point, bool) {
	la, err1 := strconv.ParseFloat(lat, 64)
	ln, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil {
		return types.Point{}, false
	}
	p := types.Point{Lat: la, Lng: ln}
	return p, p.Valid()
}
