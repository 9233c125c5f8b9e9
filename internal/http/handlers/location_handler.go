// README: Driver position reports.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adile/internal/http/middleware"
	"adile/internal/modules/location"
	"adile/internal/types"
)

type LocationHandler struct {
	location *location.Service
}

func NewLocationHandler(svc *location.Service) *LocationHandler {
	return &LocationHandler{location: svc}
}

type locationUpdateReq struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// Update records the caller's own position; the driver id always comes from
// the caller identity.
func (h *LocationHandler) Update(c *gin.Context) {
	var req locationUpdateReq
	if !bindJSON(c, &req) {
		return
	}
	p := types.Point{Lat: *req.Lat, Lng: *req.Lng}
	if err := h.location.Update(c.Request.Context(), types.ID(middleware.CallerUID(c)), p); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}
