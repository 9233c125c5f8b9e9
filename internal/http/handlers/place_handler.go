// README: Place search and fare quotes, used before a ride is requested.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adile/internal/maps"
	"adile/internal/modules/pricing"
	"adile/internal/types"
)

type PlaceHandler struct {
	places  *maps.Searcher
	pricing *pricing.Service
}

func NewPlaceHandler(places *maps.Searcher, pricingSvc *pricing.Service) *PlaceHandler {
	return &PlaceHandler{places: places, pricing: pricingSvc}
}

func (h *PlaceHandler) Search(c *gin.Context) {
	places, err := h.places.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if places == nil {
		places = []maps.Place{}
	}
	writeJSON(c, http.StatusOK, gin.H{"places": places})
}

type quoteReq struct {
	Pickup  types.Point `json:"pickup"`
	Dropoff types.Point `json:"dropoff"`
	Vehicle string      `json:"vehicle"`
}

// Quote prices one vehicle class, or every class when none is given.
func (h *PlaceHandler) Quote(c *gin.Context) {
	var req quoteReq
	if !bindJSON(c, &req) {
		return
	}
	if !req.Pickup.Valid() || !req.Dropoff.Valid() {
		writeError(c, http.StatusBadRequest, "invalid coordinates")
		return
	}
	classes := pricing.VehicleClasses()
	if req.Vehicle != "" {
		v, err := pricing.ParseVehicleClass(req.Vehicle)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		classes = []pricing.VehicleClass{v}
	}
	quotes := make([]pricing.Quote, 0, len(classes))
	for _, v := range classes {
		q, err := h.pricing.Quote(c.Request.Context(), req.Pickup, req.Dropoff, v)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		quotes = append(quotes, q)
	}
	writeJSON(c, http.StatusOK, gin.H{"quotes": quotes})
}
