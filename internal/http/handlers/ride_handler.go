// README: Passenger ride handlers: request, lookups and cancel.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adile/internal/http/middleware"
	"adile/internal/modules/dispatch"
	"adile/internal/modules/pricing"
	"adile/internal/modules/ride"
	"adile/internal/types"
)

type RideHandler struct {
	dispatch *dispatch.Service
}

func NewRideHandler(svc *dispatch.Service) *RideHandler {
	return &RideHandler{dispatch: svc}
}

type locationReq struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func (l locationReq) toLocation() ride.Location {
	return ride.Location{Address: l.Address, Point: types.Point{Lat: l.Lat, Lng: l.Lng}}
}

type requestRideReq struct {
	Pickup  locationReq `json:"pickup"`
	Dropoff locationReq `json:"dropoff"`
	Vehicle string      `json:"vehicle"`
}

func (h *RideHandler) Request(c *gin.Context) {
	var req requestRideReq
	if !bindJSON(c, &req) {
		return
	}
	vehicle, err := pricing.ParseVehicleClass(req.Vehicle)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	r, err := h.dispatch.RequestRide(c.Request.Context(), dispatch.RequestCommand{
		Passenger: middleware.Caller(c),
		Pickup:    req.Pickup.toLocation(),
		Dropoff:   req.Dropoff.toLocation(),
		Vehicle:   vehicle,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}

// Active answers 200 with {"ride": null} when the caller is idle.
func (h *RideHandler) Active(c *gin.Context) {
	r, err := h.dispatch.ActiveRide(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"ride": r})
}

func (h *RideHandler) History(c *gin.Context) {
	rides, err := h.dispatch.ListHistory(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if rides == nil {
		rides = []ride.Ride{}
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": rides})
}

// Get only shows a ride to its participants.
func (h *RideHandler) Get(c *gin.Context) {
	r, err := h.dispatch.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if !r.HasParticipant(types.ID(middleware.CallerUID(c))) {
		writeDomainError(c, ride.ErrNotParticipant)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *RideHandler) Cancel(c *gin.Context) {
	r, err := h.dispatch.CancelRide(c.Request.Context(), dispatch.CancelCommand{
		RideID: types.ID(c.Param("id")),
		Actor:  middleware.Caller(c),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}
