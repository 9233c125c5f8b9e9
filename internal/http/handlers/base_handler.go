// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"adile/internal/modules/account"
	"adile/internal/modules/dispatch"
	"adile/internal/modules/ledger"
	"adile/internal/modules/location"
	"adile/internal/modules/pricing"
	"adile/internal/modules/ride"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeDomainError maps module errors to status codes. Anything unknown is
// recorded on the context for the logging middleware and hidden as a 500.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrInvalidLocation),
		errors.Is(err, location.ErrInvalidPoint),
		errors.Is(err, pricing.ErrUnknownVehicle),
		errors.Is(err, account.ErrInvalidProfile):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrNotParticipant),
		errors.Is(err, dispatch.ErrWrongRole):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, account.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrInvalidTransition),
		errors.Is(err, dispatch.ErrRideUnavailable),
		errors.Is(err, dispatch.ErrActiveRide),
		errors.Is(err, dispatch.ErrConflict),
		errors.Is(err, ledger.ErrDuplicateID),
		errors.Is(err, account.ErrEmailTaken):
		writeError(c, http.StatusConflict, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// bindJSON writes the 400 itself and reports whether the handler may go on.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return false
	}
	return true
}
