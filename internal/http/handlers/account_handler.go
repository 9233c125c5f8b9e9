// README: Account handlers for signup, login, logout and the current account.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adile/internal/http/middleware"
	"adile/internal/modules/account"
	"adile/internal/modules/pricing"
)

type AccountHandler struct {
	accounts *account.Service
}

func NewAccountHandler(svc *account.Service) *AccountHandler {
	return &AccountHandler{accounts: svc}
}

type vehicleReq struct {
	Class       string `json:"class"`
	Description string `json:"description"`
	Plate       string `json:"plate"`
}

type signupReq struct {
	Email       string      `json:"email" binding:"required"`
	DisplayName string      `json:"display_name" binding:"required"`
	Role        string      `json:"role" binding:"required"`
	Phone       string      `json:"phone" binding:"required"`
	Vehicle     *vehicleReq `json:"vehicle"`
}

func (h *AccountHandler) Signup(c *gin.Context) {
	var req signupReq
	if !bindJSON(c, &req) {
		return
	}
	cmd := account.SignupCommand{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        account.Role(req.Role),
		Phone:       req.Phone,
	}
	if req.Vehicle != nil {
		class, err := pricing.ParseVehicleClass(req.Vehicle.Class)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		cmd.Vehicle = &account.Vehicle{Class: class, Description: req.Vehicle.Description, Plate: req.Vehicle.Plate}
	}
	a, err := h.accounts.Signup(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, a)
}

type loginReq struct {
	Email string `json:"email" binding:"required"`
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginReq
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.accounts.Login(c.Request.Context(), req.Email)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, a)
}

func (h *AccountHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context()); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the account behind X-Account-ID.
func (h *AccountHandler) Me(c *gin.Context) {
	writeJSON(c, http.StatusOK, middleware.Caller(c))
}
