// README: App status and the admin kill switch.
package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"adile/internal/modules/appstatus"
)

const HeaderAdminKey = "X-Admin-Key"

type AppHandler struct {
	status   *appstatus.Service
	adminKey string
}

// NewAppHandler disables the admin endpoints when adminKey is empty.
func NewAppHandler(svc *appstatus.Service, adminKey string) *AppHandler {
	return &AppHandler{status: svc, adminKey: adminKey}
}

func (h *AppHandler) Status(c *gin.Context) {
	st, err := h.status.Check(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, st)
}

func (h *AppHandler) Kill(c *gin.Context) {
	if !h.authorized(c) {
		return
	}
	if err := h.status.Kill(c.Request.Context()); err != nil {
		writeDomainError(c, err)
		return
	}
	h.Status(c)
}

func (h *AppHandler) Restore(c *gin.Context) {
	if !h.authorized(c) {
		return
	}
	if err := h.status.Restore(c.Request.Context()); err != nil {
		writeDomainError(c, err)
		return
	}
	h.Status(c)
}

func (h *AppHandler) authorized(c *gin.Context) bool {
	key := c.GetHeader(HeaderAdminKey)
	if h.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.adminKey)) != 1 {
		writeError(c, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}
