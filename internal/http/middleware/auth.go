// README: Caller identity. The X-Account-ID header is trusted and resolved
// to an account; there is no credential check.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"adile/internal/modules/account"
	"adile/internal/types"
)

const (
	HeaderAccountID = "X-Account-ID"

	callerKey = "caller"
)

type AccountResolver interface {
	Get(ctx context.Context, id types.ID) (account.Account, error)
}

// Auth rejects requests without a known account with 401.
func Auth(accounts AccountResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderAccountID)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + HeaderAccountID})
			return
		}
		a, err := accounts.Get(c.Request.Context(), types.ID(id))
		if errors.Is(err, account.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Set(callerKey, a)
		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(role account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerRole(c) != string(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: " + string(role) + " role required"})
			return
		}
		c.Next()
	}
}

func Caller(c *gin.Context) account.Account {
	v, ok := c.Get(callerKey)
	if !ok {
		return account.Account{}
	}
	a, _ := v.(account.Account)
	return a
}

func CallerUID(c *gin.Context) string {
	return string(Caller(c).ID)
}

func CallerRole(c *gin.Context) string {
	return string(Caller(c).Role)
}
