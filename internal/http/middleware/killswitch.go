package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"adile/internal/modules/appstatus"
)

type StatusChecker interface {
	Check(ctx context.Context) (appstatus.Status, error)
}

// KillSwitch answers 503 while the application is remotely disabled. A
// failing status store lets traffic through.
func KillSwitch(status StatusChecker, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := status.Check(c.Request.Context())
		if err != nil {
			log.WithError(err).Warn("app status check failed")
		}
		if !st.Active {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": st.Message})
			return
		}
		c.Next()
	}
}
