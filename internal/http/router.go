// README: HTTP route registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adile/internal/http/handlers"
	"adile/internal/http/middleware"
	"adile/internal/modules/account"
)

// Routes builds the engine. Health, metrics, app status and admin stay
// reachable while the kill switch is on; everything under /api otherwise
// passes through it.
func (s *Server) Routes() *gin.Engine {
	d := s.deps
	r := gin.New()
	r.Use(middleware.Recovery(d.Log), middleware.Logging(d.Log), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	appHandler := handlers.NewAppHandler(d.AppStatus, d.AdminKey)
	r.GET("/api/app/status", appHandler.Status)
	admin := r.Group("/api/admin")
	admin.POST("/kill", appHandler.Kill)
	admin.POST("/restore", appHandler.Restore)

	api := r.Group("/api", middleware.KillSwitch(d.AppStatus, d.Log))

	accountHandler := handlers.NewAccountHandler(d.Accounts)
	accounts := api.Group("/accounts")
	accounts.POST("/signup", accountHandler.Signup)
	accounts.POST("/login", accountHandler.Login)
	accounts.POST("/logout", accountHandler.Logout)
	accounts.GET("/me", middleware.Auth(d.Accounts), accountHandler.Me)

	placeHandler := handlers.NewPlaceHandler(d.Places, d.Pricing)
	api.GET("/places/search", placeHandler.Search)
	api.POST("/quotes", placeHandler.Quote)

	authed := api.Group("", middleware.Auth(d.Accounts))

	rideHandler := handlers.NewRideHandler(d.Dispatch)
	rides := authed.Group("/rides")
	rides.POST("", middleware.RequireRole(account.RolePassenger), rideHandler.Request)
	rides.GET("/active", rideHandler.Active)
	rides.GET("/history", rideHandler.History)
	rides.GET("/:id", rideHandler.Get)
	rides.POST("/:id/cancel", rideHandler.Cancel)

	driverHandler := handlers.NewDriverHandler(d.Dispatch, d.Matching)
	locationHandler := handlers.NewLocationHandler(d.Location)
	driver := authed.Group("/driver", middleware.RequireRole(account.RoleDriver))
	driver.GET("/rides/open", driverHandler.ListOpen)
	driver.POST("/rides/:id/accept", driverHandler.Accept)
	driver.POST("/rides/:id/advance", driverHandler.Advance)
	driver.PUT("/location", locationHandler.Update)

	return r
}
