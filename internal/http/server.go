// README: API gateway; builds the gin engine and delegates to module services.
package http

import (
	"github.com/sirupsen/logrus"

	"adile/internal/maps"
	"adile/internal/modules/account"
	"adile/internal/modules/appstatus"
	"adile/internal/modules/dispatch"
	"adile/internal/modules/location"
	"adile/internal/modules/matching"
	"adile/internal/modules/pricing"
)

type ServerDeps struct {
	Accounts  *account.Service
	Dispatch  *dispatch.Service
	Matching  *matching.Service
	Location  *location.Service
	Pricing   *pricing.Service
	Places    *maps.Searcher
	AppStatus *appstatus.Service
	AdminKey  string
	Log       logrus.FieldLogger
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	return &Server{deps: deps}
}
