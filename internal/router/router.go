package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/amenity-reservation/internal/handler"    // handlers that call into the scheduling engine
	"github.com/iliyamo/amenity-reservation/internal/middleware" // JWT, role, rate-limit and cache middleware
)

// Handlers bundles everything the API serves.
type Handlers struct {
	Health       echo.HandlerFunc
	Items        *handler.ItemHandler
	Reservations *handler.ReservationHandler
	Quotes       *handler.QuoteHandler
}

// Options carries the shared middleware.  RateLimit and Cache may be nil.
type Options struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterRoutes mounts the health check and every /v1 endpoint.  All /v1
// routes require a staff token; deleting a reservation additionally needs
// the admin role.
func RegisterRoutes(e *echo.Echo, h Handlers, opts Options) {
	// Load balancers probe this without a token.
	e.GET("/healthz", h.Health)

	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(opts.JWTSecret),
		middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin),
	}
	if opts.RateLimit != nil {
		mw = append(mw, opts.RateLimit)
	}
	if opts.Cache != nil {
		mw = append(mw, opts.Cache)
	}
	g := e.Group("/v1", mw...)

	registerItems(g, h.Items)
	registerReservations(g, h.Reservations)
	registerQuotes(g, h.Quotes)
}
