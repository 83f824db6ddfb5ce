package router

// This file registers the reservation lifecycle routes.  They are
// separate from the catalog routes to keep concerns isolated.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/amenity-reservation/internal/handler"
	"github.com/iliyamo/amenity-reservation/internal/middleware"
)

func registerReservations(g *echo.Group, h *handler.ReservationHandler) {
	g.GET("/reservations", h.ListReservations)
	g.POST("/reservations", h.CreateReservation)
	g.GET("/reservations/:id", h.GetReservation)
	g.PUT("/reservations/:id", h.UpdateReservation)
	// Removing a booking outright erases it from history; cancel instead.
	g.DELETE("/reservations/:id", h.DeleteReservation, middleware.RequireRole(middleware.RoleAdmin))

	g.GET("/reservations/:id/cancellation-fee", h.CancellationFee)
	g.POST("/reservations/:id/cancel", h.CancelReservation)
	g.POST("/reservations/:id/restore", h.RestoreReservation)
	g.POST("/reservations/:id/complete", h.CompleteReservation)
}
