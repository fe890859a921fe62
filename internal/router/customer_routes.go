package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/handler"
	"github.com/iliyamo/parking-lot-reservation/internal/middleware"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

// RegisterCustomer registers customer-scoped endpoints under /v1. All
// routes require a valid JWT and the user role. Customers can reserve a
// spot in a lot, release it and view their own reservation history.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser),
	)
	// Note: GET /v1/lots is registered on the public router so that guests
	// can browse lots and availability. Customer-specific endpoints begin
	// here.
	g.POST("/lots/:id/reserve", h.Reserve)
	g.POST("/reservations/:id/release", h.Release)
	g.GET("/reservations/:id", h.GetReservation)
	g.GET("/my-reservations", h.ListReservations)
}
