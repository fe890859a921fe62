package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/handler"
	"github.com/iliyamo/parking-lot-reservation/internal/middleware"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

// RegisterAdmin registers admin-scoped lot management endpoints under
// /v1/admin. All routes require a valid JWT and the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Lots ----
	g.POST("/lots", a.CreateLot)
	g.GET("/lots", a.ListLots)
	g.PUT("/lots/:id", a.UpdateLot)
	g.PATCH("/lots/:id", a.UpdateLot) // partial updates use the same handler
	g.DELETE("/lots/:id", a.DeleteLot)

	// ---- Spots ----
	g.GET("/lots/:id/spots", a.ListSpots)
}
