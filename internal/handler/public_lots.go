package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/repository"
)

// PublicHandler exposes unauthenticated browse endpoints. Responses carry
// no user data, which makes them safe to serve from the shared cache.
type PublicHandler struct {
	LotRepo *repository.LotRepo
}

func NewPublicHandler(lotRepo *repository.LotRepo) *PublicHandler {
	if lotRepo == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{LotRepo: lotRepo}
}

// BrowseLots handles GET /v1/lots. Guests can see every lot with its
// hourly rate and how many spots are free before registering.
func (h *PublicHandler) BrowseLots(c echo.Context) error {
	lots, err := h.LotRepo.ListWithOccupancy(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load lots"})
	}
	items := make([]echo.Map, 0, len(lots))
	for _, l := range lots {
		items = append(items, echo.Map{
			"id":                  l.ID,
			"prime_location_name": l.PrimeLocationName,
			"address":             l.Address,
			"pincode":             l.Pincode,
			"price_per_hour":      l.PricePerHour,
			"max_spots":           l.MaxSpots,
			"available":           l.Available,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
