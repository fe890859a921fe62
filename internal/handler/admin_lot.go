package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
)

// AdminHandler bundles the repositories administrators need to manage
// parking lots. Role enforcement happens in middleware; these handlers
// assume the caller is an admin.
type AdminHandler struct {
	LotRepo  *repository.LotRepo
	SpotRepo *repository.SpotRepo
}

// NewAdminHandler constructs an AdminHandler and panics if any dependency is nil.
func NewAdminHandler(lotRepo *repository.LotRepo, spotRepo *repository.SpotRepo) *AdminHandler {
	if lotRepo == nil || spotRepo == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{LotRepo: lotRepo, SpotRepo: spotRepo}
}

type lotReq struct {
	PrimeLocationName string   `json:"prime_location_name"`
	PricePerHour      *float64 `json:"price_per_hour"`
	Address           string   `json:"address"`
	Pincode           string   `json:"pincode"`
	MaxSpots          *int     `json:"max_spots"`
}

// CreateLot handles POST /v1/admin/lots. It creates the lot record and its
// full pool of Available spots in one transaction. The rate and capacity
// must parse as positive numbers or the request is rejected with 400.
func (h *AdminHandler) CreateLot(c echo.Context) error {
	var body lotReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.PrimeLocationName = strings.TrimSpace(body.PrimeLocationName)
	if body.PrimeLocationName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prime_location_name is required"})
	}
	if body.PricePerHour == nil || *body.PricePerHour <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_per_hour must be a positive number"})
	}
	if body.MaxSpots == nil || *body.MaxSpots <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_spots must be a positive integer"})
	}

	lot := &model.ParkingLot{
		PrimeLocationName: body.PrimeLocationName,
		PricePerHour:      *body.PricePerHour,
		Address:           strings.TrimSpace(body.Address),
		Pincode:           strings.TrimSpace(body.Pincode),
		MaxSpots:          *body.MaxSpots,
	}
	if err := h.LotRepo.Create(c.Request().Context(), lot); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create lot"})
	}
	return c.JSON(http.StatusCreated, lotResp(lot))
}

// UpdateLot handles PUT /v1/admin/lots/:id. Name, rate, address and pincode
// are updated in place; a changed max_spots triggers a capacity resize that
// adds Available spots or removes them (never an Occupied one). When a
// shrink cannot remove enough Available spots it is capped at the
// achievable amount so the spot count invariant holds; the response carries
// the achieved capacity and the divergence is logged.
func (h *AdminHandler) UpdateLot(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body lotReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PricePerHour != nil && *body.PricePerHour <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_per_hour must be a positive number"})
	}
	if body.MaxSpots != nil && *body.MaxSpots < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_spots must not be negative"})
	}

	ctx := c.Request().Context()
	cur, err := h.LotRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	if name := strings.TrimSpace(body.PrimeLocationName); name != "" {
		cur.PrimeLocationName = name
	}
	if body.PricePerHour != nil {
		cur.PricePerHour = *body.PricePerHour
	}
	if strings.TrimSpace(body.Address) != "" {
		cur.Address = strings.TrimSpace(body.Address)
	}
	if strings.TrimSpace(body.Pincode) != "" {
		cur.Pincode = strings.TrimSpace(body.Pincode)
	}
	capacity := cur.MaxSpots
	if body.MaxSpots != nil {
		capacity = *body.MaxSpots
	}

	// Details and capacity commit together; a failed resize rolls the
	// detail changes back too.
	res, err := h.LotRepo.Update(ctx, cur, capacity)
	if err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update lot"})
	}
	if res.Achieved != res.Requested {
		log.Printf("lot %d: shrink to %d capped at %d (occupied spots kept)", id, res.Requested, res.Achieved)
	}
	cur.MaxSpots = res.Achieved

	resp := lotResp(cur)
	if body.MaxSpots != nil {
		resp["resize"] = res
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteLot handles DELETE /v1/admin/lots/:id. A lot with any Occupied
// spot cannot be deleted; the conflict leaves the lot and all its spots
// unchanged.
func (h *AdminHandler) DeleteLot(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	switch err := h.LotRepo.Delete(c.Request().Context(), id); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrLotNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "occupied spots exist"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete lot"})
	}
}

// ListLots handles GET /v1/admin/lots. Occupancy counts for every lot come
// from a single grouped join rather than one query per lot.
func (h *AdminHandler) ListLots(c echo.Context) error {
	lots, err := h.LotRepo.ListWithOccupancy(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load lots"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": lots})
}

// ListSpots handles GET /v1/admin/lots/:id/spots and returns the lot's
// spots with their statuses, ordered by id.
func (h *AdminHandler) ListSpots(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.LotRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	spots, err := h.SpotRepo.ListByLot(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load spots"})
	}
	items := make([]echo.Map, 0, len(spots))
	for _, s := range spots {
		items = append(items, echo.Map{"id": s.ID, "lot_id": s.LotID, "status": s.Status})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// lotResp shapes a lot for JSON responses.
func lotResp(l *model.ParkingLot) echo.Map {
	return echo.Map{
		"id":                  l.ID,
		"prime_location_name": l.PrimeLocationName,
		"price_per_hour":      l.PricePerHour,
		"address":             l.Address,
		"pincode":             l.Pincode,
		"max_spots":           l.MaxSpots,
	}
}
