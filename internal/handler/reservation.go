package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/queue"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/parking-lot-reservation/internal/service"
)

// ReservationHandler serves the customer-facing reservation endpoints.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(reservations *repository.ReservationRepo) *ReservationHandler {
	if reservations == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations}
}

// Reserve handles POST /v1/lots/:id/reserve. The spot is chosen server
// side: the lowest-id Available spot in the lot is assigned and flipped to
// Occupied in the same transaction, so two concurrent requests can never
// end up on the same spot. A user with an open reservation anywhere is
// rejected with 409 before a spot is taken.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	lotID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	res, err := h.Reservations.Open(c.Request().Context(), lotID, userID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrLotNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, repository.ErrActiveReservation):
		return c.JSON(http.StatusConflict, echo.Map{"error": "active reservation already exists"})
	case errors.Is(err, repository.ErrNoSpotAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no spot available"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not reserve spot"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id": res.ID,
		"spot_id":        res.SpotID,
		"lot_id":         lotID,
		"start_time":     res.StartTime.Format(time.RFC3339),
	})
}

// Release handles POST /v1/reservations/:id/release. The cost is computed
// once, inside the closing transaction, from the elapsed fractional hours
// and the lot's rate at release time; a second release of the same
// reservation gets 409 and no second charge. A reservation.closed event is
// published after commit, best effort.
func (h *ReservationHandler) Release(c echo.Context) error {
	resID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	closed, err := h.Reservations.Close(c.Request().Context(), resID, userID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
	case errors.Is(err, repository.ErrAlreadyClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already released"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not release reservation"})
	}

	go func(cl repository.ClosedReservation, uid uint64) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		evt := queue.ReservationClosedEvent{
			ReservationID: cl.ReservationID,
			UserID:        uid,
			LotID:         cl.LotID,
			LotName:       cl.LotName,
			SpotID:        cl.SpotID,
			StartTime:     cl.StartTime.Format(time.RFC3339),
			EndTime:       cl.EndTime.Format(time.RFC3339),
			PricePerHour:  cl.PricePerHour,
			Cost:          cl.Cost,
		}
		if err := queue_publisher.PublishReservationClosed(ctx, evt); err != nil {
			log.Printf("publish reservation.closed %d: %v", cl.ReservationID, err)
		}
	}(*closed, userID)

	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": closed.ReservationID,
		"spot_id":        closed.SpotID,
		"start_time":     closed.StartTime.Format(time.RFC3339),
		"end_time":       closed.EndTime.Format(time.RFC3339),
		"cost":           closed.Cost,
	})
}

// ListReservations handles GET /v1/my-reservations and returns the caller's
// full history, active first.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetReservation handles GET /v1/reservations/:id for the owning user.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	resID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	detail, err := h.Reservations.GetByIDForUser(c.Request().Context(), resID, userID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, detail)
	case errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
}
