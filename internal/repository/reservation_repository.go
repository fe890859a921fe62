package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

// ErrReservationNotFound is returned when a reservation lookup yields no rows.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrNoSpotAvailable is returned by Open when every spot of the lot is
// Occupied. Handlers should translate this into an HTTP 409 response.
var ErrNoSpotAvailable = errors.New("no available spots")

// ErrActiveReservation is returned by Open when the user already holds an
// open reservation. The service enforces at most one active reservation per
// user.
var ErrActiveReservation = errors.New("user already has an active reservation")

// ErrAlreadyClosed is returned by Close when the reservation's end time is
// already set. This makes a second Release a no-op conflict instead of a
// double charge.
var ErrAlreadyClosed = errors.New("reservation already closed")

// ReservationRepo owns the reservation lifecycle: assigning the first
// Available spot of a lot to a user and releasing it with cost computation.
// Open and Close each run as one transaction with row locks so two
// concurrent calls can never be granted the same spot or close the same
// reservation twice. All timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for callers that need it.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// Open assigns the lowest-id Available spot of the lot to the user and
// creates an active reservation with start_time = now. Locks are taken in
// a fixed order shared with Close: user row, then reservations, then the
// lot row, then the spot. The user row lock serializes same-user Opens
// across different lots, so the one-active-reservation check cannot be
// raced; the lot row lock serializes Open against Resize and Delete; the
// spot row lock closes the double-booking race between concurrent Opens.
//
// Failure modes: ErrUserNotFound, ErrActiveReservation, ErrLotNotFound,
// ErrNoSpotAvailable.
func (r *ReservationRepo) Open(ctx context.Context, lotID, userID uint64) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var id uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ? FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Locking read: a plain COUNT would come from the tx snapshot and miss
	// a reservation committed while we waited on the user row.
	var open int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE user_id = ? AND end_time IS NULL FOR UPDATE`, userID).Scan(&open); err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, ErrActiveReservation
	}

	err = tx.QueryRowContext(ctx, `SELECT id FROM parking_lots WHERE id = ? FOR UPDATE`, lotID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}

	var spotID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM parking_spots
		 WHERE lot_id = ? AND status = 'A'
		 ORDER BY id
		 LIMIT 1
		 FOR UPDATE`, lotID).Scan(&spotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSpotAvailable
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE parking_spots SET status = 'O' WHERE id = ?`, spotID); err != nil {
		return nil, err
	}

	start := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (spot_id, user_id, start_time) VALUES (?, ?, ?)`,
		spotID, userID, start)
	if err != nil {
		return nil, err
	}
	resID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return &model.Reservation{
		ID:        uint64(resID),
		SpotID:    spotID,
		UserID:    userID,
		StartTime: start,
	}, nil
}

// ClosedReservation carries the outcome of a Close along with the lot
// details needed for the response and the reservation.closed event.
type ClosedReservation struct {
	ReservationID uint64
	SpotID        uint64
	LotID         uint64
	LotName       string
	PricePerHour  float64
	StartTime     time.Time
	EndTime       time.Time
	Cost          float64
}

// Close releases the reservation: it sets end_time = now, computes the cost
// from the elapsed fractional hours and the lot's hourly rate, and flips
// the spot back to Available, all in one transaction. The reservation row
// is locked alone first, so a concurrent second Close observes the end
// time and fails with ErrAlreadyClosed instead of charging twice, and an
// already-closed reservation is still reported as such after its lot was
// deleted. The lot row is then locked before the spot is touched, the same
// order Open and Resize use.
//
// Failure modes: ErrReservationNotFound, ErrForbidden (not the caller's
// reservation), ErrAlreadyClosed.
func (r *ReservationRepo) Close(ctx context.Context, reservationID, userID uint64) (*ClosedReservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		ownerID uint64
		out     ClosedReservation
		endTime sql.NullTime
	)
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, spot_id, start_time, end_time FROM reservations WHERE id = ? FOR UPDATE`,
		reservationID).Scan(&ownerID, &out.SpotID, &out.StartTime, &endTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}
	if endTime.Valid {
		return nil, ErrAlreadyClosed
	}

	// The reservation is open, so its spot exists and its lot cannot be
	// mid-delete (an occupied spot blocks Delete). Resolve the lot id with
	// a plain read, then lock the lot row before the spot update.
	if err := tx.QueryRowContext(ctx,
		`SELECT lot_id FROM parking_spots WHERE id = ?`, out.SpotID).Scan(&out.LotID); err != nil {
		return nil, err
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT prime_location_name, price_per_hour FROM parking_lots WHERE id = ? FOR UPDATE`,
		out.LotID).Scan(&out.LotName, &out.PricePerHour); err != nil {
		return nil, err
	}

	out.ReservationID = reservationID
	out.EndTime = time.Now().UTC()
	out.Cost = model.ReservationCost(out.StartTime, out.EndTime, out.PricePerHour)

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET end_time = ?, cost = ? WHERE id = ?`,
		out.EndTime, out.Cost, reservationID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE parking_spots SET status = 'A' WHERE id = ?`, out.SpotID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &out, nil
}

// ReservationDetail is a reservation row joined with its lot for display to
// customers. EndTime and Cost are nil while the reservation is active.
type ReservationDetail struct {
	ID        uint64   `json:"id"`
	SpotID    uint64   `json:"spot_id"`
	LotID     uint64   `json:"lot_id"`
	LotName   string   `json:"lot_name"`
	StartTime string   `json:"start_time"`
	EndTime   *string  `json:"end_time,omitempty"`
	Cost      *float64 `json:"cost,omitempty"`
	Active    bool     `json:"active"`
}

// ListByUser returns all reservations of the user, newest first, with lot
// names resolved in the same query. When no reservations exist an empty
// slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	// LEFT JOINs keep closed reservations visible after their lot (and its
	// spots) have been deleted; the lot columns come back NULL in that case.
	const q = `SELECT res.id, res.spot_id, res.start_time, res.end_time, res.cost,
	                  l.id, l.prime_location_name
	           FROM reservations res
	           LEFT JOIN parking_spots s ON s.id = res.spot_id
	           LEFT JOIN parking_lots l ON l.id = s.lot_id
	           WHERE res.user_id = ?
	           ORDER BY res.start_time DESC, res.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var (
			d       ReservationDetail
			start   time.Time
			endTime sql.NullTime
			cost    sql.NullFloat64
			lotID   sql.NullInt64
			lotName sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.SpotID, &start, &endTime, &cost, &lotID, &lotName); err != nil {
			return nil, err
		}
		if lotID.Valid {
			d.LotID = uint64(lotID.Int64)
		}
		d.LotName = lotName.String
		d.StartTime = start.UTC().Format(time.RFC3339)
		if endTime.Valid {
			iso := endTime.Time.UTC().Format(time.RFC3339)
			d.EndTime = &iso
		}
		if cost.Valid {
			c := cost.Float64
			d.Cost = &c
		}
		d.Active = !endTime.Valid
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// GetByIDForUser returns a single reservation of the user. It returns
// ErrReservationNotFound when the row does not exist and ErrForbidden when
// it belongs to a different user.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, reservationID, userID uint64) (*ReservationDetail, error) {
	const q = `SELECT res.id, res.user_id, res.spot_id, res.start_time, res.end_time, res.cost,
	                  l.id, l.prime_location_name
	           FROM reservations res
	           LEFT JOIN parking_spots s ON s.id = res.spot_id
	           LEFT JOIN parking_lots l ON l.id = s.lot_id
	           WHERE res.id = ?`
	var (
		d       ReservationDetail
		ownerID uint64
		start   time.Time
		endTime sql.NullTime
		cost    sql.NullFloat64
		lotID   sql.NullInt64
		lotName sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, reservationID).Scan(
		&d.ID, &ownerID, &d.SpotID, &start, &endTime, &cost, &lotID, &lotName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}
	if lotID.Valid {
		d.LotID = uint64(lotID.Int64)
	}
	d.LotName = lotName.String
	d.StartTime = start.UTC().Format(time.RFC3339)
	if endTime.Valid {
		iso := endTime.Time.UTC().Format(time.RFC3339)
		d.EndTime = &iso
	}
	if cost.Valid {
		c := cost.Float64
		d.Cost = &c
	}
	d.Active = !endTime.Valid
	return &d, nil
}

// CountOpenForSpot reports how many reservations reference the spot with no
// end time. Used by tests to assert the occupancy invariant.
func (r *ReservationRepo) CountOpenForSpot(ctx context.Context, spotID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE spot_id = ? AND end_time IS NULL`, spotID).Scan(&n)
	return n, err
}
