package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

// ErrSpotNotFound is returned when a spot lookup yields no rows.
var ErrSpotNotFound = errors.New("parking spot not found")

// SpotRepo provides read access to parking spots. Spot rows are created and
// deleted by LotRepo (capacity management) and flipped between Available and
// Occupied by ReservationRepo; no other code path writes spot status.
type SpotRepo struct {
	db *sql.DB
}

// NewSpotRepo constructs a SpotRepo with the given DB handle.
func NewSpotRepo(db *sql.DB) *SpotRepo { return &SpotRepo{db: db} }

// ListByLot retrieves all spots of a lot ordered by id.
func (r *SpotRepo) ListByLot(ctx context.Context, lotID uint64) ([]model.ParkingSpot, error) {
	const q = `SELECT id, lot_id, status FROM parking_spots WHERE lot_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ParkingSpot
	for rows.Next() {
		var s model.ParkingSpot
		if err := rows.Scan(&s.ID, &s.LotID, &s.Status); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID retrieves a single spot.
func (r *SpotRepo) GetByID(ctx context.Context, id uint64) (*model.ParkingSpot, error) {
	const q = `SELECT id, lot_id, status FROM parking_spots WHERE id = ?`
	var s model.ParkingSpot
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.LotID, &s.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSpotNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CountByStatus returns how many spots of a lot carry the given status.
func (r *SpotRepo) CountByStatus(ctx context.Context, lotID uint64, status string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_spots WHERE lot_id = ? AND status = ?`,
		lotID, status).Scan(&n)
	return n, err
}
