package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

// ErrLotNotFound is returned when a parking lot lookup yields no rows.
var ErrLotNotFound = errors.New("parking lot not found")

// LotRepo provides methods to create, resize and delete parking lots while
// keeping each lot's spot pool consistent with its declared capacity. Every
// mutating method runs as a single transaction so a concurrent Reserve can
// never observe a half-resized lot.
type LotRepo struct {
	db *sql.DB
}

// NewLotRepo constructs a LotRepo with the given DB handle.
func NewLotRepo(db *sql.DB) *LotRepo { return &LotRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span multiple repositories.
func (r *LotRepo) DB() *sql.DB { return r.db }

// ResizeResult reports the outcome of a capacity change. Achieved can be
// larger than Requested when a shrink could not remove enough Available
// spots; the recorded capacity is always set to Achieved so the spot count
// invariant holds.
type ResizeResult struct {
	Requested int `json:"requested"`
	Achieved  int `json:"achieved"`
	Added     int `json:"added"`
	Removed   int `json:"removed"`
}

// Create inserts the lot record and exactly MaxSpots Available spots in one
// transaction. On success the lot's ID and timestamps are populated.
func (r *LotRepo) Create(ctx context.Context, lot *model.ParkingLot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const qInsert = `INSERT INTO parking_lots (prime_location_name, price_per_hour, address, pincode, max_spots)
	                 VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert,
		lot.PrimeLocationName, lot.PricePerHour, lot.Address, lot.Pincode, lot.MaxSpots)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	lot.ID = uint64(id)

	if err := insertSpotsTx(ctx, tx, lot.ID, lot.MaxSpots); err != nil {
		return err
	}

	const qSelect = `SELECT created_at, updated_at FROM parking_lots WHERE id = ?`
	if err := tx.QueryRowContext(ctx, qSelect, lot.ID).Scan(&lot.CreatedAt, &lot.UpdatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID retrieves a lot by its ID. It returns ErrLotNotFound when no row
// is found.
func (r *LotRepo) GetByID(ctx context.Context, id uint64) (*model.ParkingLot, error) {
	const q = `SELECT id, prime_location_name, price_per_hour, address, pincode, max_spots, created_at, updated_at
	           FROM parking_lots WHERE id = ?`
	var l model.ParkingLot
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&l.ID, &l.PrimeLocationName, &l.PricePerHour, &l.Address, &l.Pincode, &l.MaxSpots,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Update applies detail changes (name, rate, address, pincode) and brings
// the spot pool to newCapacity in a single transaction, so a failed resize
// never leaves the details half-applied. Callers that keep the capacity
// unchanged pass the current max_spots; the resize is then a no-op.
func (r *LotRepo) Update(ctx context.Context, lot *model.ParkingLot, newCapacity int) (ResizeResult, error) {
	out := ResizeResult{Requested: newCapacity}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockLotTx(ctx, tx, lot.ID); err != nil {
		return out, err
	}
	const q = `UPDATE parking_lots
	           SET prime_location_name = ?, price_per_hour = ?, address = ?, pincode = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q,
		lot.PrimeLocationName, lot.PricePerHour, lot.Address, lot.Pincode, lot.ID); err != nil {
		return out, err
	}
	if out, err = resizeTx(ctx, tx, lot.ID, newCapacity); err != nil {
		return out, err
	}

	if err := tx.Commit(); err != nil {
		return out, err
	}
	committed = true
	return out, nil
}

// Resize grows or shrinks a lot's spot pool to newCapacity. Growth inserts
// Available spots. Shrink deletes the lowest-id Available spots, never an
// Occupied one; when fewer Available spots exist than the shrink requires,
// the removal is capped and the recorded capacity is set to the achieved
// count so count(spots) == max_spots still holds afterwards. The lot row is
// locked for the duration of the transaction to serialize against Reserve.
func (r *LotRepo) Resize(ctx context.Context, lotID uint64, newCapacity int) (ResizeResult, error) {
	out := ResizeResult{Requested: newCapacity}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockLotTx(ctx, tx, lotID); err != nil {
		return out, err
	}
	if out, err = resizeTx(ctx, tx, lotID, newCapacity); err != nil {
		return out, err
	}

	if err := tx.Commit(); err != nil {
		return out, err
	}
	committed = true
	return out, nil
}

// lockLotTx takes the lot's row lock, the serialization point for every
// capacity-touching operation.
func lockLotTx(ctx context.Context, tx *sql.Tx, lotID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM parking_lots WHERE id = ? FOR UPDATE`, lotID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLotNotFound
	}
	return err
}

// resizeTx adjusts the spot pool and writes the achieved capacity back to
// max_spots. The caller must already hold the lot row lock.
func resizeTx(ctx context.Context, tx *sql.Tx, lotID uint64, newCapacity int) (ResizeResult, error) {
	out := ResizeResult{Requested: newCapacity}

	// Count actual rows rather than trusting max_spots, so a previously
	// diverged lot converges back to the invariant.
	var current int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_spots WHERE lot_id = ?`, lotID).Scan(&current); err != nil {
		return out, err
	}

	delta := newCapacity - current
	switch {
	case delta > 0:
		if err := insertSpotsTx(ctx, tx, lotID, delta); err != nil {
			return out, err
		}
		out.Added = delta
	case delta < 0:
		ids, err := availableSpotIDsTx(ctx, tx, lotID, -delta)
		if err != nil {
			return out, err
		}
		if len(ids) > 0 {
			q := `DELETE FROM parking_spots WHERE id IN (` + placeholders(len(ids)) + `)`
			args := make([]interface{}, len(ids))
			for i, id := range ids {
				args[i] = id
			}
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return out, err
			}
		}
		out.Removed = len(ids)
	}

	out.Achieved = current + out.Added - out.Removed
	if _, err := tx.ExecContext(ctx,
		`UPDATE parking_lots SET max_spots = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		out.Achieved, lotID); err != nil {
		return out, err
	}
	return out, nil
}

// Delete removes a lot and all of its spots. It returns ErrConflict when
// any spot is Occupied, leaving the lot untouched. The occupied check and
// the deletes run in one transaction with the lot row locked, so an
// in-flight Reserve on the same lot cannot slip between them.
func (r *LotRepo) Delete(ctx context.Context, lotID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockLotTx(ctx, tx, lotID); err != nil {
		return err
	}

	var occupied int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_spots WHERE lot_id = ? AND status = 'O'`, lotID).Scan(&occupied); err != nil {
		return err
	}
	if occupied > 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM parking_spots WHERE lot_id = ?`, lotID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = ?`, lotID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// LotOccupancy pairs a lot with its live spot counts. It backs both the
// admin listing and the public browse endpoint; counts come from a single
// grouped join instead of one query per lot.
type LotOccupancy struct {
	ID                uint64  `json:"id"`
	PrimeLocationName string  `json:"prime_location_name"`
	PricePerHour      float64 `json:"price_per_hour"`
	Address           string  `json:"address"`
	Pincode           string  `json:"pincode"`
	MaxSpots          int     `json:"max_spots"`
	Occupied          int     `json:"occupied"`
	Available         int     `json:"available"`
}

// ListWithOccupancy returns all lots with occupied/available counts in one
// query, ordered by id.
func (r *LotRepo) ListWithOccupancy(ctx context.Context) ([]LotOccupancy, error) {
	const q = `SELECT l.id, l.prime_location_name, l.price_per_hour, l.address, l.pincode, l.max_spots,
	                  COALESCE(SUM(s.status = 'O'), 0) AS occupied,
	                  COALESCE(SUM(s.status = 'A'), 0) AS available
	           FROM parking_lots l
	           LEFT JOIN parking_spots s ON s.lot_id = l.id
	           GROUP BY l.id, l.prime_location_name, l.price_per_hour, l.address, l.pincode, l.max_spots
	           ORDER BY l.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LotOccupancy, 0)
	for rows.Next() {
		var lo LotOccupancy
		if err := rows.Scan(
			&lo.ID, &lo.PrimeLocationName, &lo.PricePerHour, &lo.Address, &lo.Pincode, &lo.MaxSpots,
			&lo.Occupied, &lo.Available,
		); err != nil {
			return nil, err
		}
		out = append(out, lo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// insertSpotsTx bulk-inserts n Available spots for a lot in one statement.
func insertSpotsTx(ctx context.Context, tx *sql.Tx, lotID uint64, n int) error {
	if n <= 0 {
		return nil
	}
	query := `INSERT INTO parking_spots (lot_id, status) VALUES `
	args := make([]interface{}, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			query += ","
		}
		query += "(?, 'A')"
		args = append(args, lotID)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// availableSpotIDsTx locks and returns up to limit Available spot ids of a
// lot, lowest id first for deterministic shrink selection.
func availableSpotIDsTx(ctx context.Context, tx *sql.Tx, lotID uint64, limit int) ([]uint64, error) {
	const q = `SELECT id FROM parking_spots
	           WHERE lot_id = ? AND status = 'A'
	           ORDER BY id
	           LIMIT ?
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, lotID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// placeholders returns n comma-separated "?" marks for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
