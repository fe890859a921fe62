package model

import (
	"math"
	"time"
)

// Reservation binds one user to one spot for one continuous interval.
// EndTime and Cost are null while the reservation is active and are set
// exactly once when it is released; a reservation is never deleted.
//
// Fields:
//
//	ID        – primary key identifier.
//	SpotID    – spot being occupied.
//	UserID    – user holding the spot.
//	StartTime – set at creation, immutable.
//	EndTime   – nil while active, set once at release.
//	Cost      – nil while active, computed once at release.
type Reservation struct {
	ID        uint64     // reservations.id
	SpotID    uint64     // reservations.spot_id
	UserID    uint64     // reservations.user_id
	StartTime time.Time  // reservations.start_time
	EndTime   *time.Time // reservations.end_time (nullable)
	Cost      *float64   // reservations.cost (nullable)
}

// Active reports whether the reservation is still open.
func (r *Reservation) Active() bool { return r.EndTime == nil }

// ReservationCost computes the parking charge for the interval from start
// to end at the given hourly rate. Elapsed time is converted to fractional
// hours without rounding; the final amount is rounded to two decimals with
// half-up rounding (math.Round, half away from zero — rates and durations
// are non-negative so this behaves as half-up).
func ReservationCost(start, end time.Time, pricePerHour float64) float64 {
	hours := end.Sub(start).Seconds() / 3600.0
	return math.Round(hours*pricePerHour*100) / 100
}
