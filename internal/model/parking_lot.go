package model

import "time"

// ParkingLot describes a facility with a fixed-size pool of spots. The
// MaxSpots field is the declared capacity and must equal the number of
// parking_spots rows belonging to the lot after every mutating operation.
//
// Fields:
//
//	ID                – primary key identifier.
//	PrimeLocationName – human readable lot name.
//	PricePerHour      – hourly rate used for cost computation.
//	Address           – street address (optional).
//	Pincode           – postal code (optional).
//	MaxSpots          – declared spot capacity.
//	CreatedAt         – creation timestamp.
//	UpdatedAt         – last update timestamp.
type ParkingLot struct {
	ID                uint64    // parking_lots.id
	PrimeLocationName string    // parking_lots.prime_location_name
	PricePerHour      float64   // parking_lots.price_per_hour
	Address           string    // parking_lots.address
	Pincode           string    // parking_lots.pincode
	MaxSpots          int       // parking_lots.max_spots
	CreatedAt         time.Time // parking_lots.created_at
	UpdatedAt         time.Time // parking_lots.updated_at
}
