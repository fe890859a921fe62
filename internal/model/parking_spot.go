package model

// Spot statuses stored in the parking_spots.status column. A spot is
// Occupied exactly while a reservation referencing it has no end time;
// only Reserve and Release flip the value.
const (
	SpotAvailable = "A"
	SpotOccupied  = "O"
)

// ParkingSpot is an individually allocatable slot belonging to exactly one
// lot. Spots are created when a lot is created or enlarged and deleted only
// while Available, to shrink a lot's capacity.
type ParkingSpot struct {
	ID     uint64 // parking_spots.id
	LotID  uint64 // parking_spots.lot_id
	Status string // parking_spots.status ('A' or 'O')
}
