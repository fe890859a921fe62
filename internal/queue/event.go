// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationClosedEvent is published when a reservation is released and
// billed. It carries enough information for downstream consumers to log or
// trigger analytics without querying the primary database.
type ReservationClosedEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	UserID        uint64  `json:"user_id"`
	LotID         uint64  `json:"lot_id"`
	LotName       string  `json:"lot_name"`
	SpotID        uint64  `json:"spot_id"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	PricePerHour  float64 `json:"price_per_hour"`
	Cost          float64 `json:"cost"`
}
