package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservationCost(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		elapsed time.Duration
		rate    float64
		want    float64
	}{
		{"ninety minutes", 90 * time.Minute, 20.0, 30.0},
		{"exactly one hour", time.Hour, 15.0, 15.0},
		{"short stay still billed", 6 * time.Minute, 10.0, 1.0},
		{"rounds up", 40 * time.Minute, 10.0, 6.67},  // 6.666... -> 6.67
		{"rounds down", 20 * time.Minute, 10.0, 3.33}, // 3.333... -> 3.33
		{"zero elapsed", 0, 25.0, 0.0},
		{"multi day", 49 * time.Hour, 2.5, 122.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ReservationCost(start, start.Add(tc.elapsed), tc.rate)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestReservationActive(t *testing.T) {
	r := Reservation{StartTime: time.Now().UTC()}
	assert.True(t, r.Active())

	end := time.Now().UTC()
	r.EndTime = &end
	assert.False(t, r.Active())
}
