//go:build integration

package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

func TestOpenAssignsLowestAvailableSpot(t *testing.T) {
	resetTables(t)
	lot := newLot(t, 3)
	ctx := context.Background()

	u1, u2 := newUser(t, "u1"), newUser(t, "u2")
	r1, err := testDB.reservations.Open(ctx, lot.ID, u1)
	require.NoError(t, err)
	r2, err := testDB.reservations.Open(ctx, lot.ID, u2)
	require.NoError(t, err)

	// Spots are handed out lowest id first.
	assert.Less(t, r1.SpotID, r2.SpotID)

	spot, err := testDB.spots.GetByID(ctx, r1.SpotID)
	require.NoError(t, err)
	assert.Equal(t, model.SpotOccupied, spot.Status)
}

func TestOpenRejectsSecondActiveReservation(t *testing.T) {
	resetTables(t)
	lot := newLot(t, 3)
	ctx := context.Background()

	uid := newUser(t, "driver")
	r1, err := testDB.reservations.Open(ctx, lot.ID, uid)
	require.NoError(t, err)

	_, err = testDB.reservations.Open(ctx, lot.ID, uid)
	assert.ErrorIs(t, err, ErrActiveReservation)

	// After releasing, a new reservation is allowed again.
	_, err = testDB.reservations.Close(ctx, r1.ID, uid)
	require.NoError(t, err)
	_, err = testDB.reservations.Open(ctx, lot.ID, uid)
	assert.NoError(t, err)
}

// TestConcurrentOpensAcrossLotsSingleActive races one user's Opens against
// two different lots. The user row lock and the locking open-count must let
// exactly one through; without them both would pass the count from their
// snapshots and the user would end up doubly parked.
func TestConcurrentOpensAcrossLotsSingleActive(t *testing.T) {
	resetTables(t)
	lotA := newLot(t, 2)
	lotB := newLot(t, 2)
	ctx := context.Background()
	uid := newUser(t, "driver")

	const rounds = 10
	for i := 0; i < rounds; i++ {
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, lotID := range []uint64{lotA.ID, lotB.ID} {
			wg.Add(1)
			go func(j int, lotID uint64) {
				defer wg.Done()
				_, errs[j] = testDB.reservations.Open(ctx, lotID, uid)
			}(j, lotID)
		}
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
			} else {
				assert.ErrorIs(t, err, ErrActiveReservation)
			}
		}
		assert.Equal(t, 1, successes, "round %d", i)

		// Exactly one open reservation, then clean up for the next round.
		items, err := testDB.reservations.ListByUser(ctx, uid)
		require.NoError(t, err)
		active := 0
		for _, it := range items {
			if it.Active {
				active++
				_, err := testDB.reservations.Close(ctx, it.ID, uid)
				require.NoError(t, err)
			}
		}
		assert.Equal(t, 1, active, "round %d", i)
	}
}

func TestOpenUnknownUser(t *testing.T) {
	resetTables(t)
	lot := newLot(t, 1)
	_, err := testDB.reservations.Open(context.Background(), lot.ID, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestOpenFullLot(t *testing.T) {
	resetTables(t)
	lot := newLot(t, 1)
	ctx := context.Background()

	u1, u2 := newUser(t, "u1"), newUser(t, "u2")
	_, err := testDB.reservations.Open(ctx, lot.ID, u1)
	require.NoError(t, err)

	_, err = testDB.reservations.Open(ctx, lot.ID, u2)
	assert.ErrorIs(t, err, ErrNoSpotAvailable)

	// The failed attempt left no reservation behind.
	items, err := testDB.reservations.ListByUser(ctx, u2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOpenUnknownLot(t *testing.T) {
	resetTables(t)
	uid := newUser(t, "driver")
	_, err := testDB.reservations.Open(context.Background(), 9999, uid)
	assert.ErrorIs(t, err, ErrLotNotFound)
}

func TestCloseComputesCostAndFreesSpot(t *testing.T) {
	resetTables(t)
	lot := newLot(t, 2) // 20.0/hour from newLot
	ctx := context.Background()

	uid := newUser(t, "driver")
	res, err := testDB.reservations.Open(ctx, lot.ID, uid)
	require.NoError(t, err)

	closed, err := testDB.reservations.Close(ctx, res.ID, uid)
	require.NoError(t, err)
	assert.Equal(t, res.SpotID, closed.SpotID)
	assert.True(t, closed.EndTime.After(closed.StartTime) || closed.EndTime.Equal(closed.StartTime))

	// The charge matches the documented rounding of elapsed hours x rate.
	want := model.ReservationCost(closed.StartTime, closed.EndTime, 20.0)
	assert.Equal(t, want, closed.Cost)

	spot, err := testDB.spots.GetByID(ctx, res.SpotID)
	require.NoError(t, err)
	assert.Equal(t, model.SpotAvailable, spot.Status)
}

func TestCloseTwiceConflicts(t *testing.T) {
	resetTables(t)
	lot := newLot(t, 1)
	ctx := context.Background()

	uid := newUser(t, "driver")
	res, err := testDB.reservations.Open(ctx, lot.ID, uid)
	require.NoError(t, err)

	first, err := testDB.reservations.Close(ctx, res.ID, uid)
	require.NoError(t, err)

	_, err = testDB.reservations.Close(ctx, res.ID, uid)
	assert.ErrorIs(t, err, ErrAlreadyClosed)

	// The stored cost is the first close's charge, unchanged.
	detail, err := testDB.reservations.GetByIDForUser(ctx, res.ID, uid)
	require.NoError(t, err)
	require.NotNil(t, detail.Cost)
	assert.Equal(t, first.Cost, *detail.Cost)
}

func TestCloseAfterLotDeletedStillConflicts(t *testing.T) {
	resetTables(t)
	lot := newLot(t, 1)
	ctx := context.Background()

	uid := newUser(t, "driver")
	res, err := testDB.reservations.Open(ctx, lot.ID, uid)
	require.NoError(t, err)
	_, err = testDB.reservations.Close(ctx, res.ID, uid)
	require.NoError(t, err)
	require.NoError(t, testDB.lots.Delete(ctx, lot.ID))

	// The reservation row still exists, so a second release must report the
	// closed state, not a missing reservation.
	_, err = testDB.reservations.Close(ctx, res.ID, uid)
	assert.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestCloseOnlyByOwner(t *testing.T) {
	resetTables(t)
	lot := newLot(t, 2)
	ctx := context.Background()

	owner, other := newUser(t, "owner"), newUser(t, "other")
	res, err := testDB.reservations.Open(ctx, lot.ID, owner)
	require.NoError(t, err)

	_, err = testDB.reservations.Close(ctx, res.ID, other)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = testDB.reservations.Close(ctx, 9999, owner)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

// TestConcurrentReservesDistinctSpots is the double-booking regression: N
// users reserving concurrently in a lot with N spots must each get a
// different spot, with no request failing.
func TestConcurrentReservesDistinctSpots(t *testing.T) {
	resetTables(t)
	const n = 8
	lot := newLot(t, n)
	ctx := context.Background()

	userIDs := make([]uint64, n)
	for i := range userIDs {
		userIDs[i] = newUser(t, fmt.Sprintf("driver-%d", i))
	}

	var wg sync.WaitGroup
	spotCh := make(chan uint64, n)
	errCh := make(chan error, n)
	for _, uid := range userIDs {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			res, err := testDB.reservations.Open(ctx, lot.ID, uid)
			if err != nil {
				errCh <- err
				return
			}
			spotCh <- res.SpotID
		}(uid)
	}
	wg.Wait()
	close(spotCh)
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent reserve failed: %v", err)
	}
	seen := make(map[uint64]bool, n)
	for id := range spotCh {
		assert.False(t, seen[id], "spot %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	avail, err := testDB.spots.CountByStatus(ctx, lot.ID, model.SpotAvailable)
	require.NoError(t, err)
	assert.Equal(t, 0, avail)
}

// TestConcurrentReserveAndRelease hammers two tiny lots with mixed traffic
// and then checks the occupied-iff-open invariant. Opens and Closes
// interleave across both lots, so a lock-ordering slip between the two
// operations would surface here as deadlock-rollback errors from Close.
func TestConcurrentReserveAndRelease(t *testing.T) {
	resetTables(t)
	lots := []*model.ParkingLot{newLot(t, 2), newLot(t, 2)}
	ctx := context.Background()

	userIDs := make([]uint64, 6)
	for i := range userIDs {
		userIDs[i] = newUser(t, fmt.Sprintf("mixed-%d", i))
	}

	var wg sync.WaitGroup
	for n, uid := range userIDs {
		wg.Add(1)
		go func(n int, uid uint64) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				lot := lots[(n+i)%len(lots)]
				res, err := testDB.reservations.Open(ctx, lot.ID, uid)
				if err != nil {
					continue // full lot or active reservation, both fine
				}
				time.Sleep(time.Millisecond)
				if _, err := testDB.reservations.Close(ctx, res.ID, uid); err != nil {
					t.Errorf("close %d: %v", res.ID, err)
				}
			}
		}(n, uid)
	}
	wg.Wait()

	// Every spot left Occupied must have exactly one open reservation;
	// here everything was released, so all spots are Available again.
	for _, lot := range lots {
		spots, err := testDB.spots.ListByLot(ctx, lot.ID)
		require.NoError(t, err)
		for _, s := range spots {
			open, err := testDB.reservations.CountOpenForSpot(ctx, s.ID)
			require.NoError(t, err)
			if s.Status == model.SpotOccupied {
				assert.Equal(t, 1, open, "spot %d", s.ID)
			} else {
				assert.Equal(t, 0, open, "spot %d", s.ID)
			}
		}
	}
}

func TestListByUserOrdersNewestFirst(t *testing.T) {
	resetTables(t)
	lot := newLot(t, 2)
	ctx := context.Background()

	uid := newUser(t, "driver")
	r1, err := testDB.reservations.Open(ctx, lot.ID, uid)
	require.NoError(t, err)
	_, err = testDB.reservations.Close(ctx, r1.ID, uid)
	require.NoError(t, err)
	r2, err := testDB.reservations.Open(ctx, lot.ID, uid)
	require.NoError(t, err)

	items, err := testDB.reservations.ListByUser(ctx, uid)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, r2.ID, items[0].ID)
	assert.True(t, items[0].Active)
	assert.False(t, items[1].Active)
	require.NotNil(t, items[1].Cost)
}
