package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/seat-reservation/internal/clock"
	"github.com/venuedesk/seat-reservation/internal/model"
)

func TestCancelReservation_RestoresCapacity(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 10, 5, showtime, 1000)
	events := &recordingEvents{}
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), events)

	r, err := coord.CreateReservation(context.Background(), 7, seats[:3], 42)
	require.NoError(t, err)
	require.Equal(t, uint32(47), ledger.capacity(7))

	err = coord.CancelReservation(context.Background(), r.ID, 42, false)

	require.NoError(t, err)
	assert.Equal(t, uint32(50), ledger.capacity(7))
	assert.Equal(t, 0, ledger.confirmedSeats(7))
	assert.Equal(t, []uint64{r.ID}, events.cancelled)

	got, err := ledger.FindReservation(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, got.Status)
	assert.Len(t, got.Claims, 3, "claims stay recorded after cancellation")
}

func TestCancelReservation_FreesSeatsForRebooking(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 10, 5, showtime, 1000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	r, err := coord.CreateReservation(context.Background(), 7, seats[:3], 42)
	require.NoError(t, err)
	require.NoError(t, coord.CancelReservation(context.Background(), r.ID, 42, false))

	// the exact seats just released are bookable by someone else
	again, err := coord.CreateReservation(context.Background(), 7, seats[:3], 43)

	require.NoError(t, err)
	assert.Equal(t, uint64(43), again.UserID)
	assert.NotEqual(t, r.ReferenceCode, again.ReferenceCode)
	assert.Equal(t, uint32(47), ledger.capacity(7))
	assert.Equal(t, 3, ledger.confirmedSeats(7))
}

func TestCancelReservation_SecondCancelNotFound(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 10, 5, showtime, 1000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	r, err := coord.CreateReservation(context.Background(), 7, seats[:2], 42)
	require.NoError(t, err)
	require.NoError(t, coord.CancelReservation(context.Background(), r.ID, 42, false))

	err = coord.CancelReservation(context.Background(), r.ID, 42, false)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	assert.True(t, IsCode(err, CodeReservationNotFound))
	assert.Equal(t, uint32(50), ledger.capacity(7), "capacity is restored exactly once")
}

func TestCancelReservation_UnknownReservation(t *testing.T) {
	coord := newTestCoordinator(newFakeLedger(), clock.NewMock(showtime), NopEvents{})

	err := coord.CancelReservation(context.Background(), 404, 42, false)

	require.Error(t, err)
	assert.True(t, IsCode(err, CodeReservationNotFound))
}

func TestCancelReservation_NotOwner(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 10, 5, showtime, 1000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	r, err := coord.CreateReservation(context.Background(), 7, seats[:2], 42)
	require.NoError(t, err)

	err = coord.CancelReservation(context.Background(), r.ID, 43, false)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindPermissionDenied))
	assert.True(t, IsCode(err, CodeNotOwner))
	assert.Equal(t, uint32(48), ledger.capacity(7))
	assert.Equal(t, 2, ledger.confirmedSeats(7))
}

func TestCancelReservation_AdminOverridesOwnership(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 10, 5, showtime, 1000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	r, err := coord.CreateReservation(context.Background(), 7, seats[:2], 42)
	require.NoError(t, err)

	err = coord.CancelReservation(context.Background(), r.ID, 1, true)

	require.NoError(t, err)
	assert.Equal(t, uint32(50), ledger.capacity(7))
}

func TestCancelReservation_PastShowing(t *testing.T) {
	// Once the showing has started cancellation is refused and the
	// ledger keeps the reservation and its capacity untouched.
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 10, 5, showtime, 1000)
	clk := clock.NewMock(showtime.Add(-time.Hour))
	coord := newTestCoordinator(ledger, clk, NopEvents{})

	r, err := coord.CreateReservation(context.Background(), 7, seats[:3], 42)
	require.NoError(t, err)

	clk.Set(showtime.Add(10 * time.Minute))
	err = coord.CancelReservation(context.Background(), r.ID, 42, false)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindStateConflict))
	assert.True(t, IsCode(err, CodePastShowing))

	assert.Equal(t, uint32(47), ledger.capacity(7))
	got, err := ledger.FindReservation(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, got.Status)
}

func TestCancelReservation_ExactlyAtStartRejected(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 10, 5, showtime, 1000)
	clk := clock.NewMock(showtime.Add(-time.Hour))
	coord := newTestCoordinator(ledger, clk, NopEvents{})

	r, err := coord.CreateReservation(context.Background(), 7, seats[:1], 42)
	require.NoError(t, err)

	clk.Set(showtime)
	err = coord.CancelReservation(context.Background(), r.ID, 42, false)

	require.Error(t, err)
	assert.True(t, IsCode(err, CodePastShowing))
}
