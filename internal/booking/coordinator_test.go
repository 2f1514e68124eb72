package booking

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/seat-reservation/internal/clock"
	"github.com/venuedesk/seat-reservation/internal/model"
)

// showtime is the fixed start used by booking tests; the mock clock
// is positioned relative to it.
var showtime = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func newTestCoordinator(l Ledger, clk clock.Clock, events Events) *Coordinator {
	return NewCoordinator(l, NewReferenceGenerator(rand.NewSource(1)), clk, events, zerolog.Nop())
}

func TestCreateReservation_ConfirmsSeats(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 10, 10, showtime, 1500)
	events := &recordingEvents{}
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), events)

	r, err := coord.CreateReservation(context.Background(), 7, seats[:3], 42)

	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, r.Status)
	assert.Equal(t, uint64(42), r.UserID)
	assert.Equal(t, uint64(7), r.ShowingID)
	assert.Equal(t, uint64(4500), r.TotalCents, "total is price times seat count")
	require.Len(t, r.Claims, 3)
	assert.Equal(t, "A1", r.Claims[0].SeatLabel)
	assert.Equal(t, "A3", r.Claims[2].SeatLabel)

	require.Len(t, r.ReferenceCode, ReferenceLength)
	for _, ch := range r.ReferenceCode {
		assert.Contains(t, referenceAlphabet, string(ch))
	}

	assert.Equal(t, uint32(97), ledger.capacity(7))
	assert.Equal(t, 3, ledger.confirmedSeats(7))
	assert.Equal(t, []uint64{r.ID}, events.confirmed)
}

func TestCreateReservation_EmptySeatList(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addShowing(7, 1, 2, 2, showtime, 1000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	_, err := coord.CreateReservation(context.Background(), 7, nil, 42)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidInput))
	assert.True(t, IsCode(err, CodeInvalidArgument))
}

func TestCreateReservation_DuplicateSeatIDs(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 2, 2, showtime, 1000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	_, err := coord.CreateReservation(context.Background(), 7, []uint64{seats[0], seats[1], seats[0]}, 42)

	require.Error(t, err)
	assert.True(t, IsCode(err, CodeInvalidArgument))
	assert.Equal(t, 0, ledger.confirmedSeats(7))
}

func TestCreateReservation_ShowingNotFound(t *testing.T) {
	coord := newTestCoordinator(newFakeLedger(), clock.NewMock(showtime), NopEvents{})

	_, err := coord.CreateReservation(context.Background(), 99, []uint64{1}, 42)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	assert.True(t, IsCode(err, CodeShowingNotFound))
}

func TestCreateReservation_ClosesAtStartTime(t *testing.T) {
	// booking closes the instant the showing starts
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 2, 2, showtime, 1000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime), NopEvents{})

	_, err := coord.CreateReservation(context.Background(), 7, seats[:1], 42)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindStateConflict))
	assert.True(t, IsCode(err, CodeShowingInPast))
	assert.Equal(t, uint32(4), ledger.capacity(7))
}

func TestCreateReservation_UnknownSeats(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 2, 2, showtime, 1000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	_, err := coord.CreateReservation(context.Background(), 7, []uint64{seats[0], 9999, 8888}, 42)

	require.Error(t, err)
	be, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidSeats, be.Code)
	assert.Equal(t, []string{"8888", "9999"}, be.Seats, "every foreign id, ascending")
	assert.Equal(t, 0, ledger.confirmedSeats(7))
}

func TestCreateReservation_ConflictListsEveryClaimedSeat(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 10, 10, showtime, 1000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	_, err := coord.CreateReservation(context.Background(), 7, seats[:2], 1)
	require.NoError(t, err)

	// A1 and A2 are taken; the retry asks for A1, A2 and A3 and
	// must learn about both conflicts at once.
	_, err = coord.CreateReservation(context.Background(), 7, seats[:3], 2)

	require.Error(t, err)
	be, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindStateConflict, be.Kind)
	assert.Equal(t, CodeSeatAlreadyReserved, be.Code)
	assert.Equal(t, []string{"A1", "A2"}, be.Seats)
	assert.False(t, Retryable(err), "same request can never succeed")

	assert.Equal(t, uint32(98), ledger.capacity(7))
	assert.Equal(t, 2, ledger.confirmedSeats(7))
}

func TestCreateReservation_ConcurrentOverlappingRequests(t *testing.T) {
	// Two simultaneous requests for the same two seats.  Exactly
	// one wins; the other observes the winner's committed claims
	// and is told which seats are gone.
	ledger := newFakeLedger()
	seats := ledger.addShowing(7, 1, 10, 10, showtime, 1000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	target := seats[:2]
	start := make(chan struct{})
	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = coord.CreateReservation(context.Background(), 7, target, uint64(100+i))
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		be, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, CodeSeatAlreadyReserved, be.Code)
		assert.Equal(t, []string{"A1", "A2"}, be.Seats)
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, uint32(98), ledger.capacity(7))
	assert.Equal(t, 2, ledger.confirmedSeats(7))
}

func TestCreateReservation_SingleWinnerPerSeat(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(3, 9, 5, 5, showtime, 2000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	const contenders = 8
	start := make(chan struct{})
	errs := make([]error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = coord.CreateReservation(context.Background(), 3, []uint64{seats[0]}, uint64(i+1))
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.True(t, IsCode(err, CodeSeatAlreadyReserved))
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, ledger.confirmedSeats(3))
	assert.Equal(t, uint32(24), ledger.capacity(3))
}

func TestCreateReservation_ParallelDisjointBookings(t *testing.T) {
	// Disjoint seat sets never conflict, and the capacity counter
	// always equals total seats minus confirmed claims.
	ledger := newFakeLedger()
	seats := ledger.addShowing(5, 2, 4, 5, showtime, 1000)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	const bookings = 10
	start := make(chan struct{})
	errs := make([]error, bookings)
	var wg sync.WaitGroup
	for i := 0; i < bookings; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			pair := []uint64{seats[2*i], seats[2*i+1]}
			_, errs[i] = coord.CreateReservation(context.Background(), 5, pair, uint64(i+1))
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "booking %d failed", i)
	}
	assert.Equal(t, uint32(0), ledger.capacity(5))
	assert.Equal(t, 20, ledger.confirmedSeats(5))
}

func TestCreateReservation_InsufficientCapacity(t *testing.T) {
	// The counter guard fires when capacity has drifted below the
	// number of free seats; the conflict check alone cannot see it.
	ledger := newFakeLedger()
	seats := ledger.addShowing(2, 1, 2, 2, showtime, 1000)
	ledger.setCapacity(2, 1)
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	_, err := coord.CreateReservation(context.Background(), 2, seats[:2], 1)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindStateConflict))
	assert.True(t, IsCode(err, CodeInsufficientCapacity))
	assert.Equal(t, 0, ledger.confirmedSeats(2))
}

func TestCreateReservation_ReferenceExhausted(t *testing.T) {
	ledger := newFakeLedger()
	seats := ledger.addShowing(4, 1, 2, 2, showtime, 1000)
	ledger.refsAlwaysTaken = true
	coord := newTestCoordinator(ledger, clock.NewMock(showtime.Add(-time.Hour)), NopEvents{})

	_, err := coord.CreateReservation(context.Background(), 4, seats[:1], 1)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindResourceExhausted))
	assert.True(t, IsCode(err, CodeReferenceExhausted))
	assert.True(t, Retryable(err), "a retry draws fresh codes")

	// the failed transaction leaves no trace
	assert.Equal(t, uint32(4), ledger.capacity(4))
	assert.Equal(t, 0, ledger.confirmedSeats(4))
}
