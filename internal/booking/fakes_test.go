package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/venuedesk/seat-reservation/internal/model"
)

// In-memory store fakes.  fakeLedger reproduces the concurrency
// contract of the real store with a per-showing mutex standing in
// for the database row lock: WithShowing holds it for the whole
// callback, so concurrent calls for one showing serialize exactly
// like transactions blocking on the showing row, while calls for
// different showings proceed in parallel.  Writes are staged on the
// transaction value and applied only when the callback returns nil,
// mirroring commit and rollback.

var (
	_ Ledger     = (*fakeLedger)(nil)
	_ LedgerTx   = (*fakeLedgerTx)(nil)
	_ Schedule   = (*fakeSchedule)(nil)
	_ ScheduleTx = (*fakeScheduleTx)(nil)
	_ Events     = (*recordingEvents)(nil)
)

type fakeLedger struct {
	mu           sync.Mutex // guards the maps and counters below
	locks        map[uint64]*sync.Mutex
	showings     map[uint64]*model.Showing
	seats        map[uint64]model.Seat
	reservations map[uint64]*model.Reservation
	nextID       uint64

	// refsAlwaysTaken makes every reference code collide, driving
	// the generator into its attempt budget.
	refsAlwaysTaken bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		locks:        make(map[uint64]*sync.Mutex),
		showings:     make(map[uint64]*model.Showing),
		seats:        make(map[uint64]model.Seat),
		reservations: make(map[uint64]*model.Reservation),
	}
}

// addShowing registers a showing with a full rows x cols seat grid
// for its venue and remaining capacity rows*cols.  Seat ids are
// returned in row-major order: A1, A2, ..., B1, ...
func (l *fakeLedger) addShowing(id, venueID uint64, rows, cols int, startsAt time.Time, priceCents uint32) []uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id > l.nextID {
		l.nextID = id
	}
	l.showings[id] = &model.Showing{
		ID:                id,
		VenueID:           venueID,
		ContentID:         1,
		StartsAt:          startsAt,
		EndsAt:            startsAt.Add(2 * time.Hour),
		PriceCents:        priceCents,
		RemainingCapacity: uint32(rows * cols),
	}
	ids := make([]uint64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for n := 1; n <= cols; n++ {
			l.nextID++
			l.seats[l.nextID] = model.Seat{
				ID:         l.nextID,
				VenueID:    venueID,
				RowLabel:   string(rune('A' + r)),
				SeatNumber: uint32(n),
				SeatClass:  model.SeatClassStandard,
			}
			ids = append(ids, l.nextID)
		}
	}
	return ids
}

// setCapacity overrides the remaining capacity counter, simulating
// drift between the counter and the claim rows.
func (l *fakeLedger) setCapacity(showingID uint64, capacity uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.showings[showingID].RemainingCapacity = capacity
}

func (l *fakeLedger) capacity(showingID uint64) uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.showings[showingID].RemainingCapacity
}

// confirmedSeats counts seats held by confirmed reservations of the
// showing.
func (l *fakeLedger) confirmedSeats(showingID uint64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.reservations {
		if r.ShowingID == showingID && r.Status == model.ReservationConfirmed {
			n += len(r.Claims)
		}
	}
	return n
}

func (l *fakeLedger) WithShowing(ctx context.Context, showingID uint64, fn func(ctx context.Context, tx LedgerTx) error) error {
	l.mu.Lock()
	lock, ok := l.locks[showingID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[showingID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	l.mu.Lock()
	sh, ok := l.showings[showingID]
	if !ok {
		l.mu.Unlock()
		return NewShowingNotFound(showingID)
	}
	cp := *sh
	l.mu.Unlock()

	tx := &fakeLedgerTx{l: l, sh: cp}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if tx.created != nil {
		r := *tx.created
		l.reservations[r.ID] = &r
		l.showings[showingID].RemainingCapacity -= uint32(len(r.Claims))
	}
	if tx.cancelID != 0 {
		l.reservations[tx.cancelID].Status = model.ReservationCancelled
		l.showings[showingID].RemainingCapacity += uint32(tx.cancelClaims)
	}
	return nil
}

func (l *fakeLedger) FindReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.reservations[id]
	if !ok {
		return nil, NewReservationNotFound(id)
	}
	cp := *r
	cp.Claims = append([]model.SeatClaim(nil), r.Claims...)
	return &cp, nil
}

type fakeLedgerTx struct {
	l  *fakeLedger
	sh model.Showing

	created      *model.Reservation
	cancelID     uint64
	cancelClaims int
}

func (tx *fakeLedgerTx) Showing() *model.Showing { return &tx.sh }

func (tx *fakeLedgerTx) ResolveSeats(ctx context.Context, seatIDs []uint64) ([]model.Seat, error) {
	tx.l.mu.Lock()
	defer tx.l.mu.Unlock()
	out := make([]model.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		if s, ok := tx.l.seats[id]; ok && s.VenueID == tx.sh.VenueID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (tx *fakeLedgerTx) ClaimedSeatIDs(ctx context.Context, seatIDs []uint64) ([]uint64, error) {
	tx.l.mu.Lock()
	defer tx.l.mu.Unlock()
	held := make(map[uint64]struct{})
	for _, r := range tx.l.reservations {
		if r.ShowingID != tx.sh.ID || r.Status != model.ReservationConfirmed {
			continue
		}
		for _, cl := range r.Claims {
			held[cl.SeatID] = struct{}{}
		}
	}
	var out []uint64
	for _, id := range seatIDs {
		if _, ok := held[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (tx *fakeLedgerTx) ReferenceExists(ctx context.Context, code string) (bool, error) {
	if tx.l.refsAlwaysTaken {
		return true, nil
	}
	tx.l.mu.Lock()
	defer tx.l.mu.Unlock()
	for _, r := range tx.l.reservations {
		if r.ReferenceCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (tx *fakeLedgerTx) CreateReservation(ctx context.Context, r *model.Reservation, seats []model.Seat) error {
	tx.l.mu.Lock()
	defer tx.l.mu.Unlock()
	tx.l.nextID++
	r.ID = tx.l.nextID
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	r.Claims = make([]model.SeatClaim, len(seats))
	for i, s := range seats {
		tx.l.nextID++
		r.Claims[i] = model.SeatClaim{
			ID:            tx.l.nextID,
			ReservationID: r.ID,
			ShowingID:     tx.sh.ID,
			SeatID:        s.ID,
			SeatLabel:     s.Label(),
			SeatClass:     s.SeatClass,
			CreatedAt:     r.CreatedAt,
		}
	}
	tx.created = r
	return nil
}

func (tx *fakeLedgerTx) ReservationForUpdate(ctx context.Context, id uint64) (*model.Reservation, error) {
	tx.l.mu.Lock()
	defer tx.l.mu.Unlock()
	r, ok := tx.l.reservations[id]
	if !ok || r.ShowingID != tx.sh.ID {
		return nil, NewReservationNotFound(id)
	}
	cp := *r
	cp.Claims = append([]model.SeatClaim(nil), r.Claims...)
	return &cp, nil
}

func (tx *fakeLedgerTx) CancelReservation(ctx context.Context, id uint64, claims int) error {
	tx.cancelID = id
	tx.cancelClaims = claims
	return nil
}

// fakeSchedule serializes all venue transactions behind one mutex;
// schedule tests are single-goroutine, so per-venue locking is not
// needed.  Transaction methods touch the maps directly because the
// mutex is held for the whole callback.
type fakeSchedule struct {
	mu        sync.Mutex
	venues    map[uint64]*model.Venue
	contents  map[uint64]*model.Content
	showings  map[uint64]*model.Showing
	confirmed map[uint64]int
	nextID    uint64
}

func newFakeSchedule() *fakeSchedule {
	return &fakeSchedule{
		venues:    make(map[uint64]*model.Venue),
		contents:  make(map[uint64]*model.Content),
		showings:  make(map[uint64]*model.Showing),
		confirmed: make(map[uint64]int),
	}
}

func (s *fakeSchedule) addVenue(id uint64, capacity uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.nextID {
		s.nextID = id
	}
	s.venues[id] = &model.Venue{ID: id, Name: "venue", Capacity: capacity}
}

func (s *fakeSchedule) addContent(id uint64, durationMin uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.nextID {
		s.nextID = id
	}
	s.contents[id] = &model.Content{ID: id, Title: "content", DurationMin: durationMin}
}

func (s *fakeSchedule) addShowing(id, venueID, contentID uint64, start time.Time, durationMin uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.nextID {
		s.nextID = id
	}
	s.showings[id] = &model.Showing{
		ID:        id,
		VenueID:   venueID,
		ContentID: contentID,
		StartsAt:  start,
		EndsAt:    start.Add(time.Duration(durationMin) * time.Minute),
	}
}

func (s *fakeSchedule) setConfirmed(showingID uint64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmed[showingID] = n
}

func (s *fakeSchedule) showing(id uint64) (model.Showing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.showings[id]
	if !ok {
		return model.Showing{}, false
	}
	return *sh, true
}

func (s *fakeSchedule) WithVenue(ctx context.Context, venueID uint64, fn func(ctx context.Context, tx ScheduleTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[venueID]
	if !ok {
		return NewVenueNotFound(venueID)
	}
	tx := &fakeScheduleTx{s: s, venue: *v}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if tx.created != nil {
		cp := *tx.created
		s.showings[cp.ID] = &cp
	}
	if tx.updated != nil {
		cp := *tx.updated
		s.showings[cp.ID] = &cp
	}
	if tx.deleted != 0 {
		delete(s.showings, tx.deleted)
	}
	return nil
}

func (s *fakeSchedule) FindShowing(ctx context.Context, id uint64) (*model.Showing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.showings[id]
	if !ok {
		return nil, NewShowingNotFound(id)
	}
	cp := *sh
	return &cp, nil
}

type fakeScheduleTx struct {
	s     *fakeSchedule
	venue model.Venue

	created *model.Showing
	updated *model.Showing
	deleted uint64
}

func (tx *fakeScheduleTx) Venue() *model.Venue { return &tx.venue }

func (tx *fakeScheduleTx) Content(ctx context.Context, id uint64) (*model.Content, error) {
	c, ok := tx.s.contents[id]
	if !ok {
		return nil, NewContentNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (tx *fakeScheduleTx) Overlapping(ctx context.Context, start, end time.Time, excludeID uint64) ([]model.Showing, error) {
	var out []model.Showing
	for _, sh := range tx.s.showings {
		if sh.VenueID != tx.venue.ID || sh.ID == excludeID {
			continue
		}
		if Overlaps(sh.StartsAt, sh.EndsAt, start, end) {
			out = append(out, *sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *fakeScheduleTx) ShowingForUpdate(ctx context.Context, id uint64) (*model.Showing, error) {
	sh, ok := tx.s.showings[id]
	if !ok || sh.VenueID != tx.venue.ID {
		return nil, NewShowingNotFound(id)
	}
	cp := *sh
	return &cp, nil
}

func (tx *fakeScheduleTx) ConfirmedReservations(ctx context.Context, showingID uint64) (int, error) {
	return tx.s.confirmed[showingID], nil
}

func (tx *fakeScheduleTx) CreateShowing(ctx context.Context, sh *model.Showing) error {
	tx.s.nextID++
	sh.ID = tx.s.nextID
	sh.CreatedAt = time.Now().UTC()
	sh.UpdatedAt = sh.CreatedAt
	tx.created = sh
	return nil
}

func (tx *fakeScheduleTx) UpdateShowing(ctx context.Context, sh *model.Showing) error {
	sh.UpdatedAt = time.Now().UTC()
	tx.updated = sh
	return nil
}

func (tx *fakeScheduleTx) DeleteShowing(ctx context.Context, id uint64) error {
	tx.deleted = id
	return nil
}

// recordingEvents captures post-commit notifications.
type recordingEvents struct {
	mu        sync.Mutex
	confirmed []uint64
	cancelled []uint64
}

func (e *recordingEvents) ReservationConfirmed(_ context.Context, r *model.Reservation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.confirmed = append(e.confirmed, r.ID)
}

func (e *recordingEvents) ReservationCancelled(_ context.Context, r *model.Reservation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelled = append(e.cancelled, r.ID)
}
