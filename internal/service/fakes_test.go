package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// memSeat is the per-showtime state of one seat.
type memSeat struct {
	row, col int
	status   string
	booking  uint64
}

// memBookings is an in-memory BookingStore and ShowtimeStore.  Every
// transition is a compare-and-set under one mutex, which is what the
// MySQL store guarantees with row locks.
type memBookings struct {
	mu        sync.Mutex
	showtimes map[uint64]model.Showtime
	seats     map[uint64]map[uint64]*memSeat
	bookings  map[uint64]*model.Booking
	nextID    uint64
}

func newMemBookings() *memBookings {
	return &memBookings{
		showtimes: map[uint64]model.Showtime{},
		seats:     map[uint64]map[uint64]*memSeat{},
		bookings:  map[uint64]*model.Booking{},
	}
}

// addShowtime registers a showtime with a rows x cols grid.  Seat ids are
// (row-1)*cols + col.
func (m *memBookings) addShowtime(st model.Showtime, rows, cols int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.showtimes[st.ID] = st
	grid := map[uint64]*memSeat{}
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			grid[uint64((r-1)*cols+c)] = &memSeat{row: r, col: c, status: model.SeatAvailable}
		}
	}
	m.seats[st.ID] = grid
}

func (m *memBookings) seatStatus(showtimeID, seatID uint64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seats[showtimeID][seatID].status
}

func (m *memBookings) copyOf(b *model.Booking) model.Booking {
	out := *b
	out.Seats = append([]model.BookingSeat(nil), b.Seats...)
	st := m.showtimes[b.ShowtimeID]
	out.Showtime = &st
	return out
}

func (m *memBookings) expireLocked(b *model.Booking) {
	b.Status = model.BookingExpired
	for _, s := range m.seats[b.ShowtimeID] {
		if s.booking == b.ID && s.status == model.SeatHold {
			s.status, s.booking = model.SeatAvailable, 0
		}
	}
}

func (m *memBookings) Hold(_ context.Context, req repository.HoldRequest) (model.Booking, []uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.showtimes[req.ShowtimeID]
	if !ok {
		return model.Booking{}, nil, repository.ErrNotFound
	}
	if !st.StartTime.After(req.Now) {
		return model.Booking{}, nil, repository.ErrConflict
	}
	due := map[uint64]bool{}
	for id, b := range m.bookings {
		if b.ShowtimeID == req.ShowtimeID && b.Status == model.BookingPending && !b.ExpiredAt.After(req.Now) {
			due[id] = true
		}
	}
	grid := m.seats[req.ShowtimeID]
	var taken []uint64
	for _, id := range req.SeatIDs {
		s, ok := grid[id]
		if !ok || !(s.status == model.SeatAvailable || s.status == model.SeatHold && due[s.booking]) {
			taken = append(taken, id)
		}
	}
	if len(taken) > 0 {
		return model.Booking{}, nil, &repository.SeatsTakenError{SeatIDs: taken}
	}
	expired := make([]uint64, 0, len(due))
	for id := range due {
		m.expireLocked(m.bookings[id])
		expired = append(expired, id)
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })

	m.nextID++
	b := &model.Booking{
		ID: m.nextID, UserID: req.UserID, ShowtimeID: req.ShowtimeID,
		Status: model.BookingPending, ExpiredAt: req.ExpiresAt, CreatedAt: req.Now,
	}
	for _, id := range req.SeatIDs {
		s := grid[id]
		s.status, s.booking = model.SeatHold, b.ID
		b.Seats = append(b.Seats, model.BookingSeat{BookingID: b.ID, SeatID: id, Row: s.row, Col: s.col, Price: st.Price})
		b.TotalAmount += st.Price
	}
	m.bookings[b.ID] = b
	return m.copyOf(b), expired, nil
}

func (m *memBookings) editable(bookingID, userID uint64, now time.Time) (*model.Booking, error) {
	b, ok := m.bookings[bookingID]
	switch {
	case !ok || b.UserID != userID:
		return nil, repository.ErrNotFound
	case b.Status == model.BookingExpired:
		return nil, repository.ErrExpired
	case b.Status != model.BookingPending:
		return nil, repository.ErrConflict
	case !b.ExpiredAt.After(now):
		return nil, repository.ErrExpired
	}
	return b, nil
}

func (m *memBookings) AddSeat(_ context.Context, bookingID, userID, seatID uint64, maxSeats int, now time.Time) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.editable(bookingID, userID, now)
	if err != nil {
		return model.Booking{}, err
	}
	if len(b.Seats) >= maxSeats {
		return model.Booking{}, repository.ErrSeatLimit
	}
	s, ok := m.seats[b.ShowtimeID][seatID]
	if !ok || s.status != model.SeatAvailable {
		if ok && s.booking == bookingID {
			return model.Booking{}, repository.ErrDuplicate
		}
		return model.Booking{}, &repository.SeatsTakenError{SeatIDs: []uint64{seatID}}
	}
	price := m.showtimes[b.ShowtimeID].Price
	s.status, s.booking = model.SeatHold, bookingID
	b.Seats = append(b.Seats, model.BookingSeat{BookingID: b.ID, SeatID: seatID, Row: s.row, Col: s.col, Price: price})
	b.TotalAmount += price
	return m.copyOf(b), nil
}

func (m *memBookings) RemoveSeat(_ context.Context, bookingID, userID, seatID uint64, now time.Time) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.editable(bookingID, userID, now)
	if err != nil {
		return model.Booking{}, err
	}
	s, ok := m.seats[b.ShowtimeID][seatID]
	if !ok || s.booking != bookingID || s.status != model.SeatHold {
		return model.Booking{}, repository.ErrNotFound
	}
	s.status, s.booking = model.SeatAvailable, 0
	for i, bs := range b.Seats {
		if bs.SeatID == seatID {
			b.TotalAmount -= bs.Price
			b.Seats = append(b.Seats[:i], b.Seats[i+1:]...)
			break
		}
	}
	return m.copyOf(b), nil
}

func (m *memBookings) Confirm(_ context.Context, bookingID, userID uint64, now time.Time) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.editable(bookingID, userID, now)
	if err != nil {
		return model.Booking{}, err
	}
	if len(b.Seats) == 0 {
		return model.Booking{}, repository.ErrEmptyBooking
	}
	b.Status = model.BookingReserved
	for _, s := range m.seats[b.ShowtimeID] {
		if s.booking == bookingID && s.status == model.SeatHold {
			s.status = model.SeatReserved
		}
	}
	return m.copyOf(b), nil
}

func (m *memBookings) Cancel(_ context.Context, bookingID, userID uint64, now time.Time) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || userID != 0 && b.UserID != userID {
		return model.Booking{}, repository.ErrNotFound
	}
	if !m.showtimes[b.ShowtimeID].StartTime.After(now) || !b.Active() {
		return model.Booking{}, repository.ErrConflict
	}
	b.Status = model.BookingCancelled
	for _, s := range m.seats[b.ShowtimeID] {
		if s.booking == bookingID {
			s.status, s.booking = model.SeatAvailable, 0
		}
	}
	return m.copyOf(b), nil
}

func (m *memBookings) ListExpired(_ context.Context, now time.Time, limit int) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint64
	for id, b := range m.bookings {
		if b.Status == model.BookingPending && !b.ExpiredAt.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *memBookings) Expire(_ context.Context, bookingID uint64, now time.Time) (model.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return model.Booking{}, false, repository.ErrNotFound
	}
	if b.Status != model.BookingPending || b.ExpiredAt.After(now) {
		return m.copyOf(b), false, nil
	}
	m.expireLocked(b)
	return m.copyOf(b), true, nil
}

func (m *memBookings) Get(_ context.Context, id uint64) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return m.copyOf(b), nil
}

func (m *memBookings) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, m.copyOf(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memBookings) SeatMap(_ context.Context, showtimeID uint64) (model.SeatMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.showtimes[showtimeID]
	if !ok {
		return model.SeatMap{}, repository.ErrNotFound
	}
	sm := model.SeatMap{ShowtimeID: showtimeID, RoomID: st.RoomID}
	for id, s := range m.seats[showtimeID] {
		ss := model.SeatState{
			SeatID: id, Row: s.row, Col: s.col,
			Label: model.Seat{Row: s.row, Col: s.col}.Label(),
			Price: st.Price, Status: s.status,
		}
		if s.status == model.SeatHold {
			b := m.bookings[s.booking]
			exp := b.ExpiredAt
			ss.HolderID, ss.HoldUntil = b.UserID, &exp
		}
		sm.NoRow = max(sm.NoRow, s.row)
		sm.NoColumn = max(sm.NoColumn, s.col)
		sm.Seats = append(sm.Seats, ss)
	}
	sort.Slice(sm.Seats, func(i, j int) bool { return sm.Seats[i].SeatID < sm.Seats[j].SeatID })
	return sm, nil
}

// ShowtimeStore

func (m *memBookings) Create(_ context.Context, s *model.Showtime) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.showtimes {
		if o.RoomID == s.RoomID && o.Overlaps(s.StartTime, s.EndTime) {
			return repository.ErrConflict
		}
	}
	m.nextID++
	s.ID = m.nextID
	m.showtimes[s.ID] = *s
	return nil
}

func (m *memBookings) Update(_ context.Context, s *model.Showtime) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.showtimes[s.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, o := range m.showtimes {
		if id != s.ID && o.RoomID == s.RoomID && o.Overlaps(s.StartTime, s.EndTime) {
			return repository.ErrConflict
		}
	}
	m.showtimes[s.ID] = *s
	return nil
}

func (m *memBookings) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.showtimes[id]; !ok {
		return repository.ErrNotFound
	}
	for _, b := range m.bookings {
		if b.ShowtimeID == id {
			return repository.ErrConflict
		}
	}
	delete(m.showtimes, id)
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id uint64) (model.Showtime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.showtimes[id]
	if !ok {
		return model.Showtime{}, repository.ErrNotFound
	}
	return st, nil
}

func (m *memBookings) List(_ context.Context, f model.ShowtimeFilter) ([]model.Showtime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Showtime
	for _, st := range m.showtimes {
		if (f.MovieID == 0 || st.MovieID == f.MovieID) && (f.RoomID == 0 || st.RoomID == f.RoomID) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// recordingEvents collects published events.
type recordingEvents struct {
	ch chan queue.BookingEvent
}

func newRecordingEvents() *recordingEvents {
	return &recordingEvents{ch: make(chan queue.BookingEvent, 64)}
}

func (r *recordingEvents) PublishBooking(_ context.Context, ev queue.BookingEvent) error {
	r.ch <- ev
	return nil
}

// mapCache is an in-process SeatMapCache.
type mapCache struct {
	mu sync.Mutex
	m  map[uint64]model.SeatMap
}

func (c *mapCache) Get(_ context.Context, id uint64) (model.SeatMap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sm, ok := c.m[id]
	return sm, ok
}

func (c *mapCache) Set(_ context.Context, sm model.SeatMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[uint64]model.SeatMap{}
	}
	c.m[sm.ShowtimeID] = sm
}

func (c *mapCache) Invalidate(_ context.Context, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, id)
}
