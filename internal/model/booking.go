package model

import "time"

// Seat statuses.  The set is closed: a showtime seat is available, held by
// a pending booking, reserved by a confirmed one, or out of service.
// Selected is never stored; seat maps report it for seats held by the
// viewer's own pending booking.
const (
	SeatAvailable   = "available"
	SeatReserved    = "reserved"
	SeatHold        = "hold"
	SeatSelected    = "selected"
	SeatUnavailable = "unavailable"
)

// ValidSeatStatus reports whether s belongs to the seat status set.
func ValidSeatStatus(s string) bool {
	switch s {
	case SeatAvailable, SeatReserved, SeatHold, SeatSelected, SeatUnavailable:
		return true
	}
	return false
}

// Booking statuses.  Transitions: pending -> reserved | expired, and
// pending | reserved -> cancelled.
const (
	BookingPending   = "pending"
	BookingReserved  = "reserved"
	BookingExpired   = "expired"
	BookingCancelled = "cancelled"
)

// Booking groups the seats a user selected for one showtime.
type Booking struct {
	ID          uint64        `json:"id"`
	UserID      uint64        `json:"user"`
	ShowtimeID  uint64        `json:"showtime_id"`
	Status      string        `json:"status"`
	ExpiredAt   time.Time     `json:"expired_at"`
	TotalAmount int           `json:"total_amount"`
	CreatedAt   time.Time     `json:"created_at"`
	Seats       []BookingSeat `json:"booking_seats"`
	Showtime    *Showtime     `json:"showtime,omitempty"`
}

// Active reports whether the booking still owns its seats.
func (b Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingReserved
}

// SeatIDs lists the ids of the booked seats in order.
func (b Booking) SeatIDs() []uint64 {
	ids := make([]uint64, 0, len(b.Seats))
	for _, s := range b.Seats {
		ids = append(ids, s.SeatID)
	}
	return ids
}

// BookingSeat links a seat to a booking at the price charged for it.
type BookingSeat struct {
	ID        uint64 `json:"id"`
	BookingID uint64 `json:"booking"`
	SeatID    uint64 `json:"seat"`
	Row       int    `json:"seat_row"`
	Col       int    `json:"seat_col"`
	Price     int    `json:"price"`
}

// SeatState is one entry of a showtime seat map.  HolderID and HoldUntil
// describe the pending booking holding the seat; they are stripped before
// a map leaves the service.
type SeatState struct {
	SeatID    uint64     `json:"seat_id"`
	Row       int        `json:"seat_row"`
	Col       int        `json:"seat_col"`
	Label     string     `json:"label"`
	SeatType  *SeatType  `json:"seat_type,omitempty"`
	Price     int        `json:"price"`
	Status    string     `json:"status"`
	HolderID  uint64     `json:"holder_id,omitempty"`
	HoldUntil *time.Time `json:"hold_until,omitempty"`
}

// SeatMap is the bookability of every seat of a showtime's room.
type SeatMap struct {
	ShowtimeID uint64      `json:"showtime_id"`
	RoomID     uint64      `json:"room_id"`
	NoRow      int         `json:"no_row"`
	NoColumn   int         `json:"no_column"`
	Seats      []SeatState `json:"seats"`
}
