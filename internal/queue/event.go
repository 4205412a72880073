// Package queue carries booking lifecycle events over RabbitMQ and records
// them in an audit sink.
package queue

import (
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Event types double as routing keys on the events exchange.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingExpired   = "booking.expired"
	EventBookingCancelled = "booking.cancelled"
)

// Broker topology.
const (
	EventsExchange = "cinema.events"
	BookingQueue   = "booking.events"
	MailQueue      = "mail.outgoing"
)

// BookingEvent is published on every terminal booking transition.  It
// contains enough for consumers to log, notify or feed analytics without
// querying the primary database.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  uint64    `json:"booking_id"`
	UserID     uint64    `json:"user_id"`
	ShowtimeID uint64    `json:"showtime_id"`
	MovieTitle string    `json:"movie_title,omitempty"`
	RoomName   string    `json:"room_name,omitempty"`
	StartsAt   time.Time `json:"starts_at,omitempty"`
	SeatIDs    []uint64  `json:"seat_ids"`
	SeatLabels []string  `json:"seats"`
	Total      int       `json:"total"`
	At         time.Time `json:"at"`
}

// NewBookingEvent builds the event for booking b.
func NewBookingEvent(typ string, b model.Booking, at time.Time) BookingEvent {
	ev := BookingEvent{
		Type:       typ,
		BookingID:  b.ID,
		UserID:     b.UserID,
		ShowtimeID: b.ShowtimeID,
		SeatIDs:    make([]uint64, 0, len(b.Seats)),
		SeatLabels: make([]string, 0, len(b.Seats)),
		Total:      b.TotalAmount,
		At:         at.UTC(),
	}
	for _, s := range b.Seats {
		ev.SeatIDs = append(ev.SeatIDs, s.SeatID)
		ev.SeatLabels = append(ev.SeatLabels, model.Seat{Row: s.Row, Col: s.Col}.Label())
	}
	if st := b.Showtime; st != nil {
		ev.StartsAt = st.StartTime.UTC()
		if st.Movie != nil {
			ev.MovieTitle = st.Movie.Title
		}
		if st.Room != nil {
			ev.RoomName = st.Room.Name
		}
	}
	return ev
}
