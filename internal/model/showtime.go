package model

import "time"

// Showtime binds a movie to a room for [StartTime, EndTime).  Price is the
// base ticket price in the smallest currency unit.
type Showtime struct {
	ID        uint64    `json:"id"`
	MovieID   uint64    `json:"movie_id"`
	RoomID    uint64    `json:"room_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Price     int       `json:"price"`
	Movie     *Movie    `json:"movie,omitempty"`
	Room      *Room     `json:"room,omitempty"`
}

// Overlaps reports whether the showtime intersects [start, end).  Touching
// intervals (one ends exactly when the other starts) do not overlap.
func (s Showtime) Overlaps(start, end time.Time) bool {
	return !(s.EndTime.Compare(start) <= 0 || s.StartTime.Compare(end) >= 0)
}

// ShowtimeFilter narrows showtime listings.  Zero values are ignored.
type ShowtimeFilter struct {
	MovieID uint64
	RoomID  uint64
	Date    time.Time // matches showtimes starting on this UTC day
}
