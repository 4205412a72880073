package model

// Cinema is a physical site.  NumberOfRooms is derived from its rooms.
type Cinema struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Street        string `json:"street"`
	Ward          string `json:"ward"`
	District      string `json:"district"`
	City          string `json:"city"`
	NumberOfRooms int    `json:"number_of_rooms"`
}

// Room is a screening room laid out as a NoRow x NoColumn grid.
// TotalSeats is the count of generated seats, which equals the grid size
// once generation has run.
type Room struct {
	ID         uint64 `json:"id"`
	CinemaID   uint64 `json:"cinema_id"`
	Name       string `json:"name"`
	NoRow      int    `json:"no_row"`
	NoColumn   int    `json:"no_column"`
	TotalSeats int    `json:"total_seats"`
}

// SeatType classifies seats (standard, VIP, couple...).  ExtraPrice is
// added to the showtime price for every seat of this type.
type SeatType struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	ExtraPrice int    `json:"extra_price"`
}

// Seat is one cell of a room grid.  Row and Col are 1-based.  Status is
// the layout status: available, or unavailable for seats taken out of
// service.  Booking state lives per showtime, see SeatState.
type Seat struct {
	ID         uint64    `json:"id"`
	RoomID     uint64    `json:"room"`
	Row        int       `json:"seat_row"`
	Col        int       `json:"seat_col"`
	SeatTypeID *uint64   `json:"seat_type_id"`
	SeatType   *SeatType `json:"seat_type,omitempty"`
	Status     string    `json:"status"`
}

// Label renders the seat as a row letter and column number, e.g. "C7".
func (s Seat) Label() string {
	return RowLabel(s.Row) + itoa(s.Col)
}

// RowLabel converts a 1-based row number to A, B, ..., Z, AA, AB, ...
func RowLabel(row int) string {
	if row < 1 {
		return ""
	}
	var res []byte
	for i := row - 1; i >= 0; i = i/26 - 1 {
		res = append([]byte{byte('A' + i%26)}, res...)
	}
	return string(res)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}
