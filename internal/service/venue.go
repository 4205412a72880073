package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Grid bounds for rooms.
const (
	MaxRoomRows    = 50
	MaxRoomColumns = 50
)

type VenueService struct {
	store VenueStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewVenueService(store VenueStore, log logrus.FieldLogger) *VenueService {
	return &VenueService{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// ---- cinemas ----

func (s *VenueService) ListCinemas(ctx context.Context) ([]model.Cinema, error) {
	return s.store.ListCinemas(ctx)
}

func (s *VenueService) GetCinema(ctx context.Context, id uint64) (model.Cinema, error) {
	c, err := s.store.GetCinema(ctx, id)
	return c, translate(err, "cinema not found")
}

func (s *VenueService) CreateCinema(ctx context.Context, c model.Cinema) (model.Cinema, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, Invalid("name", "name is required")
	}
	if err := s.store.CreateCinema(ctx, &c); err != nil {
		return c, err
	}
	return s.GetCinema(ctx, c.ID)
}

func (s *VenueService) UpdateCinema(ctx context.Context, c model.Cinema) (model.Cinema, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, Invalid("name", "name is required")
	}
	if err := s.store.UpdateCinema(ctx, &c); err != nil {
		return c, translate(err, "cinema not found")
	}
	return s.GetCinema(ctx, c.ID)
}

func (s *VenueService) DeleteCinema(ctx context.Context, id uint64) error {
	return translate(s.store.DeleteCinema(ctx, id), "cinema not found or has scheduled showtimes")
}

// ---- rooms ----

func validateRoom(r model.Room) error {
	v := &ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(r.Name) == "" {
		v.Fields["name"] = "name is required"
	}
	if r.NoRow < 1 || r.NoRow > MaxRoomRows {
		v.Fields["no_row"] = "no_row must be between 1 and 50"
	}
	if r.NoColumn < 1 || r.NoColumn > MaxRoomColumns {
		v.Fields["no_column"] = "no_column must be between 1 and 50"
	}
	if len(v.Fields) > 0 {
		return v
	}
	return nil
}

func (s *VenueService) ListRooms(ctx context.Context, cinemaID uint64) ([]model.Room, error) {
	if _, err := s.GetCinema(ctx, cinemaID); err != nil {
		return nil, err
	}
	return s.store.ListRooms(ctx, cinemaID)
}

func (s *VenueService) GetRoom(ctx context.Context, id uint64) (model.Room, error) {
	r, err := s.store.GetRoom(ctx, id)
	return r, translate(err, "room not found")
}

// CreateRoom creates a room and its full seat grid.
func (s *VenueService) CreateRoom(ctx context.Context, r model.Room) (model.Room, error) {
	if r.CinemaID == 0 {
		return r, Invalid("cinema_id", "cinema_id is required")
	}
	if err := validateRoom(r); err != nil {
		return r, err
	}
	r.Name = strings.TrimSpace(r.Name)
	if err := s.store.CreateRoom(ctx, &r); err != nil {
		if errorsIsNotFound(err) {
			return r, translate(err, "cinema not found")
		}
		return r, translate(err, "a room with this name already exists in the cinema")
	}
	s.log.WithFields(logrus.Fields{"room_id": r.ID, "seats": r.TotalSeats}).Info("room created")
	return r, nil
}

// UpdateRoom renames or resizes a room.  Shrinking fails when a seat that
// would disappear has ever been booked.
func (s *VenueService) UpdateRoom(ctx context.Context, r model.Room) (model.Room, error) {
	if err := validateRoom(r); err != nil {
		return r, err
	}
	r.Name = strings.TrimSpace(r.Name)
	if err := s.store.UpdateRoom(ctx, &r); err != nil {
		if errorsIsNotFound(err) {
			return r, translate(err, "room not found")
		}
		return r, translate(err, "seats outside the new grid have bookings")
	}
	return s.GetRoom(ctx, r.ID)
}

func (s *VenueService) DeleteRoom(ctx context.Context, id uint64) error {
	return translate(s.store.DeleteRoom(ctx, id), "room not found or has showtimes")
}

// GenerateSeats creates any seats missing from the room grid.
func (s *VenueService) GenerateSeats(ctx context.Context, roomID uint64) (int, error) {
	n, err := s.store.GenerateSeats(ctx, roomID)
	return n, translate(err, "room not found")
}

// ---- seats ----

func (s *VenueService) ListSeats(ctx context.Context, roomID uint64) ([]model.Seat, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.store.ListSeats(ctx, roomID)
}

// UpdateSeat assigns a seat type and layout status.  An empty status keeps
// the current one.
func (s *VenueService) UpdateSeat(ctx context.Context, id uint64, seatTypeID *uint64, status string) (model.Seat, error) {
	cur, err := s.store.GetSeat(ctx, id)
	if err != nil {
		return cur, translate(err, "seat not found")
	}
	if status == "" {
		status = cur.Status
	}
	if status != model.SeatAvailable && status != model.SeatUnavailable {
		return cur, Invalid("status", "status must be available or unavailable")
	}
	if seatTypeID != nil && *seatTypeID == 0 {
		seatTypeID = nil
	}
	seat, err := s.store.UpdateSeat(ctx, id, seatTypeID, status, s.now())
	return seat, translate(err, "seat type not found")
}

// ---- seat types ----

func (s *VenueService) ListSeatTypes(ctx context.Context) ([]model.SeatType, error) {
	return s.store.ListSeatTypes(ctx)
}

func validateSeatType(t model.SeatType) error {
	v := &ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(t.Name) == "" {
		v.Fields["name"] = "name is required"
	}
	if t.ExtraPrice < 0 {
		v.Fields["extra_price"] = "extra_price must not be negative"
	}
	if len(v.Fields) > 0 {
		return v
	}
	return nil
}

func (s *VenueService) CreateSeatType(ctx context.Context, t model.SeatType) (model.SeatType, error) {
	if err := validateSeatType(t); err != nil {
		return t, err
	}
	t.Name = strings.TrimSpace(t.Name)
	err := s.store.CreateSeatType(ctx, &t)
	return t, translate(err, "seat type name already exists")
}

func (s *VenueService) UpdateSeatType(ctx context.Context, t model.SeatType) (model.SeatType, error) {
	if err := validateSeatType(t); err != nil {
		return t, err
	}
	t.Name = strings.TrimSpace(t.Name)
	if err := s.store.UpdateSeatType(ctx, &t); err != nil {
		if errorsIsNotFound(err) {
			return t, translate(err, "seat type not found")
		}
		return t, translate(err, "seat type name already exists")
	}
	return t, nil
}

func (s *VenueService) DeleteSeatType(ctx context.Context, id uint64) error {
	return translate(s.store.DeleteSeatType(ctx, id), "seat type not found")
}
