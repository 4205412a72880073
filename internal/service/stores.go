package service

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// BookingStore is the transactional seat hold core.  Every method that
// changes state is a compare-and-set on the expected prior status.
type BookingStore interface {
	Hold(ctx context.Context, req repository.HoldRequest) (model.Booking, []uint64, error)
	AddSeat(ctx context.Context, bookingID, userID, seatID uint64, maxSeats int, now time.Time) (model.Booking, error)
	RemoveSeat(ctx context.Context, bookingID, userID, seatID uint64, now time.Time) (model.Booking, error)
	Confirm(ctx context.Context, bookingID, userID uint64, now time.Time) (model.Booking, error)
	Cancel(ctx context.Context, bookingID, userID uint64, now time.Time) (model.Booking, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]uint64, error)
	Expire(ctx context.Context, bookingID uint64, now time.Time) (model.Booking, bool, error)
	Get(ctx context.Context, id uint64) (model.Booking, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	SeatMap(ctx context.Context, showtimeID uint64) (model.SeatMap, error)
}

type ShowtimeStore interface {
	Create(ctx context.Context, s *model.Showtime) error
	Update(ctx context.Context, s *model.Showtime) error
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (model.Showtime, error)
	List(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error)
}

type VenueStore interface {
	CreateCinema(ctx context.Context, c *model.Cinema) error
	GetCinema(ctx context.Context, id uint64) (model.Cinema, error)
	ListCinemas(ctx context.Context) ([]model.Cinema, error)
	UpdateCinema(ctx context.Context, c *model.Cinema) error
	DeleteCinema(ctx context.Context, id uint64) error

	CreateRoom(ctx context.Context, r *model.Room) error
	GetRoom(ctx context.Context, id uint64) (model.Room, error)
	ListRooms(ctx context.Context, cinemaID uint64) ([]model.Room, error)
	UpdateRoom(ctx context.Context, r *model.Room) error
	DeleteRoom(ctx context.Context, id uint64) error
	GenerateSeats(ctx context.Context, roomID uint64) (int, error)

	ListSeats(ctx context.Context, roomID uint64) ([]model.Seat, error)
	GetSeat(ctx context.Context, id uint64) (model.Seat, error)
	UpdateSeat(ctx context.Context, id uint64, seatTypeID *uint64, status string, now time.Time) (model.Seat, error)

	ListSeatTypes(ctx context.Context) ([]model.SeatType, error)
	GetSeatType(ctx context.Context, id uint64) (model.SeatType, error)
	CreateSeatType(ctx context.Context, t *model.SeatType) error
	UpdateSeatType(ctx context.Context, t *model.SeatType) error
	DeleteSeatType(ctx context.Context, id uint64) error
}

type CatalogStore interface {
	ListGenres(ctx context.Context) ([]model.Genre, error)
	GetGenre(ctx context.Context, id uint64) (model.Genre, error)
	CreateGenre(ctx context.Context, g *model.Genre) error
	UpdateGenre(ctx context.Context, g *model.Genre) error
	DeleteGenre(ctx context.Context, id uint64) error

	ListActors(ctx context.Context) ([]model.Actor, error)
	GetActor(ctx context.Context, id uint64) (model.Actor, error)
	CreateActor(ctx context.Context, a *model.Actor) error
	UpdateActor(ctx context.Context, a *model.Actor) error
	DeleteActor(ctx context.Context, id uint64) error

	ListMovies(ctx context.Context) ([]model.Movie, error)
	GetMovie(ctx context.Context, id uint64) (model.Movie, error)
	CreateMovie(ctx context.Context, m *model.Movie, genreIDs, actorIDs []uint64) error
	UpdateMovie(ctx context.Context, m *model.Movie, genreIDs, actorIDs []uint64) error
	DeleteMovie(ctx context.Context, id uint64) error
}

type ReviewStore interface {
	Create(ctx context.Context, r *model.Review) error
	GetByID(ctx context.Context, id uint64) (model.Review, error)
	ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error)
	Delete(ctx context.Context, id uint64) error
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Activate(ctx context.Context, id uint64) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	CreateUserToken(ctx context.Context, userID uint64, kind, tokenHash string, exp time.Time) error
	ConsumeUserToken(ctx context.Context, kind, tokenHash string, now time.Time) (uint64, error)
}

// EventPublisher announces booking transitions.
type EventPublisher interface {
	PublishBooking(ctx context.Context, ev queue.BookingEvent) error
}

// SeatMapCache holds stored seat maps between transitions.
type SeatMapCache interface {
	Get(ctx context.Context, showtimeID uint64) (model.SeatMap, bool)
	Set(ctx context.Context, sm model.SeatMap)
	Invalidate(ctx context.Context, showtimeID uint64)
}

// compile-time checks
var (
	_ BookingStore  = (*repository.BookingRepo)(nil)
	_ ShowtimeStore = (*repository.ShowtimeRepo)(nil)
	_ VenueStore    = (*repository.VenueRepo)(nil)
	_ CatalogStore  = (*repository.CatalogRepo)(nil)
	_ ReviewStore   = (*repository.ReviewRepo)(nil)
	_ UserStore     = (*repository.UserRepo)(nil)
	_ TokenStore    = (*repository.TokenRepo)(nil)
)
