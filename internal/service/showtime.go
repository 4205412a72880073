package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ShowtimeInput carries the editable fields of a showtime.  The end time
// is always derived from the movie's duration.
type ShowtimeInput struct {
	MovieID   uint64
	RoomID    uint64
	StartTime time.Time
	Price     int
}

type ShowtimeService struct {
	store   ShowtimeStore
	catalog CatalogStore
	cache   SeatMapCache
	log     logrus.FieldLogger
}

func NewShowtimeService(store ShowtimeStore, catalog CatalogStore, cache SeatMapCache, log logrus.FieldLogger) *ShowtimeService {
	if cache == nil {
		cache = nopCache{}
	}
	return &ShowtimeService{store: store, catalog: catalog, cache: cache, log: log}
}

func validateShowtime(in ShowtimeInput, update bool) error {
	v := &ValidationError{Fields: map[string]string{}}
	if !update {
		if in.MovieID == 0 {
			v.Fields["movie_id"] = "movie_id is required"
		}
		if in.RoomID == 0 {
			v.Fields["room_id"] = "room_id is required"
		}
	}
	if in.StartTime.IsZero() {
		v.Fields["start_time"] = "start_time is required"
	}
	if in.Price < 0 {
		v.Fields["price"] = "price must not be negative"
	}
	if len(v.Fields) > 0 {
		return v
	}
	return nil
}

// Create schedules a movie in a room.  Overlapping another showtime of the
// same room is a conflict; starting exactly when another ends is fine.
func (s *ShowtimeService) Create(ctx context.Context, in ShowtimeInput) (model.Showtime, error) {
	if err := validateShowtime(in, false); err != nil {
		return model.Showtime{}, err
	}
	movie, err := s.catalog.GetMovie(ctx, in.MovieID)
	if err != nil {
		return model.Showtime{}, translate(err, "movie not found")
	}
	st := model.Showtime{
		MovieID:   in.MovieID,
		RoomID:    in.RoomID,
		StartTime: in.StartTime.UTC(),
		EndTime:   in.StartTime.UTC().Add(movie.Duration()),
		Price:     in.Price,
	}
	if err := s.store.Create(ctx, &st); err != nil {
		return model.Showtime{}, translate(err, overlapHint(err))
	}
	s.log.WithFields(logrus.Fields{"showtime_id": st.ID, "room_id": st.RoomID, "start": st.StartTime}).Info("showtime created")
	return s.store.GetByID(ctx, st.ID)
}

// Update moves a showtime or changes its price.  The movie and room stay.
func (s *ShowtimeService) Update(ctx context.Context, id uint64, in ShowtimeInput) (model.Showtime, error) {
	if err := validateShowtime(in, true); err != nil {
		return model.Showtime{}, err
	}
	cur, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Showtime{}, translate(err, "showtime not found")
	}
	movie, err := s.catalog.GetMovie(ctx, cur.MovieID)
	if err != nil {
		return model.Showtime{}, translate(err, "movie not found")
	}
	cur.StartTime = in.StartTime.UTC()
	cur.EndTime = cur.StartTime.Add(movie.Duration())
	cur.Price = in.Price
	if err := s.store.Update(ctx, &cur); err != nil {
		return model.Showtime{}, translate(err, overlapHint(err))
	}
	s.cache.Invalidate(ctx, id)
	return s.store.GetByID(ctx, id)
}

func overlapHint(err error) string {
	if errorsIsNotFound(err) {
		return "movie or room not found"
	}
	return "showtime overlaps another showtime in this room"
}

// Delete removes a showtime that has never been booked.
func (s *ShowtimeService) Delete(ctx context.Context, id uint64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errorsIsNotFound(err) {
			return translate(err, "showtime not found")
		}
		return translate(err, "showtime has bookings")
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

func (s *ShowtimeService) Get(ctx context.Context, id uint64) (model.Showtime, error) {
	st, err := s.store.GetByID(ctx, id)
	return st, translate(err, "showtime not found")
}

func (s *ShowtimeService) List(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error) {
	return s.store.List(ctx, f)
}
