package service

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

type mockVenues struct {
	mock.Mock
	VenueStore
}

func (m *mockVenues) CreateRoom(ctx context.Context, r *model.Room) error {
	args := m.Called(ctx, r)
	if args.Error(0) == nil {
		r.ID = 7
		r.TotalSeats = r.NoRow * r.NoColumn
	}
	return args.Error(0)
}

func (m *mockVenues) GetSeat(ctx context.Context, id uint64) (model.Seat, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Seat), args.Error(1)
}

func (m *mockVenues) UpdateSeat(ctx context.Context, id uint64, seatTypeID *uint64, status string, now time.Time) (model.Seat, error) {
	args := m.Called(ctx, id, seatTypeID, status, now)
	return args.Get(0).(model.Seat), args.Error(1)
}

func TestCreateRoomValidation(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	store := &mockVenues{}
	svc := NewVenueService(store, log)
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, model.Room{Name: "A", NoRow: 3, NoColumn: 3})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "cinema_id")

	_, err = svc.CreateRoom(ctx, model.Room{CinemaID: 1, Name: " ", NoRow: 0, NoColumn: 51})
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)

	store.On("CreateRoom", mock.Anything, mock.Anything).Return(nil).Once()
	rm, err := svc.CreateRoom(ctx, model.Room{CinemaID: 1, Name: " Hall 1 ", NoRow: 3, NoColumn: 4})
	require.NoError(t, err)
	assert.Equal(t, "Hall 1", rm.Name)
	assert.Equal(t, 12, rm.TotalSeats)

	store.On("CreateRoom", mock.Anything, mock.Anything).Return(repository.ErrDuplicate).Once()
	_, err = svc.CreateRoom(ctx, model.Room{CinemaID: 1, Name: "Hall 1", NoRow: 3, NoColumn: 4})
	assert.ErrorIs(t, err, ErrConflict)

	store.On("CreateRoom", mock.Anything, mock.Anything).Return(errors.Wrap(repository.ErrNotFound, "cinema")).Once()
	_, err = svc.CreateRoom(ctx, model.Room{CinemaID: 99, Name: "Hall 2", NoRow: 3, NoColumn: 4})
	assert.ErrorIs(t, err, ErrNotFound)
	store.AssertExpectations(t)
}

func TestUpdateSeatStatus(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	store := &mockVenues{}
	svc := NewVenueService(store, log)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	cur := model.Seat{ID: 5, RoomID: 1, Row: 1, Col: 2, Status: model.SeatAvailable}
	store.On("GetSeat", mock.Anything, uint64(5)).Return(cur, nil)

	_, err := svc.UpdateSeat(ctx, 5, nil, model.SeatReserved)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "status")

	// empty status keeps the current one, zero seat type clears it
	zero := uint64(0)
	store.On("UpdateSeat", mock.Anything, uint64(5), (*uint64)(nil), model.SeatAvailable, now).Return(cur, nil).Once()
	_, err = svc.UpdateSeat(ctx, 5, &zero, "")
	require.NoError(t, err)

	broken := cur
	broken.Status = model.SeatUnavailable
	store.On("UpdateSeat", mock.Anything, uint64(5), (*uint64)(nil), model.SeatUnavailable, now).Return(broken, nil).Once()
	got, err := svc.UpdateSeat(ctx, 5, nil, model.SeatUnavailable)
	require.NoError(t, err)
	assert.Equal(t, model.SeatUnavailable, got.Status)

	store.On("GetSeat", mock.Anything, uint64(6)).Return(model.Seat{}, repository.ErrNotFound)
	_, err = svc.UpdateSeat(ctx, 6, nil, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "seat not found", errors.FlattenHints(err))
	store.AssertExpectations(t)
}

func (m *mockCatalog) CreateGenre(ctx context.Context, g *model.Genre) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func TestCatalogValidation(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	store := &mockCatalog{}
	svc := NewCatalogService(store, log)
	ctx := context.Background()

	_, err := svc.CreateGenre(ctx, "   ")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	store.On("CreateGenre", mock.Anything, mock.MatchedBy(func(g *model.Genre) bool { return g.Name == "Drama" })).
		Return(repository.ErrDuplicate).Once()
	_, err = svc.CreateGenre(ctx, " Drama ")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "genre already exists", errors.FlattenHints(err))

	_, err = svc.CreateMovie(ctx, MovieInput{Title: "", DurationMin: 0})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "duration_min")
	store.AssertExpectations(t)
}
