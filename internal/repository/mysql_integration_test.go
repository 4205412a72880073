package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// startMySQL runs a throwaway MySQL 8 and returns a migrated handle.
func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mysql:8.0",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "secret",
				"MYSQL_DATABASE":      "cinema",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("ready for connections").WithOccurrence(2),
				wait.ForListeningPort("3306/tcp"),
			).WithDeadline(3 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	db, err := database.Open("root", "secret", host, port.Port(), "cinema")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))
	return db
}

type fixture struct {
	users    *repository.UserRepo
	venues   *repository.VenueRepo
	shows    *repository.ShowtimeRepo
	bookings *repository.BookingRepo
	catalog  *repository.CatalogRepo
}

func newFixture(db *sql.DB) fixture {
	return fixture{
		users:    repository.NewUserRepo(db),
		venues:   repository.NewVenueRepo(db),
		shows:    repository.NewShowtimeRepo(db),
		bookings: repository.NewBookingRepo(db),
		catalog:  repository.NewCatalogRepo(db),
	}
}

func (f fixture) user(t *testing.T, email string) uint64 {
	u := &model.User{Email: email, PasswordHash: "x", IsActive: true}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

// room3x3 creates a cinema, a 3x3 room, a 120 minute movie and one showtime
// starting at start.
func (f fixture) room3x3(t *testing.T, name string, start time.Time) (model.Room, model.Showtime) {
	ctx := context.Background()
	c := &model.Cinema{Name: "Cinema " + name, City: "Hanoi"}
	require.NoError(t, f.venues.CreateCinema(ctx, c))
	rm := &model.Room{CinemaID: c.ID, Name: "Room " + name, NoRow: 3, NoColumn: 3}
	require.NoError(t, f.venues.CreateRoom(ctx, rm))
	m := &model.Movie{Title: "Movie " + name, DurationMin: 120}
	require.NoError(t, f.catalog.CreateMovie(ctx, m, nil, nil))
	st := &model.Showtime{MovieID: m.ID, RoomID: rm.ID, StartTime: start, EndTime: start.Add(m.Duration()), Price: 100}
	require.NoError(t, f.shows.Create(ctx, st))
	return *rm, *st
}

func seatAt(t *testing.T, f fixture, roomID uint64, row, col int) uint64 {
	seats, err := f.venues.ListSeats(context.Background(), roomID)
	require.NoError(t, err)
	for _, s := range seats {
		if s.Row == row && s.Col == col {
			return s.ID
		}
	}
	t.Fatalf("seat %d,%d not found", row, col)
	return 0
}

func statusOf(t *testing.T, f fixture, showtimeID, seatID uint64) string {
	sm, err := f.bookings.SeatMap(context.Background(), showtimeID)
	require.NoError(t, err)
	for _, s := range sm.Seats {
		if s.SeatID == seatID {
			return s.Status
		}
	}
	return ""
}

func TestMySQLBookingFlow(t *testing.T) {
	db := startMySQL(t)
	f := newFixture(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("room generation is idempotent", func(t *testing.T) {
		rm, _ := f.room3x3(t, "gen", now.Add(48*time.Hour))
		assert.Equal(t, 9, rm.TotalSeats)
		seats, err := f.venues.ListSeats(ctx, rm.ID)
		require.NoError(t, err)
		require.Len(t, seats, 9)
		for _, s := range seats {
			assert.Equal(t, model.SeatAvailable, s.Status)
		}
		created, err := f.venues.GenerateSeats(ctx, rm.ID)
		require.NoError(t, err)
		assert.Zero(t, created)
	})

	t.Run("hold, reject second holder, confirm", func(t *testing.T) {
		a, b := f.user(t, "a@flow.test"), f.user(t, "b@flow.test")
		rm, st := f.room3x3(t, "flow", now.Add(24*time.Hour))
		s11 := seatAt(t, f, rm.ID, 1, 1)

		bk, _, err := f.bookings.Hold(ctx, repository.HoldRequest{
			UserID: a, ShowtimeID: st.ID, SeatIDs: []uint64{s11}, Now: now, ExpiresAt: now.Add(10 * time.Minute),
		})
		require.NoError(t, err)
		assert.Equal(t, model.BookingPending, bk.Status)
		assert.Equal(t, 100, bk.TotalAmount)
		assert.Equal(t, model.SeatHold, statusOf(t, f, st.ID, s11))

		_, _, err = f.bookings.Hold(ctx, repository.HoldRequest{
			UserID: b, ShowtimeID: st.ID, SeatIDs: []uint64{s11}, Now: now, ExpiresAt: now.Add(10 * time.Minute),
		})
		var taken *repository.SeatsTakenError
		require.True(t, errors.As(err, &taken))
		assert.Equal(t, []uint64{s11}, taken.SeatIDs)

		bk, err = f.bookings.Confirm(ctx, bk.ID, a, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, model.BookingReserved, bk.Status)
		assert.Equal(t, model.SeatReserved, statusOf(t, f, st.ID, s11))

		_, err = f.bookings.Confirm(ctx, bk.ID, a, now.Add(time.Minute))
		assert.ErrorIs(t, err, repository.ErrConflict)
	})

	t.Run("sweep expires and frees seats once", func(t *testing.T) {
		a, b := f.user(t, "a@sweep.test"), f.user(t, "b@sweep.test")
		rm, st := f.room3x3(t, "sweep", now.Add(24*time.Hour))
		s11 := seatAt(t, f, rm.ID, 1, 1)

		bk, _, err := f.bookings.Hold(ctx, repository.HoldRequest{
			UserID: a, ShowtimeID: st.ID, SeatIDs: []uint64{s11}, Now: now, ExpiresAt: now.Add(10 * time.Minute),
		})
		require.NoError(t, err)

		later := now.Add(11 * time.Minute)
		_, err = f.bookings.Confirm(ctx, bk.ID, a, later)
		assert.ErrorIs(t, err, repository.ErrExpired)

		ids, err := f.bookings.ListExpired(ctx, later, 100)
		require.NoError(t, err)
		assert.Contains(t, ids, bk.ID)
		got, done, err := f.bookings.Expire(ctx, bk.ID, later)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, model.BookingExpired, got.Status)
		assert.Equal(t, model.SeatAvailable, statusOf(t, f, st.ID, s11))

		_, done, err = f.bookings.Expire(ctx, bk.ID, later)
		require.NoError(t, err)
		assert.False(t, done)

		_, _, err = f.bookings.Hold(ctx, repository.HoldRequest{
			UserID: b, ShowtimeID: st.ID, SeatIDs: []uint64{s11}, Now: later, ExpiresAt: later.Add(10 * time.Minute),
		})
		require.NoError(t, err)
	})

	t.Run("lazy expiry inside hold", func(t *testing.T) {
		a, b := f.user(t, "a@lazy.test"), f.user(t, "b@lazy.test")
		rm, st := f.room3x3(t, "lazy", now.Add(24*time.Hour))
		s22 := seatAt(t, f, rm.ID, 2, 2)

		first, _, err := f.bookings.Hold(ctx, repository.HoldRequest{
			UserID: a, ShowtimeID: st.ID, SeatIDs: []uint64{s22}, Now: now, ExpiresAt: now.Add(time.Minute),
		})
		require.NoError(t, err)
		later := now.Add(2 * time.Minute)
		_, expired, err := f.bookings.Hold(ctx, repository.HoldRequest{
			UserID: b, ShowtimeID: st.ID, SeatIDs: []uint64{s22}, Now: later, ExpiresAt: later.Add(10 * time.Minute),
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{first.ID}, expired)
	})

	t.Run("concurrent holds have one winner", func(t *testing.T) {
		rm, st := f.room3x3(t, "race", now.Add(24*time.Hour))
		target := []uint64{seatAt(t, f, rm.ID, 3, 1), seatAt(t, f, rm.ID, 3, 2)}
		const n = 8
		users := make([]uint64, n)
		for i := range users {
			users[i] = f.user(t, fmt.Sprintf("u%d@race.test", i))
		}
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(uid uint64) {
				defer wg.Done()
				_, _, err := f.bookings.Hold(ctx, repository.HoldRequest{
					UserID: uid, ShowtimeID: st.ID, SeatIDs: target, Now: now, ExpiresAt: now.Add(10 * time.Minute),
				})
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, repository.ErrSeatTaken)
			}(users[i])
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})

	t.Run("concurrent adds respect the seat cap", func(t *testing.T) {
		a := f.user(t, "a@cap.test")
		rm, st := f.room3x3(t, "cap", now.Add(24*time.Hour))
		bk, _, err := f.bookings.Hold(ctx, repository.HoldRequest{
			UserID: a, ShowtimeID: st.ID, SeatIDs: []uint64{seatAt(t, f, rm.ID, 1, 1)},
			Now: now, ExpiresAt: now.Add(10 * time.Minute),
		})
		require.NoError(t, err)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			won     int
			limited int
		)
		for col := 1; col <= 3; col++ {
			seat := seatAt(t, f, rm.ID, 2, col)
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.bookings.AddSeat(ctx, bk.ID, a, seat, 2, now)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					won++
				case errors.Is(err, repository.ErrSeatLimit):
					limited++
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, won)
		assert.Equal(t, 2, limited)

		got, err := f.bookings.Get(ctx, bk.ID)
		require.NoError(t, err)
		assert.Len(t, got.Seats, 2)
	})

	t.Run("empty booking cannot be confirmed", func(t *testing.T) {
		a := f.user(t, "a@empty.test")
		rm, st := f.room3x3(t, "empty", now.Add(24*time.Hour))
		s11 := seatAt(t, f, rm.ID, 1, 1)
		bk, _, err := f.bookings.Hold(ctx, repository.HoldRequest{
			UserID: a, ShowtimeID: st.ID, SeatIDs: []uint64{s11}, Now: now, ExpiresAt: now.Add(10 * time.Minute),
		})
		require.NoError(t, err)
		_, err = f.bookings.RemoveSeat(ctx, bk.ID, a, s11, now)
		require.NoError(t, err)

		_, err = f.bookings.Confirm(ctx, bk.ID, a, now.Add(time.Minute))
		assert.ErrorIs(t, err, repository.ErrEmptyBooking)

		got, err := f.bookings.Get(ctx, bk.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingPending, got.Status)
	})

	t.Run("overlapping showtime conflicts, adjacent is allowed", func(t *testing.T) {
		start := now.Add(72 * time.Hour)
		rm, st := f.room3x3(t, "overlap", start)
		clash := &model.Showtime{MovieID: st.MovieID, RoomID: rm.ID, StartTime: start.Add(time.Hour), EndTime: start.Add(3 * time.Hour), Price: 100}
		assert.ErrorIs(t, f.shows.Create(ctx, clash), repository.ErrConflict)

		next := &model.Showtime{MovieID: st.MovieID, RoomID: rm.ID, StartTime: st.EndTime, EndTime: st.EndTime.Add(2 * time.Hour), Price: 100}
		require.NoError(t, f.shows.Create(ctx, next))
	})

	t.Run("shrinking a booked room conflicts", func(t *testing.T) {
		a := f.user(t, "a@shrink.test")
		rm, st := f.room3x3(t, "shrink", now.Add(24*time.Hour))
		_, _, err := f.bookings.Hold(ctx, repository.HoldRequest{
			UserID: a, ShowtimeID: st.ID, SeatIDs: []uint64{seatAt(t, f, rm.ID, 3, 3)}, Now: now, ExpiresAt: now.Add(10 * time.Minute),
		})
		require.NoError(t, err)
		rm.NoRow, rm.NoColumn = 2, 2
		assert.ErrorIs(t, f.venues.UpdateRoom(ctx, &rm), repository.ErrConflict)

		rm.NoRow, rm.NoColumn = 4, 3
		require.NoError(t, f.venues.UpdateRoom(ctx, &rm))
		assert.Equal(t, 12, rm.TotalSeats)
	})
}
