package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// ShowtimeRepo manages showtimes and the per-showtime seat rows that the
// booking flow operates on.
type ShowtimeRepo struct {
	db *sql.DB
}

func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

const showtimeSelect = `SELECT st.id, st.movie_id, st.room_id, st.start_time, st.end_time, st.price,
       m.title, m.duration_min, r.cinema_id, r.name, r.no_row, r.no_column
FROM showtimes st
JOIN movies m ON m.id = st.movie_id
JOIN rooms r ON r.id = st.room_id`

func scanShowtime(row interface{ Scan(...any) error }, s *model.Showtime) error {
	m := &model.Movie{}
	rm := &model.Room{}
	if err := row.Scan(&s.ID, &s.MovieID, &s.RoomID, &s.StartTime, &s.EndTime, &s.Price,
		&m.Title, &m.DurationMin, &rm.CinemaID, &rm.Name, &rm.NoRow, &rm.NoColumn); err != nil {
		return err
	}
	m.ID = s.MovieID
	rm.ID = s.RoomID
	s.Movie = m
	s.Room = rm
	return nil
}

// lockRoomTx takes the room row lock that serializes schedule changes of a
// room.  Two concurrent creates for the same room queue here, so the
// overlap check that follows sees the other's committed row.
func lockRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM rooms WHERE id = ? FOR UPDATE", roomID).Scan(&id)
	return notFound(err, "lock room")
}

// overlapsTx reports whether any other showtime of the room intersects
// [start, end).  Adjacent showtimes do not intersect.
func overlapsTx(ctx context.Context, tx *sql.Tx, roomID, excludeID uint64, start, end time.Time) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM showtimes
		 WHERE room_id = ? AND id <> ? AND NOT (end_time <= ? OR start_time >= ?)`,
		roomID, excludeID, start.UTC(), end.UTC()).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "check overlap")
	}
	return n > 0, nil
}

// Create schedules a showtime and materializes one showtime_seats row per
// room seat, copying the layout status.  ErrConflict is returned when the
// slot overlaps another showtime of the room.
func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRoomTx(ctx, tx, s.RoomID); err != nil {
			return err
		}
		clash, err := overlapsTx(ctx, tx, s.RoomID, 0, s.StartTime, s.EndTime)
		if err != nil {
			return err
		}
		if clash {
			return ErrConflict
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO showtimes (movie_id, room_id, start_time, end_time, price) VALUES (?, ?, ?, ?, ?)",
			s.MovieID, s.RoomID, s.StartTime.UTC(), s.EndTime.UTC(), s.Price)
		if err != nil {
			if isFKViolation(err) {
				return ErrNotFound
			}
			return errors.Wrap(err, "insert showtime")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errors.Wrap(err, "showtime id")
		}
		s.ID = uint64(id)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO showtime_seats (showtime_id, seat_id, status)
			 SELECT ?, s.id, s.status FROM seats s WHERE s.room_id = ?`,
			s.ID, s.RoomID)
		return errors.Wrap(err, "materialize showtime seats")
	})
}

// Update moves a showtime in time or changes its price.  The overlap check
// excludes the showtime itself.
func (r *ShowtimeRepo) Update(ctx context.Context, s *model.Showtime) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var roomID uint64
		if err := tx.QueryRowContext(ctx, "SELECT room_id FROM showtimes WHERE id = ?", s.ID).Scan(&roomID); err != nil {
			return notFound(err, "get showtime")
		}
		s.RoomID = roomID
		if err := lockRoomTx(ctx, tx, roomID); err != nil {
			return err
		}
		clash, err := overlapsTx(ctx, tx, roomID, s.ID, s.StartTime, s.EndTime)
		if err != nil {
			return err
		}
		if clash {
			return ErrConflict
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE showtimes SET start_time = ?, end_time = ?, price = ? WHERE id = ?",
			s.StartTime.UTC(), s.EndTime.UTC(), s.Price, s.ID)
		return errors.Wrap(err, "update showtime")
	})
}

// Delete removes a showtime that has no bookings of any status.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM showtimes WHERE id = ? FOR UPDATE", id).Scan(&exists); err != nil {
			return notFound(err, "lock showtime")
		}
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE showtime_id = ?", id).Scan(&n); err != nil {
			return errors.Wrap(err, "count bookings")
		}
		if n > 0 {
			return ErrConflict
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM showtimes WHERE id = ?", id)
		return errors.Wrap(err, "delete showtime")
	})
}

func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (model.Showtime, error) {
	var s model.Showtime
	if err := scanShowtime(r.db.QueryRowContext(ctx, showtimeSelect+" WHERE st.id = ?", id), &s); err != nil {
		return s, notFound(err, "get showtime")
	}
	return s, nil
}

// List returns showtimes matching the filter ordered by start time.
func (r *ShowtimeRepo) List(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error) {
	var (
		where []string
		args  []any
	)
	if f.MovieID != 0 {
		where = append(where, "st.movie_id = ?")
		args = append(args, f.MovieID)
	}
	if f.RoomID != 0 {
		where = append(where, "st.room_id = ?")
		args = append(args, f.RoomID)
	}
	if !f.Date.IsZero() {
		day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.UTC)
		where = append(where, "st.start_time >= ? AND st.start_time < ?")
		args = append(args, day, day.AddDate(0, 0, 1))
	}
	q := showtimeSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY st.start_time, st.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list showtimes")
	}
	defer rows.Close()
	out := []model.Showtime{}
	for rows.Next() {
		var s model.Showtime
		if err := scanShowtime(rows, &s); err != nil {
			return nil, errors.Wrap(err, "scan showtime")
		}
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "list showtimes")
}
