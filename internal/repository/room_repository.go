package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// RoomRepo manages rooms and the seat grid that belongs to each room.
type RoomRepo struct {
	db *sql.DB
}

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomSelect = `SELECT r.id, r.cinema_id, r.name, r.no_row, r.no_column,
       (SELECT COUNT(*) FROM seats s WHERE s.room_id = r.id)
FROM rooms r`

func scanRoom(row interface{ Scan(...any) error }, rm *model.Room) error {
	return row.Scan(&rm.ID, &rm.CinemaID, &rm.Name, &rm.NoRow, &rm.NoColumn, &rm.TotalSeats)
}

// CreateRoom inserts the room and generates its seat grid in one transaction.
// An unknown cinema yields ErrNotFound and a duplicate name within the
// cinema yields ErrDuplicate.
func (r *RoomRepo) CreateRoom(ctx context.Context, rm *model.Room) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO rooms (cinema_id, name, no_row, no_column) VALUES (?, ?, ?, ?)",
			rm.CinemaID, rm.Name, rm.NoRow, rm.NoColumn)
		if err != nil {
			switch {
			case isDuplicate(err):
				return ErrDuplicate
			case isFKViolation(err):
				return ErrNotFound
			}
			return errors.Wrap(err, "insert room")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errors.Wrap(err, "room id")
		}
		rm.ID = uint64(id)
		n, err := generateSeatsTx(ctx, tx, rm.ID, rm.NoRow, rm.NoColumn)
		if err != nil {
			return err
		}
		rm.TotalSeats = n
		return nil
	})
}

func (r *RoomRepo) GetRoom(ctx context.Context, id uint64) (model.Room, error) {
	var rm model.Room
	if err := scanRoom(r.db.QueryRowContext(ctx, roomSelect+" WHERE r.id = ?", id), &rm); err != nil {
		return rm, notFound(err, "get room")
	}
	return rm, nil
}

// ListRooms returns the rooms of a cinema ordered by name.
func (r *RoomRepo) ListRooms(ctx context.Context, cinemaID uint64) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, roomSelect+" WHERE r.cinema_id = ? ORDER BY r.name, r.id", cinemaID)
	if err != nil {
		return nil, errors.Wrap(err, "list rooms")
	}
	defer rows.Close()
	out := []model.Room{}
	for rows.Next() {
		var rm model.Room
		if err := scanRoom(rows, &rm); err != nil {
			return nil, errors.Wrap(err, "scan room")
		}
		out = append(out, rm)
	}
	return out, errors.Wrap(rows.Err(), "list rooms")
}

// UpdateRoom renames or resizes a room.  Growing the grid generates the new
// seats; shrinking deletes seats outside the grid, which fails with
// ErrConflict if any of them was ever booked.
func (r *RoomRepo) UpdateRoom(ctx context.Context, rm *model.Room) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var cur model.Room
		err := tx.QueryRowContext(ctx,
			"SELECT id, cinema_id, name, no_row, no_column FROM rooms WHERE id = ? FOR UPDATE", rm.ID).
			Scan(&cur.ID, &cur.CinemaID, &cur.Name, &cur.NoRow, &cur.NoColumn)
		if err != nil {
			return notFound(err, "lock room")
		}
		rm.CinemaID = cur.CinemaID

		if rm.NoRow < cur.NoRow || rm.NoColumn < cur.NoColumn {
			var booked int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM booking_seats bs JOIN seats s ON s.id = bs.seat_id
				 WHERE s.room_id = ? AND (s.seat_row > ? OR s.seat_col > ?)`,
				rm.ID, rm.NoRow, rm.NoColumn).Scan(&booked)
			if err != nil {
				return errors.Wrap(err, "count booked seats")
			}
			if booked > 0 {
				return ErrConflict
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM seats WHERE room_id = ? AND (seat_row > ? OR seat_col > ?)",
				rm.ID, rm.NoRow, rm.NoColumn); err != nil {
				return errors.Wrap(err, "delete out-of-grid seats")
			}
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE rooms SET name = ?, no_row = ?, no_column = ? WHERE id = ?",
			rm.Name, rm.NoRow, rm.NoColumn, rm.ID); err != nil {
			if isDuplicate(err) {
				return ErrDuplicate
			}
			return errors.Wrap(err, "update room")
		}
		n, err := generateSeatsTx(ctx, tx, rm.ID, rm.NoRow, rm.NoColumn)
		if err != nil {
			return err
		}
		rm.TotalSeats = n
		return nil
	})
}

// DeleteRoom removes a room and its seats.  Rooms with showtimes yield
// ErrConflict.
func (r *RoomRepo) DeleteRoom(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		if isFKViolation(err) {
			return ErrConflict
		}
		return errors.Wrap(err, "delete room")
	}
	return mustAffect(res, "delete room")
}

// GenerateSeats fills in any missing seats of the room grid and returns
// how many were created.  Running it on a complete grid creates nothing.
func (r *RoomRepo) GenerateSeats(ctx context.Context, roomID uint64) (int, error) {
	var created int
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var rows, cols, before int
		err := tx.QueryRowContext(ctx, "SELECT no_row, no_column FROM rooms WHERE id = ? FOR UPDATE", roomID).
			Scan(&rows, &cols)
		if err != nil {
			return notFound(err, "lock room")
		}
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM seats WHERE room_id = ?", roomID).Scan(&before); err != nil {
			return errors.Wrap(err, "count seats")
		}
		total, err := generateSeatsTx(ctx, tx, roomID, rows, cols)
		if err != nil {
			return err
		}
		created = total - before
		return nil
	})
	return created, err
}

// generateSeatsTx inserts one available seat per (row, col) of the grid.
// INSERT IGNORE on the (room_id, seat_row, seat_col) key skips existing
// seats.  Seats added to a room that already has upcoming showtimes are
// materialized for those showtimes too.  It returns the room's seat count.
func generateSeatsTx(ctx context.Context, tx *sql.Tx, roomID uint64, rows, cols int) (int, error) {
	if rows > 0 && cols > 0 {
		var sb strings.Builder
		sb.WriteString("INSERT IGNORE INTO seats (room_id, seat_row, seat_col, status) VALUES ")
		args := make([]any, 0, rows*cols*4)
		for row := 1; row <= rows; row++ {
			for col := 1; col <= cols; col++ {
				if len(args) > 0 {
					sb.WriteString(",")
				}
				sb.WriteString("(?, ?, ?, ?)")
				args = append(args, roomID, row, col, model.SeatAvailable)
			}
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return 0, errors.Wrap(err, "generate seats")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT IGNORE INTO showtime_seats (showtime_id, seat_id, status)
			 SELECT st.id, s.id, s.status FROM showtimes st JOIN seats s ON s.room_id = st.room_id
			 WHERE st.room_id = ? AND st.start_time > UTC_TIMESTAMP(6)`, roomID); err != nil {
			return 0, errors.Wrap(err, "materialize new seats")
		}
	}
	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM seats WHERE room_id = ?", roomID).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count seats")
	}
	return n, nil
}

// VenueRepo bundles the cinema, room and seat repositories behind a single
// value.
type VenueRepo struct {
	*CinemaRepo
	*RoomRepo
	*SeatRepo
}

func NewVenueRepo(db *sql.DB) *VenueRepo {
	return &VenueRepo{CinemaRepo: NewCinemaRepo(db), RoomRepo: NewRoomRepo(db), SeatRepo: NewSeatRepo(db)}
}
