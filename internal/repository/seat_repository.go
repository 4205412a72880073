package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatRepo provides access to seats and seat types.
type SeatRepo struct {
	db *sql.DB
}

func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

const seatSelect = `SELECT s.id, s.room_id, s.seat_row, s.seat_col, s.status,
       t.id, t.name, t.extra_price
FROM seats s LEFT JOIN seat_types t ON t.id = s.seat_type_id`

func scanSeat(row interface{ Scan(...any) error }, s *model.Seat) error {
	var (
		typeID    sql.NullInt64
		typeName  sql.NullString
		typeExtra sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.RoomID, &s.Row, &s.Col, &s.Status, &typeID, &typeName, &typeExtra); err != nil {
		return err
	}
	if typeID.Valid {
		id := uint64(typeID.Int64)
		s.SeatTypeID = &id
		s.SeatType = &model.SeatType{ID: id, Name: typeName.String, ExtraPrice: int(typeExtra.Int64)}
	}
	return nil
}

// ListSeats returns the seats of a room in row-major order.
func (r *SeatRepo) ListSeats(ctx context.Context, roomID uint64) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx, seatSelect+" WHERE s.room_id = ? ORDER BY s.seat_row, s.seat_col", roomID)
	if err != nil {
		return nil, errors.Wrap(err, "list seats")
	}
	defer rows.Close()
	out := []model.Seat{}
	for rows.Next() {
		var s model.Seat
		if err := scanSeat(rows, &s); err != nil {
			return nil, errors.Wrap(err, "scan seat")
		}
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "list seats")
}

func (r *SeatRepo) GetSeat(ctx context.Context, id uint64) (model.Seat, error) {
	var s model.Seat
	if err := scanSeat(r.db.QueryRowContext(ctx, seatSelect+" WHERE s.id = ?", id), &s); err != nil {
		return s, notFound(err, "get seat")
	}
	return s, nil
}

// UpdateSeat sets the seat type and layout status.  A status change is
// mirrored onto the seat's rows of showtimes that have not started, but
// only where the seat is not held or reserved.
func (r *SeatRepo) UpdateSeat(ctx context.Context, id uint64, seatTypeID *uint64, status string, now time.Time) (model.Seat, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var prev string
		if err := tx.QueryRowContext(ctx, "SELECT status FROM seats WHERE id = ? FOR UPDATE", id).Scan(&prev); err != nil {
			return notFound(err, "lock seat")
		}
		var typeArg any
		if seatTypeID != nil {
			typeArg = *seatTypeID
		}
		if _, err := tx.ExecContext(ctx, "UPDATE seats SET seat_type_id = ?, status = ? WHERE id = ?", typeArg, status, id); err != nil {
			if isFKViolation(err) {
				return ErrNotFound
			}
			return errors.Wrap(err, "update seat")
		}
		if prev == status {
			return nil
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE showtime_seats ss JOIN showtimes st ON st.id = ss.showtime_id
			 SET ss.status = ?
			 WHERE ss.seat_id = ? AND ss.status = ? AND st.start_time > ?`,
			status, id, prev, now.UTC())
		return errors.Wrap(err, "mirror seat status")
	})
	if err != nil {
		return model.Seat{}, err
	}
	return r.GetSeat(ctx, id)
}

// ---- seat types ----

func (r *SeatRepo) ListSeatTypes(ctx context.Context) ([]model.SeatType, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, extra_price FROM seat_types ORDER BY extra_price, name")
	if err != nil {
		return nil, errors.Wrap(err, "list seat types")
	}
	defer rows.Close()
	out := []model.SeatType{}
	for rows.Next() {
		var t model.SeatType
		if err := rows.Scan(&t.ID, &t.Name, &t.ExtraPrice); err != nil {
			return nil, errors.Wrap(err, "scan seat type")
		}
		out = append(out, t)
	}
	return out, errors.Wrap(rows.Err(), "list seat types")
}

func (r *SeatRepo) GetSeatType(ctx context.Context, id uint64) (model.SeatType, error) {
	var t model.SeatType
	err := r.db.QueryRowContext(ctx, "SELECT id, name, extra_price FROM seat_types WHERE id = ?", id).
		Scan(&t.ID, &t.Name, &t.ExtraPrice)
	if err != nil {
		return t, notFound(err, "get seat type")
	}
	return t, nil
}

func (r *SeatRepo) CreateSeatType(ctx context.Context, t *model.SeatType) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO seat_types (name, extra_price) VALUES (?, ?)", t.Name, t.ExtraPrice)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return errors.Wrap(err, "insert seat type")
	}
	id, _ := res.LastInsertId()
	t.ID = uint64(id)
	return nil
}

func (r *SeatRepo) UpdateSeatType(ctx context.Context, t *model.SeatType) error {
	if _, err := r.GetSeatType(ctx, t.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE seat_types SET name = ?, extra_price = ? WHERE id = ?", t.Name, t.ExtraPrice, t.ID)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "update seat type")
}

// DeleteSeatType removes a seat type; seats using it fall back to no type.
func (r *SeatRepo) DeleteSeatType(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM seat_types WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "delete seat type")
	}
	return mustAffect(res, "delete seat type")
}
