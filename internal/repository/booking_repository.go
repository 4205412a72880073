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

// BookingRepo implements the seat hold flow.  Every status change is a
// conditional UPDATE keyed on the expected previous status, run inside a
// transaction together with the matching showtime_seats change, so a seat
// and its booking never disagree.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// HoldRequest describes a select-seats call.  SeatIDs must be deduplicated
// and non-empty.
type HoldRequest struct {
	UserID     uint64
	ShowtimeID uint64
	SeatIDs    []uint64
	Now        time.Time
	ExpiresAt  time.Time
}

// Hold creates a pending booking owning all requested seats, or fails
// without side effects.  Overdue pending bookings of the showtime are
// expired first; their ids are returned so callers can announce them.
// A seat that is not available yields *SeatsTakenError.
func (r *BookingRepo) Hold(ctx context.Context, req HoldRequest) (model.Booking, []uint64, error) {
	if len(req.SeatIDs) == 0 {
		return model.Booking{}, nil, errors.New("hold: no seats")
	}
	var (
		bookingID uint64
		expired   []uint64
	)
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			price int
			start time.Time
		)
		err := tx.QueryRowContext(ctx, "SELECT price, start_time FROM showtimes WHERE id = ?", req.ShowtimeID).
			Scan(&price, &start)
		if err != nil {
			return notFound(err, "get showtime")
		}
		if !start.After(req.Now) {
			return ErrConflict
		}

		expired, err = expireDueTx(ctx, tx, req.ShowtimeID, req.Now)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO bookings (user_id, showtime_id, status, expired_at, total_amount, created_at)
			 VALUES (?, ?, ?, ?, 0, ?)`,
			req.UserID, req.ShowtimeID, model.BookingPending, req.ExpiresAt.UTC(), req.Now.UTC())
		if err != nil {
			return errors.Wrap(err, "insert booking")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errors.Wrap(err, "booking id")
		}
		bookingID = uint64(id)

		// available -> hold, all or nothing.
		args := append([]any{model.SeatHold, bookingID, req.ShowtimeID, model.SeatAvailable}, idArgs(req.SeatIDs)...)
		res, err = tx.ExecContext(ctx,
			`UPDATE showtime_seats SET status = ?, booking_id = ?
			 WHERE showtime_id = ? AND status = ? AND seat_id IN (`+placeholders(len(req.SeatIDs))+`)`,
			args...)
		if err != nil {
			return errors.Wrap(err, "hold seats")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "hold seats")
		}
		if int(n) != len(req.SeatIDs) {
			taken, err := missingSeatsTx(ctx, tx, req.ShowtimeID, bookingID, req.SeatIDs)
			if err != nil {
				return err
			}
			return &SeatsTakenError{SeatIDs: taken}
		}

		if err := insertBookingSeatsTx(ctx, tx, bookingID, req.ShowtimeID, price, req.SeatIDs); err != nil {
			return err
		}
		return updateTotalTx(ctx, tx, bookingID)
	})
	if err != nil {
		if isLockFailure(err) {
			return model.Booking{}, nil, &SeatsTakenError{SeatIDs: req.SeatIDs}
		}
		return model.Booking{}, nil, err
	}
	b, err := r.Get(ctx, bookingID)
	return b, expired, err
}

// missingSeatsTx lists the requested seats that the booking failed to
// acquire.
func missingSeatsTx(ctx context.Context, tx *sql.Tx, showtimeID, bookingID uint64, seatIDs []uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT seat_id FROM showtime_seats WHERE showtime_id = ? AND booking_id = ?",
		showtimeID, bookingID)
	if err != nil {
		return nil, errors.Wrap(err, "list acquired seats")
	}
	defer rows.Close()
	got := make(map[uint64]bool, len(seatIDs))
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan acquired seat")
		}
		got[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list acquired seats")
	}
	var taken []uint64
	for _, id := range seatIDs {
		if !got[id] {
			taken = append(taken, id)
		}
	}
	return taken, nil
}

// insertBookingSeatsTx links seats to the booking at the showtime price
// plus the seat type surcharge.
func insertBookingSeatsTx(ctx context.Context, tx *sql.Tx, bookingID, showtimeID uint64, basePrice int, seatIDs []uint64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT s.id, COALESCE(t.extra_price, 0) FROM seats s
		 LEFT JOIN seat_types t ON t.id = s.seat_type_id
		 WHERE s.id IN (`+placeholders(len(seatIDs))+`)`,
		idArgs(seatIDs)...)
	if err != nil {
		return errors.Wrap(err, "load seat prices")
	}
	extra := make(map[uint64]int, len(seatIDs))
	for rows.Next() {
		var (
			id uint64
			e  int
		)
		if err := rows.Scan(&id, &e); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan seat price")
		}
		extra[id] = e
	}
	if err := rows.Close(); err != nil {
		return errors.Wrap(err, "load seat prices")
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO booking_seats (booking_id, seat_id, showtime_id, price) VALUES ")
	args := make([]any, 0, len(seatIDs)*4)
	for i, id := range seatIDs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, bookingID, id, showtimeID, basePrice+extra[id])
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return errors.Wrap(err, "insert booking seats")
	}
	return nil
}

func updateTotalTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET total_amount =
		   (SELECT COALESCE(SUM(price), 0) FROM booking_seats WHERE booking_id = ?)
		 WHERE id = ?`,
		bookingID, bookingID)
	return errors.Wrap(err, "update booking total")
}

// expireDueTx moves the overdue pending bookings of a showtime to expired
// and frees their seats.  It returns the expired booking ids.
func expireDueTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, now time.Time) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM bookings
		 WHERE showtime_id = ? AND status = ? AND expired_at <= ? FOR UPDATE`,
		showtimeID, model.BookingPending, now.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "find overdue bookings")
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan overdue booking")
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, errors.Wrap(err, "find overdue bookings")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	in := placeholders(len(ids))
	args := append([]any{model.BookingExpired, model.BookingPending}, idArgs(ids)...)
	if _, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status = ? WHERE status = ? AND id IN ("+in+")", args...); err != nil {
		return nil, errors.Wrap(err, "expire bookings")
	}
	args = append([]any{model.SeatAvailable, model.SeatHold}, idArgs(ids)...)
	if _, err := tx.ExecContext(ctx,
		"UPDATE showtime_seats SET status = ?, booking_id = NULL WHERE status = ? AND booking_id IN ("+in+")", args...); err != nil {
		return nil, errors.Wrap(err, "release expired seats")
	}
	return ids, nil
}

// bookingRow is the locked state of a booking used to validate a
// transition.
type bookingRow struct {
	userID     uint64
	showtimeID uint64
	status     string
	expiredAt  time.Time
	startTime  time.Time
	price      int
}

func lockBookingTx(ctx context.Context, tx *sql.Tx, id uint64) (bookingRow, error) {
	var b bookingRow
	err := tx.QueryRowContext(ctx,
		`SELECT b.user_id, b.showtime_id, b.status, b.expired_at, st.start_time, st.price
		 FROM bookings b JOIN showtimes st ON st.id = b.showtime_id
		 WHERE b.id = ? FOR UPDATE`, id).
		Scan(&b.userID, &b.showtimeID, &b.status, &b.expiredAt, &b.startTime, &b.price)
	if err != nil {
		return b, notFound(err, "lock booking")
	}
	return b, nil
}

// editable checks that the booking belongs to userID and can still change
// its seats at now.
func (b bookingRow) editable(userID uint64, now time.Time) error {
	switch {
	case b.userID != userID:
		return ErrNotFound
	case b.status == model.BookingExpired:
		return ErrExpired
	case b.status != model.BookingPending:
		return ErrConflict
	case !b.expiredAt.After(now):
		return ErrExpired
	}
	return nil
}

// AddSeat puts one more seat on hold for a pending booking holding fewer
// than maxSeats seats.  The expiry window is not extended.
func (r *BookingRepo) AddSeat(ctx context.Context, bookingID, userID, seatID uint64, maxSeats int, now time.Time) (model.Booking, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		b, err := lockBookingTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := b.editable(userID, now); err != nil {
			return err
		}
		// the booking row lock serializes concurrent adds, so the count is stable
		var held int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM booking_seats WHERE booking_id = ?", bookingID).Scan(&held); err != nil {
			return errors.Wrap(err, "count booking seats")
		}
		if held >= maxSeats {
			return ErrSeatLimit
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE showtime_seats SET status = ?, booking_id = ?
			 WHERE showtime_id = ? AND seat_id = ? AND status = ?`,
			model.SeatHold, bookingID, b.showtimeID, seatID, model.SeatAvailable)
		if err != nil {
			return errors.Wrap(err, "hold seat")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "hold seat")
		}
		if n == 0 {
			var holder sql.NullInt64
			err := tx.QueryRowContext(ctx,
				"SELECT booking_id FROM showtime_seats WHERE showtime_id = ? AND seat_id = ?",
				b.showtimeID, seatID).Scan(&holder)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return errors.Wrap(err, "inspect seat")
			}
			if holder.Valid && uint64(holder.Int64) == bookingID {
				return ErrDuplicate
			}
			return &SeatsTakenError{SeatIDs: []uint64{seatID}}
		}
		if err := insertBookingSeatsTx(ctx, tx, bookingID, b.showtimeID, b.price, []uint64{seatID}); err != nil {
			return err
		}
		return updateTotalTx(ctx, tx, bookingID)
	})
	if err != nil {
		if isLockFailure(err) {
			return model.Booking{}, &SeatsTakenError{SeatIDs: []uint64{seatID}}
		}
		return model.Booking{}, err
	}
	return r.Get(ctx, bookingID)
}

// RemoveSeat releases one seat of a pending booking.  A booking left with
// no seats stays pending until it expires or is cancelled.
func (r *BookingRepo) RemoveSeat(ctx context.Context, bookingID, userID, seatID uint64, now time.Time) (model.Booking, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		b, err := lockBookingTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := b.editable(userID, now); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE showtime_seats SET status = ?, booking_id = NULL
			 WHERE showtime_id = ? AND seat_id = ? AND booking_id = ? AND status = ?`,
			model.SeatAvailable, b.showtimeID, seatID, bookingID, model.SeatHold)
		if err != nil {
			return errors.Wrap(err, "release seat")
		}
		if err := mustAffect(res, "release seat"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM booking_seats WHERE booking_id = ? AND seat_id = ?", bookingID, seatID); err != nil {
			return errors.Wrap(err, "delete booking seat")
		}
		return updateTotalTx(ctx, tx, bookingID)
	})
	if err != nil {
		return model.Booking{}, err
	}
	return r.Get(ctx, bookingID)
}

// Confirm moves a pending, unexpired booking of userID to reserved and its
// seats from hold to reserved.  When the guarded update matches nothing
// the row is inspected to explain why: ErrExpired past the deadline,
// ErrNotFound for a missing or foreign booking, ErrConflict otherwise.
func (r *BookingRepo) Confirm(ctx context.Context, bookingID, userID uint64, now time.Time) (model.Booking, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?
			 WHERE id = ? AND user_id = ? AND status = ? AND expired_at > ?`,
			model.BookingReserved, bookingID, userID, model.BookingPending, now.UTC())
		if err != nil {
			return errors.Wrap(err, "confirm booking")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "confirm booking")
		}
		if n == 0 {
			return explainConfirmTx(ctx, tx, bookingID, userID, now)
		}

		var want int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM booking_seats WHERE booking_id = ?", bookingID).Scan(&want); err != nil {
			return errors.Wrap(err, "count booking seats")
		}
		if want == 0 {
			return errors.Wrapf(ErrEmptyBooking, "booking %d", bookingID)
		}
		res, err = tx.ExecContext(ctx,
			"UPDATE showtime_seats SET status = ? WHERE booking_id = ? AND status = ?",
			model.SeatReserved, bookingID, model.SeatHold)
		if err != nil {
			return errors.Wrap(err, "reserve seats")
		}
		got, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "reserve seats")
		}
		if int(got) != want {
			return errors.Wrapf(ErrConflict, "booking %d holds %d of %d seats", bookingID, got, want)
		}
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}
	return r.Get(ctx, bookingID)
}

func explainConfirmTx(ctx context.Context, tx *sql.Tx, bookingID, userID uint64, now time.Time) error {
	var (
		owner     uint64
		status    string
		expiredAt time.Time
	)
	err := tx.QueryRowContext(ctx,
		"SELECT user_id, status, expired_at FROM bookings WHERE id = ?", bookingID).
		Scan(&owner, &status, &expiredAt)
	if err != nil {
		return notFound(err, "inspect booking")
	}
	switch {
	case owner != userID:
		return ErrNotFound
	case status == model.BookingExpired:
		return ErrExpired
	case status == model.BookingPending && !expiredAt.After(now):
		return ErrExpired
	}
	return ErrConflict
}

// Cancel moves a pending or reserved booking to cancelled and frees its
// seats.  Bookings of a showtime that has started cannot be cancelled.
// A zero userID skips the ownership check.
func (r *BookingRepo) Cancel(ctx context.Context, bookingID, userID uint64, now time.Time) (model.Booking, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		b, err := lockBookingTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if userID != 0 && b.userID != userID {
			return ErrNotFound
		}
		if !b.startTime.After(now) {
			return ErrConflict
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE bookings SET status = ? WHERE id = ? AND status IN (?, ?)",
			model.BookingCancelled, bookingID, model.BookingPending, model.BookingReserved)
		if err != nil {
			return errors.Wrap(err, "cancel booking")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "cancel booking")
		}
		if n == 0 {
			return ErrConflict
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE showtime_seats SET status = ?, booking_id = NULL WHERE booking_id = ? AND status IN (?, ?)",
			model.SeatAvailable, bookingID, model.SeatHold, model.SeatReserved)
		return errors.Wrap(err, "release seats")
	})
	if err != nil {
		return model.Booking{}, err
	}
	return r.Get(ctx, bookingID)
}

// ListExpired returns up to limit pending bookings whose deadline passed.
func (r *BookingRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM bookings WHERE status = ? AND expired_at <= ?
		 ORDER BY expired_at, id LIMIT ?`,
		model.BookingPending, now.UTC(), limit)
	if err != nil {
		return nil, errors.Wrap(err, "list expired bookings")
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan expired booking")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "list expired bookings")
}

// Expire moves one overdue pending booking to expired and releases its
// seats.  The boolean is false when the booking was already handled, for
// instance confirmed or expired by a concurrent caller.
func (r *BookingRepo) Expire(ctx context.Context, bookingID uint64, now time.Time) (model.Booking, bool, error) {
	var done bool
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE bookings SET status = ? WHERE id = ? AND status = ? AND expired_at <= ?",
			model.BookingExpired, bookingID, model.BookingPending, now.UTC())
		if err != nil {
			return errors.Wrap(err, "expire booking")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "expire booking")
		}
		if n == 0 {
			return nil
		}
		done = true
		_, err = tx.ExecContext(ctx,
			"UPDATE showtime_seats SET status = ?, booking_id = NULL WHERE booking_id = ? AND status = ?",
			model.SeatAvailable, bookingID, model.SeatHold)
		return errors.Wrap(err, "release seats")
	})
	if err != nil || !done {
		return model.Booking{}, false, err
	}
	b, err := r.Get(ctx, bookingID)
	return b, true, err
}

// Get returns a booking with its seats and showtime.
func (r *BookingRepo) Get(ctx context.Context, id uint64) (model.Booking, error) {
	var b model.Booking
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, showtime_id, status, expired_at, total_amount, created_at
		 FROM bookings WHERE id = ?`, id).
		Scan(&b.ID, &b.UserID, &b.ShowtimeID, &b.Status, &b.ExpiredAt, &b.TotalAmount, &b.CreatedAt)
	if err != nil {
		return b, notFound(err, "get booking")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT bs.id, bs.seat_id, s.seat_row, s.seat_col, bs.price
		 FROM booking_seats bs JOIN seats s ON s.id = bs.seat_id
		 WHERE bs.booking_id = ? ORDER BY s.seat_row, s.seat_col`, id)
	if err != nil {
		return b, errors.Wrap(err, "load booking seats")
	}
	b.Seats = []model.BookingSeat{}
	for rows.Next() {
		bs := model.BookingSeat{BookingID: id}
		if err := rows.Scan(&bs.ID, &bs.SeatID, &bs.Row, &bs.Col, &bs.Price); err != nil {
			rows.Close()
			return b, errors.Wrap(err, "scan booking seat")
		}
		b.Seats = append(b.Seats, bs)
	}
	if err := rows.Close(); err != nil {
		return b, errors.Wrap(err, "load booking seats")
	}

	var st model.Showtime
	if err := scanShowtime(r.db.QueryRowContext(ctx, showtimeSelect+" WHERE st.id = ?", b.ShowtimeID), &st); err != nil {
		return b, notFound(err, "load booking showtime")
	}
	b.Showtime = &st
	return b, nil
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, errors.Wrap(err, "list bookings")
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan booking id")
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, errors.Wrap(err, "list bookings")
	}
	out := make([]model.Booking, 0, len(ids))
	for _, id := range ids {
		b, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// SeatMap returns the stored state of every seat of the showtime's room.
// Held seats carry the holder and the hold deadline; callers decide how to
// present holds that have lapsed.
func (r *BookingRepo) SeatMap(ctx context.Context, showtimeID uint64) (model.SeatMap, error) {
	sm := model.SeatMap{ShowtimeID: showtimeID}
	var price int
	err := r.db.QueryRowContext(ctx,
		`SELECT st.room_id, st.price, r.no_row, r.no_column
		 FROM showtimes st JOIN rooms r ON r.id = st.room_id WHERE st.id = ?`, showtimeID).
		Scan(&sm.RoomID, &price, &sm.NoRow, &sm.NoColumn)
	if err != nil {
		return sm, notFound(err, "get showtime")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.seat_row, s.seat_col, t.id, t.name, t.extra_price,
		        ss.status, b.user_id, b.expired_at
		 FROM showtime_seats ss
		 JOIN seats s ON s.id = ss.seat_id
		 LEFT JOIN seat_types t ON t.id = s.seat_type_id
		 LEFT JOIN bookings b ON b.id = ss.booking_id
		 WHERE ss.showtime_id = ?
		 ORDER BY s.seat_row, s.seat_col`, showtimeID)
	if err != nil {
		return sm, errors.Wrap(err, "load seat map")
	}
	defer rows.Close()
	sm.Seats = []model.SeatState{}
	for rows.Next() {
		var (
			st        model.SeatState
			typeID    sql.NullInt64
			typeName  sql.NullString
			typeExtra sql.NullInt64
			holder    sql.NullInt64
			until     sql.NullTime
		)
		if err := rows.Scan(&st.SeatID, &st.Row, &st.Col, &typeID, &typeName, &typeExtra,
			&st.Status, &holder, &until); err != nil {
			return sm, errors.Wrap(err, "scan seat state")
		}
		st.Label = model.Seat{Row: st.Row, Col: st.Col}.Label()
		st.Price = price
		if typeID.Valid {
			st.SeatType = &model.SeatType{ID: uint64(typeID.Int64), Name: typeName.String, ExtraPrice: int(typeExtra.Int64)}
			st.Price += int(typeExtra.Int64)
		}
		if holder.Valid {
			st.HolderID = uint64(holder.Int64)
		}
		if st.Status == model.SeatHold && until.Valid {
			t := until.Time
			st.HoldUntil = &t
		}
		sm.Seats = append(sm.Seats, st)
	}
	return sm, errors.Wrap(rows.Err(), "load seat map")
}
