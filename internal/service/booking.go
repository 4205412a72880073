package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/cinema-booking/internal/metrics"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

const tracerName = "github.com/iliyamo/cinema-booking/internal/service"

// BookingConfig tunes the hold flow.
type BookingConfig struct {
	HoldDuration time.Duration
	MaxSeats     int
	SweepBatch   int
}

// BookingService runs seat selection, confirmation, cancellation and expiry.
type BookingService struct {
	store     BookingStore
	showtimes ShowtimeStore
	events    EventPublisher
	cache     SeatMapCache
	cfg       BookingConfig
	log       logrus.FieldLogger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewBookingService(store BookingStore, showtimes ShowtimeStore, events EventPublisher, cache SeatMapCache,
	cfg BookingConfig, log logrus.FieldLogger) *BookingService {
	if cache == nil {
		cache = nopCache{}
	}
	if cfg.HoldDuration <= 0 {
		cfg.HoldDuration = 10 * time.Minute
	}
	if cfg.MaxSeats <= 0 {
		cfg.MaxSeats = 10
	}
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = 100
	}
	return &BookingService{
		store:     store,
		showtimes: showtimes,
		events:    events,
		cache:     cache,
		cfg:       cfg,
		log:       log,
		tracer:    otel.Tracer(tracerName),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *BookingService) SetClock(now func() time.Time) { s.now = now }

func (s *BookingService) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// normalizeSeatIDs drops zeros and duplicates, keeping request order.
func normalizeSeatIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// SelectSeats holds seatIDs of a showtime for userID under a new pending
// booking.  Either every seat is held or none is.
func (s *BookingService) SelectSeats(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (b model.Booking, err error) {
	ctx, span := s.span(ctx, "booking.select",
		attribute.Int64("showtime.id", int64(showtimeID)), attribute.Int("seats.requested", len(seatIDs)))
	defer func() { endSpan(span, err) }()

	ids := normalizeSeatIDs(seatIDs)
	switch {
	case len(ids) == 0:
		return b, Invalid("seat_ids", "at least one seat is required")
	case len(ids) > s.cfg.MaxSeats:
		return b, Invalid("seat_ids", fmt.Sprintf("at most %d seats per booking", s.cfg.MaxSeats))
	}

	now := s.now()
	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return b, translate(err, "showtime not found")
	}
	if !st.StartTime.After(now) {
		return b, Invalid("showtime_id", "showtime has already started")
	}

	b, expired, err := s.store.Hold(ctx, repository.HoldRequest{
		UserID:     userID,
		ShowtimeID: showtimeID,
		SeatIDs:    ids,
		Now:        now,
		ExpiresAt:  now.Add(s.cfg.HoldDuration),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			err = translate(err, "showtime has already started")
		} else {
			err = translate(err, "showtime not found")
		}
		if errors.Is(err, ErrSeatUnavailable) {
			metrics.SeatHolds.WithLabelValues("unavailable").Inc()
		} else {
			metrics.SeatHolds.WithLabelValues("error").Inc()
		}
		return b, err
	}
	s.cache.Invalidate(ctx, showtimeID)
	// overdue holds released inside the same transaction
	for _, id := range expired {
		s.announce(ctx, queue.EventBookingExpired, id, now)
		metrics.Bookings.WithLabelValues(model.BookingExpired).Inc()
	}
	metrics.SeatHolds.WithLabelValues("ok").Inc()
	metrics.Bookings.WithLabelValues(model.BookingPending).Inc()
	span.SetAttributes(attribute.Int64("booking.id", int64(b.ID)))
	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "user_id": userID, "showtime_id": showtimeID, "seats": len(ids)}).
		Info("seats held")
	return b, nil
}

// AddSeat holds one more seat for a pending booking of userID.
func (s *BookingService) AddSeat(ctx context.Context, userID, bookingID, seatID uint64) (model.Booking, error) {
	if seatID == 0 {
		return model.Booking{}, Invalid("seat_id", "seat_id is required")
	}
	b, err := s.store.AddSeat(ctx, bookingID, userID, seatID, s.cfg.MaxSeats, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatLimit):
			return model.Booking{}, Invalid("seat_id", fmt.Sprintf("at most %d seats per booking", s.cfg.MaxSeats))
		case errors.Is(err, repository.ErrSeatTaken):
			metrics.SeatHolds.WithLabelValues("unavailable").Inc()
		}
		return model.Booking{}, translate(err, "seat is already part of this booking or the booking is not pending")
	}
	metrics.SeatHolds.WithLabelValues("ok").Inc()
	s.cache.Invalidate(ctx, b.ShowtimeID)
	return b, nil
}

// RemoveSeat releases one seat of a pending booking of userID.
func (s *BookingService) RemoveSeat(ctx context.Context, userID, bookingID, seatID uint64) (model.Booking, error) {
	b, err := s.store.RemoveSeat(ctx, bookingID, userID, seatID, s.now())
	if err != nil {
		return model.Booking{}, translate(err, "booking is not pending")
	}
	s.cache.Invalidate(ctx, b.ShowtimeID)
	return b, nil
}

// Confirm turns a pending booking of userID into a reservation.  A booking
// past its deadline can never be confirmed.
func (s *BookingService) Confirm(ctx context.Context, userID, bookingID uint64) (b model.Booking, err error) {
	ctx, span := s.span(ctx, "booking.confirm", attribute.Int64("booking.id", int64(bookingID)))
	defer func() { endSpan(span, err) }()

	now := s.now()
	b, err = s.store.Confirm(ctx, bookingID, userID, now)
	if err != nil {
		if errors.Is(err, repository.ErrEmptyBooking) {
			return b, errors.WithHint(ErrConflict, "booking has no seats")
		}
		return b, translate(err, "booking is not pending")
	}
	s.cache.Invalidate(ctx, b.ShowtimeID)
	metrics.Bookings.WithLabelValues(model.BookingReserved).Inc()
	s.publish(ctx, queue.NewBookingEvent(queue.EventBookingConfirmed, b, now))
	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "user_id": userID}).Info("booking confirmed")
	return b, nil
}

// Cancel cancels a pending or reserved booking before the showtime starts.
// Admins may cancel any booking.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID uint64, admin bool) (b model.Booking, err error) {
	ctx, span := s.span(ctx, "booking.cancel", attribute.Int64("booking.id", int64(bookingID)))
	defer func() { endSpan(span, err) }()

	owner := userID
	if admin {
		owner = 0
	}
	now := s.now()
	b, err = s.store.Cancel(ctx, bookingID, owner, now)
	if err != nil {
		return b, translate(err, "booking cannot be cancelled")
	}
	s.cache.Invalidate(ctx, b.ShowtimeID)
	metrics.Bookings.WithLabelValues(model.BookingCancelled).Inc()
	s.publish(ctx, queue.NewBookingEvent(queue.EventBookingCancelled, b, now))
	return b, nil
}

// ReleaseExpired expires every pending booking past its deadline, one
// batch at a time, and returns how many it moved.  Running it again right
// away finds nothing to do.
func (s *BookingService) ReleaseExpired(ctx context.Context) (n int, err error) {
	ctx, span := s.span(ctx, "booking.sweep")
	defer func() {
		span.SetAttributes(attribute.Int("bookings.expired", n))
		endSpan(span, err)
	}()

	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	now := s.now()
	for {
		ids, err := s.store.ListExpired(ctx, now, s.cfg.SweepBatch)
		if err != nil {
			return n, err
		}
		moved := 0
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return n, err
			}
			b, ok, err := s.store.Expire(ctx, id, now)
			if err != nil {
				s.log.WithError(err).WithField("booking_id", id).Error("sweep: expire booking failed")
				continue
			}
			if !ok {
				continue
			}
			moved++
			n++
			s.cache.Invalidate(ctx, b.ShowtimeID)
			metrics.SweepExpired.Inc()
			metrics.Bookings.WithLabelValues(model.BookingExpired).Inc()
			s.publish(ctx, queue.NewBookingEvent(queue.EventBookingExpired, b, now))
		}
		// a short or unproductive batch means the backlog is drained
		if len(ids) < s.cfg.SweepBatch || moved == 0 {
			return n, nil
		}
	}
}

// SeatMap returns every seat of the showtime with its status as seen by
// viewerID (0 for guests).  Seats held by the viewer's own pending booking
// are reported as selected, and holds past their deadline as available.
func (s *BookingService) SeatMap(ctx context.Context, showtimeID, viewerID uint64) (model.SeatMap, error) {
	raw, ok := s.cache.Get(ctx, showtimeID)
	if !ok {
		var err error
		raw, err = s.store.SeatMap(ctx, showtimeID)
		if err != nil {
			return raw, translate(err, "showtime not found")
		}
		s.cache.Set(ctx, raw)
	}
	return presentSeatMap(raw, viewerID, s.now()), nil
}

func presentSeatMap(raw model.SeatMap, viewerID uint64, now time.Time) model.SeatMap {
	out := raw
	out.Seats = make([]model.SeatState, len(raw.Seats))
	for i, st := range raw.Seats {
		if st.Status == model.SeatHold {
			switch {
			case st.HoldUntil != nil && !st.HoldUntil.After(now):
				st.Status = model.SeatAvailable
			case viewerID != 0 && st.HolderID == viewerID:
				st.Status = model.SeatSelected
			}
		}
		st.HolderID = 0
		st.HoldUntil = nil
		out.Seats[i] = st
	}
	return out
}

// Get returns a booking visible to userID.  Other users' bookings are
// reported as not found unless admin is set.
func (s *BookingService) Get(ctx context.Context, userID, bookingID uint64, admin bool) (model.Booking, error) {
	return s.owned(ctx, userID, bookingID, admin)
}

func (s *BookingService) owned(ctx context.Context, userID, bookingID uint64, admin bool) (model.Booking, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return b, translate(err, "booking not found")
	}
	if !admin && b.UserID != userID {
		return model.Booking{}, errors.WithHint(ErrNotFound, "booking not found")
	}
	return b, nil
}

// ListMine returns the bookings of userID, newest first.
func (s *BookingService) ListMine(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.store.ListByUser(ctx, userID)
}

// announce publishes an event for a booking known only by id.
func (s *BookingService) announce(ctx context.Context, typ string, bookingID uint64, now time.Time) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		s.log.WithError(err).WithField("booking_id", bookingID).Warn("event: load booking failed")
		return
	}
	s.publish(ctx, queue.NewBookingEvent(typ, b, now))
}

// publish hands the event to the broker without holding up the caller.
// Failures are logged by the publisher; the booking itself is committed.
func (s *BookingService) publish(ctx context.Context, ev queue.BookingEvent) {
	if s.events == nil {
		return
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		_ = s.events.PublishBooking(pctx, ev)
	}()
}

type nopCache struct{}

func (nopCache) Get(context.Context, uint64) (model.SeatMap, bool) { return model.SeatMap{}, false }
func (nopCache) Set(context.Context, model.SeatMap)                {}
func (nopCache) Invalidate(context.Context, uint64)                {}
