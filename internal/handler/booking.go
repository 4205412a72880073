package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// BookingAPI is the booking service as seen by the HTTP layer.
type BookingAPI interface {
	SelectSeats(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (model.Booking, error)
	AddSeat(ctx context.Context, userID, bookingID, seatID uint64) (model.Booking, error)
	RemoveSeat(ctx context.Context, userID, bookingID, seatID uint64) (model.Booking, error)
	Confirm(ctx context.Context, userID, bookingID uint64) (model.Booking, error)
	Cancel(ctx context.Context, userID, bookingID uint64, admin bool) (model.Booking, error)
	Get(ctx context.Context, userID, bookingID uint64, admin bool) (model.Booking, error)
	ListMine(ctx context.Context, userID uint64) ([]model.Booking, error)
	SeatMap(ctx context.Context, showtimeID, viewerID uint64) (model.SeatMap, error)
	ReleaseExpired(ctx context.Context) (int, error)
}

type BookingHandler struct {
	svc BookingAPI
}

func NewBookingHandler(svc BookingAPI) *BookingHandler {
	if svc == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	return &BookingHandler{svc: svc}
}

type selectSeatsReq struct {
	SeatIDs []uint64 `json:"seat_ids" validate:"required,min=1,dive,gt=0"`
}

type addSeatReq struct {
	SeatID uint64 `json:"seat_id" validate:"required"`
}

// SeatMap handles GET /api/showtimes/:id/seats.  Guests see holds as hold;
// an authenticated viewer sees their own as selected.
func (h *BookingHandler) SeatMap(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	sm, err := h.svc.SeatMap(c.Request().Context(), id, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sm)
}

// SelectSeats handles POST /api/showtimes/:id/select-seats.
func (h *BookingHandler) SelectSeats(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req selectSeatsReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	b, err := h.svc.SelectSeats(c.Request().Context(), middleware.UserID(c), id, req.SeatIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) List(c echo.Context) error {
	list, err := h.svc.ListMine(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orEmpty(list))
}

func (h *BookingHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	b, err := h.svc.Get(c.Request().Context(), middleware.UserID(c), id, middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Confirm(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	b, err := h.svc.Confirm(c.Request().Context(), middleware.UserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	b, err := h.svc.Cancel(c.Request().Context(), middleware.UserID(c), id, middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// AddSeat handles POST /api/bookings/:id/seats.
func (h *BookingHandler) AddSeat(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req addSeatReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	b, err := h.svc.AddSeat(c.Request().Context(), middleware.UserID(c), id, req.SeatID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// RemoveSeat handles DELETE /api/bookings/:id/seats/:seat_id.
func (h *BookingHandler) RemoveSeat(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	seatID, err := parseID(c, "seat_id")
	if err != nil {
		return respondError(c, err)
	}
	b, err := h.svc.RemoveSeat(c.Request().Context(), middleware.UserID(c), id, seatID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ReleaseExpired runs the expiry sweep on demand (admin).
func (h *BookingHandler) ReleaseExpired(c echo.Context) error {
	n, err := h.svc.ReleaseExpired(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"expired": n})
}
