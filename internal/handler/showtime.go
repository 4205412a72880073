package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

type ShowtimeAPI interface {
	Create(ctx context.Context, in service.ShowtimeInput) (model.Showtime, error)
	Update(ctx context.Context, id uint64, in service.ShowtimeInput) (model.Showtime, error)
	Delete(ctx context.Context, id uint64) error
	Get(ctx context.Context, id uint64) (model.Showtime, error)
	List(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error)
}

type ShowtimeHandler struct {
	svc ShowtimeAPI
}

func NewShowtimeHandler(svc ShowtimeAPI) *ShowtimeHandler {
	if svc == nil {
		panic("nil showtime service passed to NewShowtimeHandler")
	}
	return &ShowtimeHandler{svc: svc}
}

type showtimeReq struct {
	MovieID   uint64    `json:"movie_id" validate:"required"`
	RoomID    uint64    `json:"room_id" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	Price     int       `json:"price" validate:"gte=0"`
}

type showtimeUpdateReq struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	Price     int       `json:"price" validate:"gte=0"`
}

// List handles GET /api/showtimes with optional movie_id, room_id and
// date (YYYY-MM-DD) filters.
func (h *ShowtimeHandler) List(c echo.Context) error {
	var (
		f   model.ShowtimeFilter
		err error
	)
	if f.MovieID, err = queryID(c, "movie_id"); err != nil {
		return respondError(c, err)
	}
	if f.RoomID, err = queryID(c, "room_id"); err != nil {
		return respondError(c, err)
	}
	if raw := c.QueryParam("date"); raw != "" {
		if f.Date, err = time.Parse(time.DateOnly, raw); err != nil {
			return respondError(c, service.Invalid("date", "date must be YYYY-MM-DD"))
		}
	}
	list, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orEmpty(list))
}

func (h *ShowtimeHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	st, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *ShowtimeHandler) Create(c echo.Context) error {
	var req showtimeReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	st, err := h.svc.Create(c.Request().Context(), service.ShowtimeInput{
		MovieID: req.MovieID, RoomID: req.RoomID, StartTime: req.StartTime, Price: req.Price,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *ShowtimeHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req showtimeUpdateReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	st, err := h.svc.Update(c.Request().Context(), id, service.ShowtimeInput{StartTime: req.StartTime, Price: req.Price})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *ShowtimeHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
