package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
)

type VenueAPI interface {
	ListCinemas(ctx context.Context) ([]model.Cinema, error)
	GetCinema(ctx context.Context, id uint64) (model.Cinema, error)
	CreateCinema(ctx context.Context, c model.Cinema) (model.Cinema, error)
	UpdateCinema(ctx context.Context, c model.Cinema) (model.Cinema, error)
	DeleteCinema(ctx context.Context, id uint64) error

	ListRooms(ctx context.Context, cinemaID uint64) ([]model.Room, error)
	GetRoom(ctx context.Context, id uint64) (model.Room, error)
	CreateRoom(ctx context.Context, r model.Room) (model.Room, error)
	UpdateRoom(ctx context.Context, r model.Room) (model.Room, error)
	DeleteRoom(ctx context.Context, id uint64) error
	GenerateSeats(ctx context.Context, roomID uint64) (int, error)

	ListSeats(ctx context.Context, roomID uint64) ([]model.Seat, error)
	UpdateSeat(ctx context.Context, id uint64, seatTypeID *uint64, status string) (model.Seat, error)

	ListSeatTypes(ctx context.Context) ([]model.SeatType, error)
	CreateSeatType(ctx context.Context, t model.SeatType) (model.SeatType, error)
	UpdateSeatType(ctx context.Context, t model.SeatType) (model.SeatType, error)
	DeleteSeatType(ctx context.Context, id uint64) error
}

// VenueHandler serves cinemas, rooms, seats and seat types.
type VenueHandler struct {
	svc VenueAPI
}

func NewVenueHandler(svc VenueAPI) *VenueHandler {
	if svc == nil {
		panic("nil venue service passed to NewVenueHandler")
	}
	return &VenueHandler{svc: svc}
}

type cinemaReq struct {
	Name     string `json:"name" validate:"required,max=255"`
	Street   string `json:"street" validate:"max=255"`
	Ward     string `json:"ward" validate:"max=255"`
	District string `json:"district" validate:"max=255"`
	City     string `json:"city" validate:"max=255"`
}

func (r cinemaReq) model(id uint64) model.Cinema {
	return model.Cinema{ID: id, Name: r.Name, Street: r.Street, Ward: r.Ward, District: r.District, City: r.City}
}

type roomReq struct {
	CinemaID uint64 `json:"cinema_id"`
	Name     string `json:"name" validate:"required,max=100"`
	NoRow    int    `json:"no_row" validate:"required,gte=1,lte=50"`
	NoColumn int    `json:"no_column" validate:"required,gte=1,lte=50"`
}

type seatReq struct {
	SeatTypeID *uint64 `json:"seat_type_id"`
	Status     string  `json:"status" validate:"omitempty,oneof=available unavailable"`
}

type seatTypeReq struct {
	Name       string `json:"name" validate:"required,max=100"`
	ExtraPrice int    `json:"extra_price" validate:"gte=0"`
}

// ---- cinemas ----

func (h *VenueHandler) ListCinemas(c echo.Context) error {
	list, err := h.svc.ListCinemas(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orEmpty(list))
}

func (h *VenueHandler) GetCinema(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	cin, err := h.svc.GetCinema(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cin)
}

func (h *VenueHandler) CreateCinema(c echo.Context) error {
	var req cinemaReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	cin, err := h.svc.CreateCinema(c.Request().Context(), req.model(0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, cin)
}

func (h *VenueHandler) UpdateCinema(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req cinemaReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	cin, err := h.svc.UpdateCinema(c.Request().Context(), req.model(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cin)
}

func (h *VenueHandler) DeleteCinema(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.DeleteCinema(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- rooms ----

// ListRooms handles GET /api/cinemas/:id/rooms.
func (h *VenueHandler) ListRooms(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.svc.ListRooms(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orEmpty(list))
}

func (h *VenueHandler) GetRoom(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.svc.GetRoom(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// CreateRoom creates the room with its full seat grid.
func (h *VenueHandler) CreateRoom(c echo.Context) error {
	var req roomReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	r, err := h.svc.CreateRoom(c.Request().Context(), model.Room{
		CinemaID: req.CinemaID, Name: req.Name, NoRow: req.NoRow, NoColumn: req.NoColumn,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *VenueHandler) UpdateRoom(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req roomReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	r, err := h.svc.UpdateRoom(c.Request().Context(), model.Room{
		ID: id, Name: req.Name, NoRow: req.NoRow, NoColumn: req.NoColumn,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *VenueHandler) DeleteRoom(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.DeleteRoom(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GenerateSeats handles POST /api/admin/rooms/:id/generate-seats.
func (h *VenueHandler) GenerateSeats(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	n, err := h.svc.GenerateSeats(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"created": n})
}

// ---- seats ----

// ListSeats handles GET /api/rooms/:id/seats.
func (h *VenueHandler) ListSeats(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.svc.ListSeats(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orEmpty(list))
}

func (h *VenueHandler) UpdateSeat(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req seatReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	s, err := h.svc.UpdateSeat(c.Request().Context(), id, req.SeatTypeID, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// ---- seat types ----

func (h *VenueHandler) ListSeatTypes(c echo.Context) error {
	list, err := h.svc.ListSeatTypes(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orEmpty(list))
}

func (h *VenueHandler) CreateSeatType(c echo.Context) error {
	var req seatTypeReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	t, err := h.svc.CreateSeatType(c.Request().Context(), model.SeatType{Name: req.Name, ExtraPrice: req.ExtraPrice})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *VenueHandler) UpdateSeatType(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req seatTypeReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	t, err := h.svc.UpdateSeatType(c.Request().Context(), model.SeatType{ID: id, Name: req.Name, ExtraPrice: req.ExtraPrice})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *VenueHandler) DeleteSeatType(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.DeleteSeatType(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
