package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

type CatalogAPI interface {
	ListGenres(ctx context.Context) ([]model.Genre, error)
	GetGenre(ctx context.Context, id uint64) (model.Genre, error)
	CreateGenre(ctx context.Context, name string) (model.Genre, error)
	UpdateGenre(ctx context.Context, id uint64, name string) (model.Genre, error)
	DeleteGenre(ctx context.Context, id uint64) error

	ListActors(ctx context.Context) ([]model.Actor, error)
	GetActor(ctx context.Context, id uint64) (model.Actor, error)
	CreateActor(ctx context.Context, name string) (model.Actor, error)
	UpdateActor(ctx context.Context, id uint64, name string) (model.Actor, error)
	DeleteActor(ctx context.Context, id uint64) error

	ListMovies(ctx context.Context) ([]model.Movie, error)
	GetMovie(ctx context.Context, id uint64) (model.Movie, error)
	CreateMovie(ctx context.Context, in service.MovieInput) (model.Movie, error)
	UpdateMovie(ctx context.Context, id uint64, in service.MovieInput) (model.Movie, error)
	DeleteMovie(ctx context.Context, id uint64) error
}

type CatalogHandler struct {
	svc CatalogAPI
}

func NewCatalogHandler(svc CatalogAPI) *CatalogHandler {
	if svc == nil {
		panic("nil catalog service passed to NewCatalogHandler")
	}
	return &CatalogHandler{svc: svc}
}

type nameReq struct {
	Name string `json:"name" validate:"required,max=255"`
}

type movieReq struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description"`
	DurationMin int      `json:"duration_min" validate:"required,gt=0"`
	ReleaseDate string   `json:"release_date"`
	Genres      []uint64 `json:"genres"`
	Actors      []uint64 `json:"actors"`
}

func (r movieReq) input() (service.MovieInput, error) {
	in := service.MovieInput{
		Title:       r.Title,
		Description: r.Description,
		DurationMin: r.DurationMin,
		GenreIDs:    r.Genres,
		ActorIDs:    r.Actors,
	}
	if r.ReleaseDate != "" {
		d, err := time.Parse(time.DateOnly, r.ReleaseDate)
		if err != nil {
			return in, service.Invalid("release_date", "release_date must be YYYY-MM-DD")
		}
		in.ReleaseDate = &d
	}
	return in, nil
}

// ---- genres ----

func (h *CatalogHandler) ListGenres(c echo.Context) error {
	list, err := h.svc.ListGenres(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orEmpty(list))
}

func (h *CatalogHandler) GetGenre(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	g, err := h.svc.GetGenre(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *CatalogHandler) CreateGenre(c echo.Context) error {
	var req nameReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	g, err := h.svc.CreateGenre(c.Request().Context(), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *CatalogHandler) UpdateGenre(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req nameReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	g, err := h.svc.UpdateGenre(c.Request().Context(), id, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *CatalogHandler) DeleteGenre(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.DeleteGenre(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- actors ----

func (h *CatalogHandler) ListActors(c echo.Context) error {
	list, err := h.svc.ListActors(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orEmpty(list))
}

func (h *CatalogHandler) GetActor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.svc.GetActor(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *CatalogHandler) CreateActor(c echo.Context) error {
	var req nameReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	a, err := h.svc.CreateActor(c.Request().Context(), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *CatalogHandler) UpdateActor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req nameReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	a, err := h.svc.UpdateActor(c.Request().Context(), id, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *CatalogHandler) DeleteActor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.DeleteActor(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- movies ----

func (h *CatalogHandler) ListMovies(c echo.Context) error {
	list, err := h.svc.ListMovies(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orEmpty(list))
}

func (h *CatalogHandler) GetMovie(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	m, err := h.svc.GetMovie(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	in, err := req.input()
	if err != nil {
		return respondError(c, err)
	}
	m, err := h.svc.CreateMovie(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *CatalogHandler) UpdateMovie(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req movieReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	in, err := req.input()
	if err != nil {
		return respondError(c, err)
	}
	m, err := h.svc.UpdateMovie(c.Request().Context(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *CatalogHandler) DeleteMovie(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.DeleteMovie(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
