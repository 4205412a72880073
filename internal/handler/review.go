package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

type ReviewAPI interface {
	Create(ctx context.Context, authorID, movieID uint64, rating int, comment string) (model.Review, error)
	ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error)
	Delete(ctx context.Context, userID, reviewID uint64, admin bool) error
}

type ReviewHandler struct {
	svc ReviewAPI
}

func NewReviewHandler(svc ReviewAPI) *ReviewHandler {
	if svc == nil {
		panic("nil review service passed to NewReviewHandler")
	}
	return &ReviewHandler{svc: svc}
}

type reviewReq struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required"`
}

func (h *ReviewHandler) List(c echo.Context) error {
	movieID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.svc.ListByMovie(c.Request().Context(), movieID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orEmpty(list))
}

func (h *ReviewHandler) Create(c echo.Context) error {
	movieID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req reviewReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	rv, err := h.svc.Create(c.Request().Context(), middleware.UserID(c), movieID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, rv)
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.Delete(c.Request().Context(), middleware.UserID(c), id, middleware.IsAdmin(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
