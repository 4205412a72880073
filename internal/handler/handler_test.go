package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

type mockBookings struct{ mock.Mock }

func (m *mockBookings) SelectSeats(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (model.Booking, error) {
	args := m.Called(ctx, userID, showtimeID, seatIDs)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) AddSeat(ctx context.Context, userID, bookingID, seatID uint64) (model.Booking, error) {
	args := m.Called(ctx, userID, bookingID, seatID)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) RemoveSeat(ctx context.Context, userID, bookingID, seatID uint64) (model.Booking, error) {
	args := m.Called(ctx, userID, bookingID, seatID)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) Confirm(ctx context.Context, userID, bookingID uint64) (model.Booking, error) {
	args := m.Called(ctx, userID, bookingID)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) Cancel(ctx context.Context, userID, bookingID uint64, admin bool) (model.Booking, error) {
	args := m.Called(ctx, userID, bookingID, admin)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) Get(ctx context.Context, userID, bookingID uint64, admin bool) (model.Booking, error) {
	args := m.Called(ctx, userID, bookingID, admin)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) ListMine(ctx context.Context, userID uint64) ([]model.Booking, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Booking)
	return list, args.Error(1)
}

func (m *mockBookings) SeatMap(ctx context.Context, showtimeID, viewerID uint64) (model.SeatMap, error) {
	args := m.Called(ctx, showtimeID, viewerID)
	return args.Get(0).(model.SeatMap), args.Error(1)
}

func (m *mockBookings) ReleaseExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// asUser stands in for JWTAuth.
func asUser(id uint64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxUserID, id)
			c.Set(middleware.CtxRole, role)
			return next(c)
		}
	}
}

func newBookingServer(svc BookingAPI, userID uint64, role string) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	h := NewBookingHandler(svc)
	g := e.Group("/api", asUser(userID, role))
	g.GET("/showtimes/:id/seats", h.SeatMap)
	g.POST("/showtimes/:id/select-seats", h.SelectSeats)
	g.GET("/bookings", h.List)
	g.POST("/bookings/:id/confirm", h.Confirm)
	g.POST("/bookings/:id/cancel", h.Cancel)
	g.DELETE("/bookings/:id/seats/:seat_id", h.RemoveSeat)
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSelectSeatsCreated(t *testing.T) {
	svc := &mockBookings{}
	b := model.Booking{ID: 11, UserID: 5, ShowtimeID: 3, Status: model.BookingPending, ExpiredAt: time.Now().Add(10 * time.Minute)}
	svc.On("SelectSeats", mock.Anything, uint64(5), uint64(3), []uint64{1, 2}).Return(b, nil).Once()
	e := newBookingServer(svc, 5, model.RoleUser)

	rec := do(e, http.MethodPost, "/api/showtimes/3/select-seats", `{"seat_ids":[1,2]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, float64(11), body["id"])
	assert.Equal(t, "pending", body["status"])
	svc.AssertExpectations(t)
}

func TestSelectSeatsErrors(t *testing.T) {
	svc := &mockBookings{}
	e := newBookingServer(svc, 5, model.RoleUser)

	rec := do(e, http.MethodPost, "/api/showtimes/3/select-seats", `{"seat_ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation failed", decode(t, rec)["error"])

	rec = do(e, http.MethodPost, "/api/showtimes/abc/select-seats", `{"seat_ids":[1]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.On("SelectSeats", mock.Anything, uint64(5), uint64(3), []uint64{4}).
		Return(model.Booking{}, &service.SeatUnavailableError{SeatIDs: []uint64{4}}).Once()
	rec = do(e, http.MethodPost, "/api/showtimes/3/select-seats", `{"seat_ids":[4]}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"seat unavailable","unavailable":[4]}`, rec.Body.String())
}

func TestConfirmExpiredIsGone(t *testing.T) {
	svc := &mockBookings{}
	svc.On("Confirm", mock.Anything, uint64(5), uint64(9)).Return(model.Booking{}, service.ErrBookingExpired).Once()
	e := newBookingServer(svc, 5, model.RoleUser)

	rec := do(e, http.MethodPost, "/api/bookings/9/confirm", "")
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.JSONEq(t, `{"error":"booking expired"}`, rec.Body.String())
}

func TestCancelPassesAdminFlag(t *testing.T) {
	svc := &mockBookings{}
	svc.On("Cancel", mock.Anything, uint64(1), uint64(9), true).
		Return(model.Booking{ID: 9, Status: model.BookingCancelled}, nil).Once()
	e := newBookingServer(svc, 1, model.RoleAdmin)

	rec := do(e, http.MethodPost, "/api/bookings/9/cancel", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestListBookingsNeverNull(t *testing.T) {
	svc := &mockBookings{}
	svc.On("ListMine", mock.Anything, uint64(5)).Return(nil, nil).Once()
	e := newBookingServer(svc, 5, model.RoleUser)

	rec := do(e, http.MethodGet, "/api/bookings", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestRemoveSeatNotFoundCarriesDetail(t *testing.T) {
	svc := &mockBookings{}
	svc.On("RemoveSeat", mock.Anything, uint64(5), uint64(9), uint64(2)).
		Return(model.Booking{}, errors.WithHint(service.ErrNotFound, "booking is not pending")).Once()
	e := newBookingServer(svc, 5, model.RoleUser)

	rec := do(e, http.MethodDelete, "/api/bookings/9/seats/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found","detail":"booking is not pending"}`, rec.Body.String())
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrConflict, http.StatusConflict},
		{errors.Wrap(service.ErrNotFound, "lookup"), http.StatusNotFound},
		{service.Invalid("x", "bad"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, respondError(c, tc.err))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, respondError(c, errors.New("secret db detail")))
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestValidatorUsesJSONNames(t *testing.T) {
	err := NewValidator().Validate(&registerReq{Email: "not-an-email", Password: "short"})
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be a valid email", verr.Fields["email"])
	assert.Equal(t, "must be at least 8 characters", verr.Fields["password"])

	assert.NoError(t, NewValidator().Validate(&registerReq{Email: "a@b.co", Password: "12345678"}))
}
