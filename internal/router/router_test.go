package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

const secret = "router-secret"

type stubIdentity struct{ handler.IdentityAPI }
type stubBooking struct{ handler.BookingAPI }
type stubVenue struct{ handler.VenueAPI }
type stubShowtime struct{ handler.ShowtimeAPI }
type stubReview struct{ handler.ReviewAPI }

type stubCatalog struct{ handler.CatalogAPI }

func (stubCatalog) ListGenres(context.Context) ([]model.Genre, error) {
	return []model.Genre{{ID: 1, Name: "Drama"}}, nil
}

func (stubCatalog) CreateGenre(_ context.Context, name string) (model.Genre, error) {
	return model.Genre{ID: 2, Name: name}, nil
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func newTestServer(db handler.Pinger) *echo.Echo {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(Handlers{
		Auth:      handler.NewAuthHandler(stubIdentity{}),
		Booking:   handler.NewBookingHandler(stubBooking{}),
		Catalog:   handler.NewCatalogHandler(stubCatalog{}),
		Review:    handler.NewReviewHandler(stubReview{}),
		Showtime:  handler.NewShowtimeHandler(stubShowtime{}),
		Venue:     handler.NewVenueHandler(stubVenue{}),
		DB:        db,
		JWTSecret: secret,
	}, Options{Service: "cinema-booking-test", Log: log})
}

func call(e *echo.Echo, method, path, body, tok string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, time.Minute, time.Now())
	require.NoError(t, err)
	return tok.Token
}

func TestRoutesRegistered(t *testing.T) {
	e := newTestServer(nil)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /metrics",
		"GET /api/showtimes/:id/seats",
		"POST /api/showtimes/:id/select-seats",
		"POST /api/bookings/:id/confirm",
		"DELETE /api/bookings/:id/seats/:seat_id",
		"GET /api/activate/:uid/:token/",
		"POST /api/auth/password-reset/confirm",
		"PATCH /api/admin/seats/:id",
		"POST /api/admin/rooms/:id/generate-seats",
		"POST /api/admin/bookings/release-expired",
	} {
		assert.True(t, have[want], want)
	}
}

func TestHealth(t *testing.T) {
	rec := call(newTestServer(pinger{}), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(newTestServer(pinger{err: errors.New("down")}), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAccessLevels(t *testing.T) {
	e := newTestServer(nil)

	rec := call(e, http.MethodGet, "/api/genres", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Drama")

	rec = call(e, http.MethodPost, "/api/admin/genres", `{"name":"Noir"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(e, http.MethodPost, "/api/admin/genres", `{"name":"Noir"}`, bearer(t, 7, model.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(e, http.MethodPost, "/api/admin/genres", `{"name":"Noir"}`, bearer(t, 1, model.RoleAdmin))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = call(e, http.MethodPost, "/api/showtimes/1/select-seats", `{"seat_ids":[1]}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
