package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// RegisterBooking registers endpoints for signed-in users.  Seat selection
// and booking changes share a smaller rate limit bucket than the rest of
// the API.
func RegisterBooking(e *echo.Echo, h Handlers, opt Options) {
	g := e.Group(
		"/api",
		middleware.JWTAuth(h.JWTSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)

	g.GET("/me", h.Auth.Me)
	g.POST("/me/password", h.Auth.ChangePassword)

	rl := opt.RateLimit
	limit := middleware.NewTokenBucket(rl.WithCapacity(rl.BookingCapacity, rl.Prefix+":booking"), opt.Redis, opt.Log)

	g.POST("/showtimes/:id/select-seats", h.Booking.SelectSeats, limit)
	g.GET("/bookings", h.Booking.List)
	g.GET("/bookings/:id", h.Booking.Get)
	g.POST("/bookings/:id/confirm", h.Booking.Confirm, limit)
	g.POST("/bookings/:id/cancel", h.Booking.Cancel, limit)
	g.POST("/bookings/:id/seats", h.Booking.AddSeat, limit)
	g.DELETE("/bookings/:id/seats/:seat_id", h.Booking.RemoveSeat, limit)

	g.POST("/movies/:id/reviews", h.Review.Create, middleware.PurgeCache(opt.Cache, opt.Redis, opt.Log))
	g.DELETE("/reviews/:id", h.Review.Delete, middleware.PurgeCache(opt.Cache, opt.Redis, opt.Log))
}
