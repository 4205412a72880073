package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// RegisterAdmin registers catalog, venue and showtime management under
// /api/admin.  Successful writes purge the public response cache.
func RegisterAdmin(e *echo.Echo, h Handlers, opt Options) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(h.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
		middleware.PurgeCache(opt.Cache, opt.Redis, opt.Log),
	)

	// ---- Catalog ----
	g.GET("/genres", h.Catalog.ListGenres)
	g.POST("/genres", h.Catalog.CreateGenre)
	g.GET("/genres/:id", h.Catalog.GetGenre)
	g.PUT("/genres/:id", h.Catalog.UpdateGenre)
	g.DELETE("/genres/:id", h.Catalog.DeleteGenre)

	g.GET("/actors", h.Catalog.ListActors)
	g.POST("/actors", h.Catalog.CreateActor)
	g.GET("/actors/:id", h.Catalog.GetActor)
	g.PUT("/actors/:id", h.Catalog.UpdateActor)
	g.DELETE("/actors/:id", h.Catalog.DeleteActor)

	g.GET("/movies", h.Catalog.ListMovies)
	g.POST("/movies", h.Catalog.CreateMovie)
	g.GET("/movies/:id", h.Catalog.GetMovie)
	g.PUT("/movies/:id", h.Catalog.UpdateMovie)
	g.DELETE("/movies/:id", h.Catalog.DeleteMovie)

	// ---- Venues ----
	g.GET("/cinemas", h.Venue.ListCinemas)
	g.POST("/cinemas", h.Venue.CreateCinema)
	g.GET("/cinemas/:id", h.Venue.GetCinema)
	g.PUT("/cinemas/:id", h.Venue.UpdateCinema)
	g.DELETE("/cinemas/:id", h.Venue.DeleteCinema)

	g.POST("/rooms", h.Venue.CreateRoom)
	g.GET("/rooms/:id", h.Venue.GetRoom)
	g.PUT("/rooms/:id", h.Venue.UpdateRoom)
	g.DELETE("/rooms/:id", h.Venue.DeleteRoom)
	g.POST("/rooms/:id/generate-seats", h.Venue.GenerateSeats)
	g.PATCH("/seats/:id", h.Venue.UpdateSeat)

	g.GET("/seat-types", h.Venue.ListSeatTypes)
	g.POST("/seat-types", h.Venue.CreateSeatType)
	g.PUT("/seat-types/:id", h.Venue.UpdateSeatType)
	g.DELETE("/seat-types/:id", h.Venue.DeleteSeatType)

	// ---- Showtimes ----
	g.GET("/showtimes", h.Showtime.List)
	g.POST("/showtimes", h.Showtime.Create)
	g.GET("/showtimes/:id", h.Showtime.Get)
	g.PUT("/showtimes/:id", h.Showtime.Update)
	g.DELETE("/showtimes/:id", h.Showtime.Delete)

	g.POST("/bookings/release-expired", h.Booking.ReleaseExpired)
}
