package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth      *handler.AuthHandler
	Booking   *handler.BookingHandler
	Catalog   *handler.CatalogHandler
	Review    *handler.ReviewHandler
	Showtime  *handler.ShowtimeHandler
	Venue     *handler.VenueHandler
	DB        handler.Pinger
	JWTSecret string
}

// Options carries the shared infrastructure used by middleware.  A nil
// Redis client turns response caching and rate limiting into no-ops.
type Options struct {
	Service   string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       logrus.FieldLogger
}

// New builds the echo instance with the global middleware chain and every
// route group registered.
func New(h Handlers, opt Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(opt.Log))
	e.Use(middleware.Tracing(opt.Service))
	e.Use(middleware.Metrics())

	e.GET("/healthz", handler.Health(h.DB))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	RegisterPublic(e, h, opt)
	RegisterAuth(e, h, opt)
	RegisterBooking(e, h, opt)
	RegisterAdmin(e, h, opt)
	return e
}

// RegisterPublic registers the unauthenticated browse endpoints.  Their
// responses are cached in Redis; the seat map is not, because it depends
// on the viewer and has its own cache in the booking service.
func RegisterPublic(e *echo.Echo, h Handlers, opt Options) {
	g := e.Group("/api", middleware.NewRedisCache(opt.Cache, opt.Redis))

	g.GET("/genres", h.Catalog.ListGenres)
	g.GET("/genres/:id", h.Catalog.GetGenre)
	g.GET("/actors", h.Catalog.ListActors)
	g.GET("/actors/:id", h.Catalog.GetActor)
	g.GET("/movies", h.Catalog.ListMovies)
	g.GET("/movies/:id", h.Catalog.GetMovie)
	g.GET("/movies/:id/reviews", h.Review.List)

	g.GET("/cinemas", h.Venue.ListCinemas)
	g.GET("/cinemas/:id", h.Venue.GetCinema)
	g.GET("/cinemas/:id/rooms", h.Venue.ListRooms)
	g.GET("/rooms/:id", h.Venue.GetRoom)
	g.GET("/rooms/:id/seats", h.Venue.ListSeats)

	g.GET("/showtimes", h.Showtime.List)
	g.GET("/showtimes/:id", h.Showtime.Get)

	e.GET("/api/showtimes/:id/seats", h.Booking.SeatMap, middleware.OptionalAuth(h.JWTSecret))
}

// RegisterAuth registers account endpoints.  Everything here is rate
// limited per client address.
func RegisterAuth(e *echo.Echo, h Handlers, opt Options) {
	limit := middleware.NewTokenBucket(opt.RateLimit, opt.Redis, opt.Log)

	g := e.Group("/api/auth", limit)
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	g.POST("/logout", h.Auth.Logout, middleware.OptionalAuth(h.JWTSecret))
	g.POST("/password-reset", h.Auth.RequestPasswordReset)
	g.POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)

	e.GET("/api/activate/:uid/:token/", h.Auth.Activate, limit)
}
