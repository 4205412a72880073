package main // Entry point package

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-booking/internal/cache"
	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/logging"
	"github.com/iliyamo/cinema-booking/internal/mailer"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/tracing"
	"github.com/iliyamo/cinema-booking/internal/worker"
)

const serviceName = "cinema-booking"

func main() {
	cfg := config.Load() // Load environment config
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Fatalf("server stopped: %+v", err)
	}
	log.Info("server exiting")
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := tracing.SetupOTel(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownOTel(context.Background()) }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("schema applied")
	}

	cacheCfg := config.LoadCacheConfig()
	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}
	seatMaps := cache.NewSeatMapCache(rdb, cacheCfg.Prefix, cacheCfg.SeatMapTTL, log)

	pub := queue.NewPublisher(cfg.RabbitURL, log)
	defer pub.Close()

	var mail mailer.Mailer = mailer.NewQueueMailer(pub)
	if cfg.Env == "dev" {
		mail = mailer.NewLogMailer(log)
	}

	sink, closeSink, err := auditSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	// ---- Services ----
	bookingRepo := repository.NewBookingRepo(db)
	showtimeRepo := repository.NewShowtimeRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)

	bookings := service.NewBookingService(bookingRepo, showtimeRepo, pub, seatMaps, service.BookingConfig{
		HoldDuration: cfg.HoldDuration,
		MaxSeats:     cfg.MaxSeatsPerBooking,
		SweepBatch:   cfg.SweepBatchSize,
	}, log)
	identity := service.NewIdentityService(repository.NewUserRepo(db), repository.NewTokenRepo(db), mail, service.IdentityConfig{
		JWTSecret:     cfg.JWTSecret,
		AccessTTL:     time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL:    time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
		BcryptCost:    cfg.BcryptCost,
		ActivationTTL: cfg.ActivationTTL,
		ResetTTL:      cfg.ResetTTL,
		PublicHost:    cfg.PublicHost,
	}, log)

	e := router.New(router.Handlers{
		Auth:      handler.NewAuthHandler(identity),
		Booking:   handler.NewBookingHandler(bookings),
		Catalog:   handler.NewCatalogHandler(service.NewCatalogService(catalogRepo, log)),
		Review:    handler.NewReviewHandler(service.NewReviewService(repository.NewReviewRepo(db), catalogRepo, log)),
		Showtime:  handler.NewShowtimeHandler(service.NewShowtimeService(showtimeRepo, catalogRepo, seatMaps, log)),
		Venue:     handler.NewVenueHandler(service.NewVenueService(repository.NewVenueRepo(db), log)),
		DB:        db,
		JWTSecret: cfg.JWTSecret,
	}, router.Options{
		Service:   serviceName,
		Redis:     rdb,
		Cache:     cacheCfg,
		RateLimit: config.LoadRateLimitConfig(),
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "env": cfg.Env}).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		return worker.NewSweeper(bookings, cfg.SweepInterval, log).Run(gctx)
	})
	g.Go(func() error {
		return queue.NewConsumer(cfg.RabbitURL, sink, log).Run(gctx)
	})
	return g.Wait()
}

// auditSink stores consumed booking events in MongoDB when MONGO_URI is
// set and in an append-only file otherwise.
func auditSink(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (queue.AuditSink, func(), error) {
	if cfg.MongoURI == "" {
		return queue.NewFileSink(cfg.AuditLogPath), func() {}, nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect mongo")
	}
	log.Info("booking audit stored in mongo")
	return queue.NewMongoSink(client.Database(serviceName)), func() {
		_ = client.Disconnect(context.Background())
	}, nil
}
