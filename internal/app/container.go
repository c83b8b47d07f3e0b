package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hall-booking-backend/internal/api"
	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/db"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/jobs"
	"github.com/nekogravitycat/hall-booking-backend/internal/notification"
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Version      string
	Logger       *zap.Logger

	// DBPool selects the PostgreSQL stores. When nil, process-local stores
	// seeded with SeedHalls are used.
	DBPool    *pgxpool.Pool
	SeedHalls []*hall.Hall

	JWTSecret    string
	JWTTTL       time.Duration
	JobOperators []string

	Booking booking.Config
	Jobs    jobs.Config

	Pusher notification.Pusher
	Locker jobs.Locker
	// EventSink overrides the in-process delivery of booking events to Triggers.
	EventSink booking.EventSink
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Jobs       *jobs.Jobs
	Triggers   *booking.Triggers
	Dispatcher *notification.Dispatcher
}

type stores struct {
	halls         hall.Repository
	bookings      booking.Repository
	notifications notification.Repository
	users         user.Repository
	tx            db.TxManager
}

func newStores(cfg Config) stores {
	if cfg.DBPool == nil {
		return stores{
			halls:         hall.NewMemoryRepository(cfg.SeedHalls...),
			bookings:      booking.NewMemoryRepository(),
			notifications: notification.NewMemoryRepository(),
			users:         user.NewMemoryRepository(),
			tx:            db.NewMemoryTxManager(),
		}
	}
	return stores{
		halls:         hall.NewPgxRepository(cfg.DBPool),
		bookings:      booking.NewPgxRepository(cfg.DBPool),
		notifications: notification.NewPgxRepository(cfg.DBPool),
		users:         user.NewPgxRepository(cfg.DBPool),
		tx:            db.NewPgxTxManager(cfg.DBPool),
	}
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	pusher := cfg.Pusher
	if pusher == nil {
		pusher = notification.NewLogPusher(log)
	}

	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	s := newStores(cfg)

	// User Module
	userService := user.NewService(s.users)

	// Notification Module
	dispatcher := notification.NewDispatcher(s.notifications, s.users, pusher, notification.DefaultRetryConfig(), log.Named("notify"))
	notificationService := notification.NewService(s.notifications)

	// Hall Module
	hallService := hall.NewService(s.halls)

	// Booking Module
	triggers := booking.NewTriggers(s.bookings, s.halls, s.tx, dispatcher, log.Named("triggers"))
	sink := cfg.EventSink
	if sink == nil {
		sink = booking.NewInlineSink(triggers)
	}
	bookingService := booking.NewService(s.bookings, s.halls, s.tx, sink, cfg.Booking, log.Named("booking"))

	// Jobs Module
	jobRunner := jobs.New(s.bookings, sink, dispatcher, cfg.Locker, cfg.Jobs, log.Named("jobs"))

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Version:             cfg.Version,
		Logger:              log,
		JWTManager:          jwtManager,
		HallService:         hallService,
		BookingService:      bookingService,
		NotificationService: notificationService,
		UserService:         userService,
		Jobs:                jobRunner,
		JobOperators:        cfg.JobOperators,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Jobs:       jobRunner,
		Triggers:   triggers,
		Dispatcher: dispatcher,
	}
}
