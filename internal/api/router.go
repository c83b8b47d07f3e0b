package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/hall-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	hallHttp "github.com/nekogravitycat/hall-booking-backend/internal/hall/http"
	"github.com/nekogravitycat/hall-booking-backend/internal/jobs"
	jobsHttp "github.com/nekogravitycat/hall-booking-backend/internal/jobs/http"
	"github.com/nekogravitycat/hall-booking-backend/internal/logger"
	"github.com/nekogravitycat/hall-booking-backend/internal/notification"
	notificationHttp "github.com/nekogravitycat/hall-booking-backend/internal/notification/http"
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/hall-booking-backend/internal/user/http"
)

// Config holds everything the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Version      string
	Logger       *zap.Logger

	JWTManager          *auth.JWTManager
	HallService         hall.Service
	BookingService      booking.Service
	NotificationService notification.Service
	UserService         user.Service
	Jobs                *jobs.Jobs
	// JobOperators may trigger scheduled jobs by hand.
	JobOperators        []string
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: one structured line per request.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(logger.GinLogger(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins(cfg.IsProduction, cfg.ProdOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Version:   cfg.Version,
		})
	})

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// ownerMiddleware: Further checks that the caller owns the hall in the path.
	ownerMiddleware := RequireHallOwner(cfg.HallService)
	operatorMiddleware := RequireOperator(cfg.JobOperators)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	hallHandler := hallHttp.NewHandler(cfg.HallService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	notificationHandler := notificationHttp.NewHandler(cfg.NotificationService)
	userHandler := userHttp.NewHandler(cfg.UserService)
	jobsHandler := jobsHttp.NewHandler(cfg.Jobs)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		hallHttp.RegisterRoutes(v1, hallHandler, authMiddleware, ownerMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, ownerMiddleware)
		notificationHttp.RegisterRoutes(v1, notificationHandler, authMiddleware)
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		jobsHttp.RegisterRoutes(v1, jobsHandler, authMiddleware, operatorMiddleware)
	}

	return r
}

func allowedOrigins(isProduction bool, prodOrigins string) []string {
	if !isProduction {
		return []string{
			"http://localhost:3000",
			"http://localhost:8081", // Swagger
		}
	}
	var origins []string
	for _, o := range strings.Split(prodOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
