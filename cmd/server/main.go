package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hall-booking-backend/internal/app"
	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/config"
	"github.com/nekogravitycat/hall-booking-backend/internal/db"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/jobs"
	"github.com/nekogravitycat/hall-booking-backend/internal/logger"
	"github.com/nekogravitycat/hall-booking-backend/internal/mq"
	"github.com/nekogravitycat/hall-booking-backend/internal/notification"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/calendar"
)

const (
	demoOwnerID   = "demo-owner"
	triggersQueue = "hall-booking.triggers"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.IsProduction, cfg.LogLevel)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	appCfg := app.Config{
		IsProduction: cfg.IsProduction,
		ProdOrigins:  cfg.ProdOrigins,
		Version:      cfg.AppVersion,
		Logger:       log,
		JWTSecret:    cfg.JWTSecret,
		JWTTTL:       cfg.JWTAccessTokenTTL,
		JobOperators: cfg.JobOperators,
		Booking: booking.Config{
			Flow:           booking.Flow(cfg.BookingFlow),
			RequireAdvance: cfg.RequireAdvance,
			Location:       cfg.VenueTimezone,
		},
		Jobs: jobs.Config{
			PendingTTL: cfg.PendingTTL,
			Location:   cfg.VenueTimezone,
		},
	}

	// Store
	if cfg.StoreDriver == config.StorePostgres {
		pool, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			log.Fatal("failed to connect to db", zap.Error(err))
		}
		defer pool.Close()

		if cfg.AutoMigrate {
			if err := db.Migrate(ctx, pool); err != nil {
				log.Fatal("failed to migrate schema", zap.Error(err))
			}
		}
		appCfg.DBPool = pool
	} else {
		today := calendar.Today(time.Now(), cfg.VenueTimezone)
		appCfg.SeedHalls = []*hall.Hall{hall.DemoHall(demoOwnerID, today)}
		log.Warn("using in-memory store, data is lost on exit")
	}

	// Push delivery
	if cfg.FCMProjectID != "" {
		pusher, err := notification.NewFCMPusher(ctx, cfg.FCMProjectID, cfg.FCMCredentialsFile)
		if err != nil {
			log.Fatal("failed to init fcm", zap.Error(err))
		}
		appCfg.Pusher = pusher
	}

	// Job lock shared across replicas
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		appCfg.Locker = jobs.NewRedisLocker(rdb)
	}

	// Event transport
	var consumer *mq.Consumer
	if cfg.RabbitURL != "" {
		publisher, err := mq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			log.Fatal("failed to init event publisher", zap.Error(err))
		}
		defer func() { _ = publisher.Close() }()

		consumer, err = mq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, triggersQueue, log.Named("mq"))
		if err != nil {
			log.Fatal("failed to init event consumer", zap.Error(err))
		}
		defer func() { _ = consumer.Close() }()
		appCfg.EventSink = publisher
	}

	container := app.NewContainer(appCfg)

	if consumer != nil {
		go func() {
			if err := consumer.Run(ctx, container.Triggers); err != nil {
				log.Error("event consumer stopped", zap.Error(err))
			}
		}()
	}

	scheduler, err := jobs.NewScheduler(ctx, container.Jobs, cfg.ExpirySchedule, cfg.ReminderSchedule, cfg.VenueTimezone, log)
	if err != nil {
		log.Fatal("failed to schedule jobs", zap.Error(err))
	}
	scheduler.Start()

	if cfg.StoreDriver == config.StoreMemory && !cfg.IsProduction {
		if token, err := container.JWTManager.GenerateAccessToken(demoOwnerID, "Demo Owner"); err == nil {
			log.Info("demo owner token", zap.String("token", token))
		}
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		log.Info("server running", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}

	// Let running jobs and in-flight pushes finish
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("scheduled jobs still running at shutdown")
	}
	container.Dispatcher.Wait()

	log.Info("server exited gracefully")
}
