package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hall-booking-backend/internal/db"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/logger"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/calendar"
)

// seed inserts the demo hall, open for the next 90 days.
func main() {
	ownerID := flag.String("owner", "demo-owner", "owner user id (token subject)")
	tz := flag.String("tz", "Asia/Kolkata", "venue timezone used to pick today")
	flag.Parse()

	log, err := logger.New(false, "info")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is required")
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		log.Fatal("invalid timezone", zap.String("tz", *tz), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal("failed to migrate schema", zap.Error(err))
	}

	h := hall.DemoHall(*ownerID, calendar.Today(time.Now(), loc))
	if err := hall.NewPgxRepository(pool).Create(ctx, h); err != nil {
		log.Fatal("failed to create hall", zap.Error(err))
	}

	log.Info("seeded hall",
		zap.String("hall_id", h.ID),
		zap.String("owner_id", h.OwnerID),
		zap.Int("available_dates", len(h.AvailableDates)),
	)
}
