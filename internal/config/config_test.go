package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestFromEnv_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.IsProduction)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "owner", cfg.BookingFlow)
	assert.True(t, cfg.RequireAdvance)
	assert.Equal(t, 48*time.Hour, cfg.PendingTTL)
	assert.Equal(t, "Asia/Kolkata", cfg.VenueTimezone.String())
	assert.Equal(t, "0 0 * * *", cfg.ExpirySchedule)
	assert.Equal(t, "0 9 * * *", cfg.ReminderSchedule)
	assert.Equal(t, "booking.events", cfg.RabbitExchange)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
}

func TestFromEnv_PostgresRequiresDSN(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "DB_DSN is required")
}

func TestFromEnv_RequiresJWTSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "JWT_SECRET is required")
}

func TestFromEnv_PendingTTLAcceptsHours(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PENDING_TTL", "24")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.PendingTTL)

	t.Setenv("PENDING_TTL", "90m")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.PendingTTL)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"flow", "BOOKING_FLOW", "walk-in"},
		{"driver", "STORE_DRIVER", "mongo"},
		{"timezone", "VENUE_TIMEZONE", "Mars/Olympus"},
		{"advance", "REQUIRE_ADVANCE", "maybe"},
		{"ttl", "PENDING_TTL", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_ProductionRequiresOrigins(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PROD_ORIGINS", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "PROD_ORIGINS is required")

	t.Setenv("PROD_ORIGINS", "https://halls.example.com")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction)
}

func TestFromEnv_JobOperators(t *testing.T) {
	setBaseEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Empty(t, cfg.JobOperators)

	t.Setenv("JOB_OPERATORS", " ops-1, ,ops-2 ")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"ops-1", "ops-2"}, cfg.JobOperators)
}
