package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	_, err := Parse("2025-06-01")
	assert.NoError(t, err)

	for _, bad := range []string{"", "2025-6-1", "2025-02-30", "01-06-2025", "2025/06/01", "2025-06-01T00:00:00Z"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestToday_UsesVenueTimezone(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC is already the next day in India.
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-02", Today(now, kolkata))
	assert.Equal(t, "2025-06-01", Today(now, nil))
}

func TestAddDays(t *testing.T) {
	assert.Equal(t, "2025-03-01", AddDays("2025-02-28", 1))
	assert.Equal(t, "2024-12-31", AddDays("2025-01-01", -1))
	assert.Equal(t, "garbage", AddDays("garbage", 1))
}

func TestMonthPrefix(t *testing.T) {
	assert.Equal(t, "", MonthPrefix(0, 5))
	assert.Equal(t, "2025-", MonthPrefix(2025, 0))
	assert.Equal(t, "2025-", MonthPrefix(2025, 13))
	assert.Equal(t, "2025-06-", MonthPrefix(2025, 6))
}

func TestRange(t *testing.T) {
	assert.Equal(t, []string{"2025-01-30", "2025-01-31", "2025-02-01"}, Range("2025-01-30", 3))
	assert.Empty(t, Range("2025-01-30", 0))
}
