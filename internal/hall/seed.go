package hall

import "github.com/nekogravitycat/hall-booking-backend/internal/pkg/calendar"

// DemoHall builds a sample venue open for the next 90 days from today.
func DemoHall(ownerID, today string) *Hall {
	return &Hall{
		OwnerID:        ownerID,
		Name:           "Tisha Grand Hall",
		Description:    "Air-conditioned banquet hall with stage, dining area and parking.",
		Address:        "Main Road",
		City:           "Bengaluru",
		Capacity:       500,
		BasePrice:      150000,
		IsActive:       true,
		AvailableDates: calendar.Range(today, 90),
		BookedDates:    []string{},
		BlockedDates:   []string{},
	}
}
