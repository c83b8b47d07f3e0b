package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/db"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/calendar"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/response"
)

const (
	hallID     = "8f14e45f-ceea-467f-a0e6-2f3b5c1d9a10"
	ownerID    = "owner-1"
	userHeader = "X-Test-User"
)

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, string, string) {}

func newTestRouter(t *testing.T, flow booking.Flow) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	halls := hall.NewMemoryRepository(&hall.Hall{
		ID:             hallID,
		OwnerID:        ownerID,
		Name:           "Tisha Grand Hall",
		AvailableDates: calendar.Range("2025-05-01", 60),
	})
	repo := booking.NewMemoryRepository()
	tx := db.NewMemoryTxManager()
	triggers := booking.NewTriggers(repo, halls, tx, noopNotifier{}, zap.NewNop())
	now := time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC)
	svc := booking.NewService(repo, halls, tx, booking.NewInlineSink(triggers),
		booking.Config{Flow: flow, RequireAdvance: true}, zap.NewNop(),
		booking.WithClock(func() time.Time { return now }))

	// Stands in for token auth: the caller is named by a header.
	authAs := func(c *gin.Context) {
		auth.SetUser(c, c.GetHeader(userHeader), "")
		c.Next()
	}
	pass := func(c *gin.Context) { c.Next() }
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc), authAs, pass)
	return r
}

func do(r *gin.Engine, userID, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(userHeader, userID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createBody(date string) gin.H {
	return gin.H{
		"hall_id":        hallID,
		"date":           date,
		"customer_name":  "Asha Rao",
		"customer_phone": "9800000000",
		"event_type":     "wedding",
		"guest_count":    250,
		"total_amount":   100000,
		"advance_amount": 20000,
	}
}

func TestCreateBooking(t *testing.T) {
	r := newTestRouter(t, booking.FlowOwner)

	w := do(r, ownerID, http.MethodPost, "/v1/bookings", createBody("2025-06-01"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "confirmed", created.Status)
	assert.Equal(t, "Tisha Grand Hall", created.HallName)
	assert.Equal(t, int64(80000), created.Financials.Balance)
	assert.Equal(t, "veg", created.EventDetails.DietaryPreference)

	t.Run("same slot conflicts", func(t *testing.T) {
		w := do(r, ownerID, http.MethodPost, "/v1/bookings", createBody("2025-06-01"))
		assert.Equal(t, http.StatusConflict, w.Code)

		var resp response.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "This date is already booked", resp.Error)
	})

	t.Run("past date", func(t *testing.T) {
		w := do(r, ownerID, http.MethodPost, "/v1/bookings", createBody("2025-04-01"))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp response.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Cannot book a past date", resp.Error)
	})

	t.Run("hall id must be a uuid", func(t *testing.T) {
		body := createBody("2025-06-03")
		body["hall_id"] = "hall-1"
		w := do(r, ownerID, http.MethodPost, "/v1/bookings", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := do(r, ownerID, http.MethodGet, "/v1/bookings/"+created.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = do(r, ownerID, http.MethodGet, "/v1/bookings/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateStatusAndHallLists(t *testing.T) {
	r := newTestRouter(t, booking.FlowOwner)

	w := do(r, ownerID, http.MethodPost, "/v1/bookings", createBody("2025-06-01"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = do(r, ownerID, http.MethodPatch, "/v1/bookings/"+created.ID+"/status", gin.H{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, ownerID, http.MethodPatch, "/v1/bookings/"+created.ID+"/status", gin.H{"status": "cancelled", "reason": "weather"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "weather", cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancelledAt)

	w = do(r, ownerID, http.MethodGet, "/v1/halls/"+hallID+"/bookings/cancelled", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page response.PageResponse[BookingResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, created.ID, page.Items[0].ID)

	w = do(r, ownerID, http.MethodGet, "/v1/halls/"+hallID+"/bookings/upcoming", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 0, page.Total)
	assert.NotNil(t, page.Items)

	// The date can be booked again.
	w = do(r, ownerID, http.MethodPost, "/v1/bookings", createBody("2025-06-01"))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, ownerID, http.MethodGet, "/v1/halls/"+hallID+"/summary?year=2025&month=6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalBookings)
	assert.Equal(t, 1, summary.ConfirmedBookings)
	assert.Equal(t, 1, summary.CancelledBookings)
	assert.Equal(t, int64(100000), summary.PendingAmount)
}

func TestBookingAccess(t *testing.T) {
	r := newTestRouter(t, booking.FlowOwner)

	body := createBody("2025-06-01")
	body["customer_user_id"] = "cust-1"
	w := do(r, ownerID, http.MethodPost, "/v1/bookings", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	t.Run("only the owner records bookings", func(t *testing.T) {
		w := do(r, "someone-else", http.MethodPost, "/v1/bookings", createBody("2025-06-02"))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("stranger", func(t *testing.T) {
		w := do(r, "someone-else", http.MethodGet, "/v1/bookings?hall_id="+hallID, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = do(r, "someone-else", http.MethodGet, "/v1/bookings?user_id=cust-1", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = do(r, "someone-else", http.MethodGet, "/v1/bookings", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var page response.PageResponse[BookingResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Zero(t, page.Total)

		w = do(r, "someone-else", http.MethodGet, "/v1/bookings/"+created.ID, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = do(r, "someone-else", http.MethodPatch, "/v1/bookings/"+created.ID, gin.H{"customer_name": "X"})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = do(r, "someone-else", http.MethodPatch, "/v1/bookings/"+created.ID+"/status", gin.H{"status": "cancelled"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("customer", func(t *testing.T) {
		w := do(r, "cust-1", http.MethodGet, "/v1/bookings/"+created.ID, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = do(r, "cust-1", http.MethodGet, "/v1/bookings", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var page response.PageResponse[BookingResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 1, page.Total)

		w = do(r, "cust-1", http.MethodPatch, "/v1/bookings/"+created.ID, gin.H{"total_amount": 1})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = do(r, "cust-1", http.MethodPatch, "/v1/bookings/"+created.ID+"/status", gin.H{"status": "cancelled"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("unknown booking", func(t *testing.T) {
		w := do(r, ownerID, http.MethodGet, "/v1/bookings/00000000-0000-0000-0000-000000000000", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCustomerCannotConfirmOwnRequest(t *testing.T) {
	r := newTestRouter(t, booking.FlowCustomer)

	w := do(r, "cust-1", http.MethodPost, "/v1/bookings", createBody("2025-06-01"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "cust-1", created.Customer.UserID)

	w = do(r, "cust-1", http.MethodPatch, "/v1/bookings/"+created.ID+"/status", gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, ownerID, http.MethodPatch, "/v1/bookings/"+created.ID+"/status", gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
