package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/jobs"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/calendar"
)

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func newTestContainer(t *testing.T) (*Container, *hall.Hall) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	demo := hall.DemoHall("owner-1", calendar.Today(time.Now(), time.UTC))
	c := NewContainer(Config{
		Version:      "1.0.0",
		SeedHalls:    []*hall.Hall{demo},
		JWTSecret:    "test-secret",
		JWTTTL:       time.Hour,
		JobOperators: []string{"ops-1"},
		Booking:      booking.Config{Flow: booking.FlowOwner, RequireAdvance: true, Location: time.UTC},
		Jobs:         jobs.Config{PendingTTL: 48 * time.Hour, Location: time.UTC},
	})
	require.NotEmpty(t, demo.ID)
	return c, demo
}

func tokenFor(t *testing.T, c *Container, userID string) string {
	t.Helper()
	token, err := c.JWTManager.GenerateAccessToken(userID, userID)
	require.NoError(t, err)
	return token
}

func TestHealth(t *testing.T) {
	c, _ := newTestContainer(t)

	w := client{t: t, router: c.Router}.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestRoutesRequireAuth(t *testing.T) {
	c, demo := newTestContainer(t)
	anon := client{t: t, router: c.Router}

	for _, path := range []string{"/v1/halls", "/v1/bookings", "/v1/notifications", "/v1/halls/" + demo.ID + "/summary"} {
		w := anon.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestHallOwnerRoutes(t *testing.T) {
	c, demo := newTestContainer(t)
	owner := client{t: t, router: c.Router, token: tokenFor(t, c, "owner-1")}
	stranger := client{t: t, router: c.Router, token: tokenFor(t, c, "someone")}
	date := calendar.AddDays(calendar.Today(time.Now(), time.UTC), 5)

	w := stranger.do(http.MethodPost, "/v1/halls/"+demo.ID+"/blocked-dates", gin.H{"date": date})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = stranger.do(http.MethodGet, "/v1/halls/"+demo.ID+"/summary", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = owner.do(http.MethodPost, "/v1/halls/"+demo.ID+"/blocked-dates", gin.H{"date": date})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = owner.do(http.MethodGet, "/v1/halls/00000000-0000-0000-0000-000000000000/summary", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Anyone signed in can read availability.
	w = stranger.do(http.MethodGet, "/v1/halls/"+demo.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Contains(t, got["blocked_dates"], date)
}

func TestBookingNotifiesCustomerAndOwner(t *testing.T) {
	c, demo := newTestContainer(t)
	owner := client{t: t, router: c.Router, token: tokenFor(t, c, "owner-1")}
	customer := client{t: t, router: c.Router, token: tokenFor(t, c, "cust-1")}
	date := calendar.AddDays(calendar.Today(time.Now(), time.UTC), 10)

	w := owner.do(http.MethodPost, "/v1/bookings", gin.H{
		"hall_id":          demo.ID,
		"date":             date,
		"customer_name":    "Asha Rao",
		"customer_phone":   "9800000000",
		"customer_user_id": "cust-1",
		"total_amount":     120000,
		"advance_amount":   30000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c.Dispatcher.Wait()

	type page struct {
		Items []struct {
			Title   string `json:"title"`
			Message string `json:"message"`
			Read    bool   `json:"read"`
			ID      string `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
	}

	w = customer.do(http.MethodGet, "/v1/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var inbox page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	require.Equal(t, 1, inbox.Total)
	assert.Equal(t, "Booking Confirmed! 🎉", inbox.Items[0].Title)

	w = owner.do(http.MethodGet, "/v1/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ownerInbox page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ownerInbox))
	require.Equal(t, 1, ownerInbox.Total)
	assert.Equal(t, "New Booking Request", ownerInbox.Items[0].Title)

	// Only the recipient can mark a notification read.
	w = owner.do(http.MethodPatch, "/v1/notifications/"+inbox.Items[0].ID+"/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = customer.do(http.MethodPatch, "/v1/notifications/"+inbox.Items[0].ID+"/read", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = customer.do(http.MethodGet, "/v1/notifications?unread_only=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	assert.Equal(t, 0, inbox.Total)

	var created struct {
		ID string `json:"id"`
	}
	w = owner.do(http.MethodGet, "/v1/bookings?hall_id="+demo.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	stranger := client{t: t, router: c.Router, token: tokenFor(t, c, "someone-else")}
	w = stranger.do(http.MethodGet, "/v1/bookings?hall_id="+demo.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var list struct {
		Items []json.RawMessage `json:"items"`
	}
	w = customer.do(http.MethodGet, "/v1/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	require.NoError(t, json.Unmarshal(list.Items[0], &created))

	w = stranger.do(http.MethodPatch, "/v1/bookings/"+created.ID+"/status", gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = customer.do(http.MethodPatch, "/v1/bookings/"+created.ID+"/status", gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJobRoutesRequireOperator(t *testing.T) {
	c, _ := newTestContainer(t)
	owner := client{t: t, router: c.Router, token: tokenFor(t, c, "owner-1")}
	ops := client{t: t, router: c.Router, token: tokenFor(t, c, "ops-1")}

	for _, path := range []string{"/v1/jobs/send-reminders", "/v1/jobs/expire-pending"} {
		w := owner.do(http.MethodPost, path, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		w = ops.do(http.MethodPost, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestPushTokenRegistration(t *testing.T) {
	c, _ := newTestContainer(t)
	me := client{t: t, router: c.Router, token: tokenFor(t, c, "cust-1")}

	w := me.do(http.MethodGet, "/v1/users/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = me.do(http.MethodPost, "/v1/users/me/push-tokens", gin.H{"token": "device-1"})
	require.Equal(t, http.StatusNoContent, w.Code)
	w = me.do(http.MethodPost, "/v1/users/me/push-tokens", gin.H{"token": "device-1"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = me.do(http.MethodGet, "/v1/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, float64(1), profile["push_tokens"])
}
