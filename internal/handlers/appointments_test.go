package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-portal-server/internal/models"
	"clinic-portal-server/internal/schedule"
)

// slotStore is an in-memory schedule.Store for handler tests.
type slotStore struct {
	window   *schedule.Window
	inserted []*models.Appointment
}

func (s *slotStore) GetAvailability(context.Context, string, string) (*schedule.Window, error) {
	return s.window, nil
}

func (s *slotStore) GetBookedTimes(_ context.Context, doctorID, date string) ([]string, error) {
	var times []string
	for _, a := range s.inserted {
		if a.DoctorID == doctorID && a.Date == date {
			times = append(times, a.TimeOfDay)
		}
	}
	return times, nil
}

func (s *slotStore) FindConflict(_ context.Context, doctorID, date, timeOfDay string) (bool, error) {
	for _, a := range s.inserted {
		if a.DoctorID == doctorID && a.Date == date && a.TimeOfDay == timeOfDay {
			return true, nil
		}
	}
	return false, nil
}

func (s *slotStore) InsertAppointment(_ context.Context, appt *models.Appointment) error {
	s.inserted = append(s.inserted, appt)
	return nil
}

func newTestRouter(store schedule.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAppointmentHandler(nil, schedule.NewService(store, nil))

	router := gin.New()
	// Stand-in for the auth middleware
	router.Use(func(c *gin.Context) {
		c.Set("userID", "patient-1")
		c.Set("userRole", models.RolePatient)
	})
	router.GET("/api/v1/appointments/available-slots", h.GetAvailableSlots)
	router.POST("/api/v1/appointments", h.BookAppointment)
	return router
}

func doRequest(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetAvailableSlots_ReturnsSlots(t *testing.T) {
	store := &slotStore{window: &schedule.Window{StartTime: "09:00", EndTime: "11:00"}}
	router := newTestRouter(store)

	w := doRequest(router, http.MethodGet, "/api/v1/appointments/available-slots?doctorId=doc-1&date=2026-09-07", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			AvailableSlots []string `json:"availableSlots"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, resp.Data.AvailableSlots)
}

func TestGetAvailableSlots_EmptyListIsNotNull(t *testing.T) {
	router := newTestRouter(&slotStore{}) // no availability window

	w := doRequest(router, http.MethodGet, "/api/v1/appointments/available-slots?doctorId=doc-1&date=2026-09-07", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"availableSlots":[]`)
}

func TestGetAvailableSlots_MissingParams(t *testing.T) {
	router := newTestRouter(&slotStore{})

	w := doRequest(router, http.MethodGet, "/api/v1/appointments/available-slots?doctorId=doc-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAvailableSlots_InvalidDate(t *testing.T) {
	router := newTestRouter(&slotStore{})

	w := doRequest(router, http.MethodGet, "/api/v1/appointments/available-slots?doctorId=doc-1&date=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookAppointment_CreatesPendingAppointment(t *testing.T) {
	store := &slotStore{window: &schedule.Window{StartTime: "09:00", EndTime: "11:00"}}
	router := newTestRouter(store)

	w := doRequest(router, http.MethodPost, "/api/v1/appointments",
		`{"doctorId":"doc-1","date":"2026-09-07","time":"09:30","symptoms":"cough"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			AppointmentID string `json:"appointmentId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "patient-1", store.inserted[0].PatientID, "patient must come from the token")
	assert.Equal(t, models.StatusPending, store.inserted[0].Status)
}

func TestBookAppointment_ConflictReturns409(t *testing.T) {
	store := &slotStore{window: &schedule.Window{StartTime: "09:00", EndTime: "11:00"}}
	router := newTestRouter(store)

	body := `{"doctorId":"doc-1","date":"2026-09-07","time":"09:30"}`
	w := doRequest(router, http.MethodPost, "/api/v1/appointments", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/appointments", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "slot already booked")
	assert.Len(t, store.inserted, 1)
}

func TestBookAppointment_MissingFieldsReturns400(t *testing.T) {
	store := &slotStore{}
	router := newTestRouter(store)

	w := doRequest(router, http.MethodPost, "/api/v1/appointments",
		`{"doctorId":"doc-1","time":"09:30"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.inserted)
}
