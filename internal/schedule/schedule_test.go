package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-portal-server/internal/models"
)

// fakeStore is an in-memory Store. Windows are keyed by doctorID+"/"+dayOfWeek;
// inserted appointments feed the conflict check, so sequential bookings behave
// like the real database.
type fakeStore struct {
	windows  map[string]*Window
	booked   map[string][]string // doctorID+"/"+date -> times
	inserted []*models.Appointment

	failWith error
	calls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		windows: map[string]*Window{},
		booked:  map[string][]string{},
	}
}

func (f *fakeStore) setWindow(doctorID, day, start, end string) {
	f.windows[doctorID+"/"+day] = &Window{StartTime: start, EndTime: end}
}

func (f *fakeStore) allTaken(doctorID, date string) []string {
	times := append([]string{}, f.booked[doctorID+"/"+date]...)
	for _, a := range f.inserted {
		if a.DoctorID == doctorID && a.Date == date && a.Status != models.StatusCancelled {
			times = append(times, a.TimeOfDay)
		}
	}
	return times
}

func (f *fakeStore) GetAvailability(_ context.Context, doctorID, dayOfWeek string) (*Window, error) {
	f.calls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.windows[doctorID+"/"+dayOfWeek], nil
}

func (f *fakeStore) GetBookedTimes(_ context.Context, doctorID, date string) ([]string, error) {
	f.calls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.allTaken(doctorID, date), nil
}

func (f *fakeStore) FindConflict(_ context.Context, doctorID, date, timeOfDay string) (bool, error) {
	f.calls++
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, t := range f.allTaken(doctorID, date) {
		if t == timeOfDay {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertAppointment(_ context.Context, appt *models.Appointment) error {
	f.calls++
	if f.failWith != nil {
		return f.failWith
	}
	for _, t := range f.allTaken(appt.DoctorID, appt.Date) {
		if t == appt.TimeOfDay {
			return ErrSlotTaken
		}
	}
	f.inserted = append(f.inserted, appt)
	return nil
}

const (
	testDoctor  = "doc-1"
	testPatient = "pat-1"
	// 2026-09-07 is a Monday.
	monday = "2026-09-07"
)

func TestAvailableSlots_FullWindow(t *testing.T) {
	store := newFakeStore()
	store.setWindow(testDoctor, "monday", "09:00", "11:00")
	svc := NewService(store, nil)

	slots, err := svc.AvailableSlots(context.Background(), testDoctor, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, slots)
}

func TestAvailableSlots_SkipsBookedTimes(t *testing.T) {
	store := newFakeStore()
	store.setWindow(testDoctor, "monday", "09:00", "11:00")
	store.booked[testDoctor+"/"+monday] = []string{"10:00"}
	svc := NewService(store, nil)

	slots, err := svc.AvailableSlots(context.Background(), testDoctor, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:30"}, slots)
}

func TestAvailableSlots_NoAvailabilityRow(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	slots, err := svc.AvailableSlots(context.Background(), "unknown-doctor", monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.NotNil(t, slots, "empty result must serialize as [], not null")
}

func TestAvailableSlots_StartEqualsEnd(t *testing.T) {
	store := newFakeStore()
	store.setWindow(testDoctor, "monday", "09:00", "09:00")
	svc := NewService(store, nil)

	slots, err := svc.AvailableSlots(context.Background(), testDoctor, monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlots_PartialTrailingIncrement(t *testing.T) {
	// Window not a multiple of 30 minutes: candidates stop once they reach or
	// pass the end, 10:00 is still a valid start (10:00 < 10:15).
	store := newFakeStore()
	store.setWindow(testDoctor, "monday", "09:00", "10:15")
	svc := NewService(store, nil)

	slots, err := svc.AvailableSlots(context.Background(), testDoctor, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, slots)
}

func TestAvailableSlots_EndTimeNeverEmitted(t *testing.T) {
	store := newFakeStore()
	store.setWindow(testDoctor, "monday", "09:00", "09:30")
	svc := NewService(store, nil)

	slots, err := svc.AvailableSlots(context.Background(), testDoctor, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, slots)
}

func TestAvailableSlots_Idempotent(t *testing.T) {
	store := newFakeStore()
	store.setWindow(testDoctor, "monday", "08:00", "12:00")
	store.booked[testDoctor+"/"+monday] = []string{"08:30", "11:00"}
	svc := NewService(store, nil)

	first, err := svc.AvailableSlots(context.Background(), testDoctor, monday)
	require.NoError(t, err)
	second, err := svc.AvailableSlots(context.Background(), testDoctor, monday)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAvailableSlots_BoundsAndAlignment(t *testing.T) {
	windows := []struct{ start, end string }{
		{"09:00", "11:00"},
		{"08:15", "10:00"},
		{"13:30", "17:45"},
	}
	for _, w := range windows {
		store := newFakeStore()
		store.setWindow(testDoctor, "monday", w.start, w.end)
		store.booked[testDoctor+"/"+monday] = []string{"09:00", "14:30"}
		svc := NewService(store, nil)

		slots, err := svc.AvailableSlots(context.Background(), testDoctor, monday)
		require.NoError(t, err)

		start, _ := time.Parse("15:04", w.start)
		end, _ := time.Parse("15:04", w.end)
		for _, s := range slots {
			slot, err := time.Parse("15:04", s)
			require.NoError(t, err)
			assert.False(t, slot.Before(start), "slot %s before window start %s", s, w.start)
			assert.True(t, slot.Before(end), "slot %s not before window end %s", s, w.end)
			assert.Zero(t, slot.Sub(start)%SlotInterval, "slot %s not aligned to 30m from %s", s, w.start)
			assert.NotContains(t, store.booked[testDoctor+"/"+monday], s)
		}
	}
}

func TestAvailableSlots_InvalidDate(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	_, err := svc.AvailableSlots(context.Background(), testDoctor, "not-a-date")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)
	assert.Zero(t, store.calls, "no store call should be made for an invalid date")
}

func TestAvailableSlots_StoreFailureSurfaces(t *testing.T) {
	store := newFakeStore()
	store.failWith = errors.New("connection reset")
	svc := NewService(store, nil)

	_, err := svc.AvailableSlots(context.Background(), testDoctor, monday)
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
}

func TestDayOfWeek_Deterministic(t *testing.T) {
	cases := map[string]string{
		"2026-09-07": "monday",
		"2026-09-08": "tuesday",
		"2026-09-09": "wednesday",
		"2026-09-10": "thursday",
		"2026-09-11": "friday",
		"2026-09-12": "saturday",
		"2026-09-13": "sunday",
	}

	// The mapping must not shift with the process timezone.
	zones := []*time.Location{time.UTC, time.FixedZone("UTC-11", -11*3600), time.FixedZone("UTC+13", 13*3600)}
	original := time.Local
	defer func() { time.Local = original }()

	for _, zone := range zones {
		time.Local = zone
		for date, want := range cases {
			got, err := DayOfWeek(date)
			require.NoError(t, err)
			assert.Equal(t, want, got, "date %s in zone %s", date, zone)
		}
	}
}

func TestBook_Success(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	appt, err := svc.Book(context.Background(), BookingRequest{
		DoctorID:  testDoctor,
		PatientID: testPatient,
		Date:      monday,
		TimeOfDay: "09:30",
		Symptoms:  "headache",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, "general", appt.ConsultationType, "consultation type should default")
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "09:30", store.inserted[0].TimeOfDay)
}

func TestBook_Conflict(t *testing.T) {
	store := newFakeStore()
	store.booked[testDoctor+"/"+monday] = []string{"09:30"}
	svc := NewService(store, nil)

	_, err := svc.Book(context.Background(), BookingRequest{
		DoctorID:  testDoctor,
		PatientID: testPatient,
		Date:      monday,
		TimeOfDay: "09:30",
	})
	require.ErrorIs(t, err, ErrSlotTaken)
	assert.Empty(t, store.inserted, "no row may be written on conflict")
}

func TestBook_SequentialDoubleBooking(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	req := BookingRequest{
		DoctorID:  testDoctor,
		PatientID: testPatient,
		Date:      monday,
		TimeOfDay: "10:00",
	}

	_, err := svc.Book(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), req)
	require.ErrorIs(t, err, ErrSlotTaken)
	assert.Len(t, store.inserted, 1, "second booking must not create a row")
}

func TestBook_CancelledSlotIsRebookable(t *testing.T) {
	store := newFakeStore()
	store.inserted = append(store.inserted, &models.Appointment{
		DoctorID:  testDoctor,
		PatientID: "someone-else",
		Date:      monday,
		TimeOfDay: "10:00",
		Status:    models.StatusCancelled,
	})
	svc := NewService(store, nil)

	_, err := svc.Book(context.Background(), BookingRequest{
		DoctorID:  testDoctor,
		PatientID: testPatient,
		Date:      monday,
		TimeOfDay: "10:00",
	})
	require.NoError(t, err)
}

func TestBook_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		req   BookingRequest
		field string
	}{
		{"empty doctor", BookingRequest{PatientID: testPatient, Date: monday, TimeOfDay: "09:00"}, "doctorId"},
		{"empty patient", BookingRequest{DoctorID: testDoctor, Date: monday, TimeOfDay: "09:00"}, "patientId"},
		{"empty date", BookingRequest{DoctorID: testDoctor, PatientID: testPatient, TimeOfDay: "09:00"}, "date"},
		{"empty time", BookingRequest{DoctorID: testDoctor, PatientID: testPatient, Date: monday}, "time"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewService(store, nil)

			_, err := svc.Book(context.Background(), tc.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Zero(t, store.calls, "validation failure must make zero persistence calls")
		})
	}
}

func TestBook_StoreDetectsLostRace(t *testing.T) {
	// FindConflict sees a free slot but InsertAppointment loses the race; the
	// store's ErrSlotTaken must surface unchanged.
	store := &racingStore{}
	svc := NewService(store, nil)

	_, err := svc.Book(context.Background(), BookingRequest{
		DoctorID:  testDoctor,
		PatientID: testPatient,
		Date:      monday,
		TimeOfDay: "09:00",
	})
	require.ErrorIs(t, err, ErrSlotTaken)
}

type racingStore struct{}

func (r *racingStore) GetAvailability(context.Context, string, string) (*Window, error) {
	return nil, nil
}

func (r *racingStore) GetBookedTimes(context.Context, string, string) ([]string, error) {
	return nil, nil
}

func (r *racingStore) FindConflict(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func (r *racingStore) InsertAppointment(context.Context, *models.Appointment) error {
	return ErrSlotTaken
}
