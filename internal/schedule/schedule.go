// Package schedule implements the booking core: deriving open 30-minute slots
// from a doctor's weekly availability and guarding appointment creation against
// double-booking. It talks to storage only through the Store interface.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"clinic-portal-server/internal/models"
)

// SlotInterval is the fixed length of a booking slot.
const SlotInterval = 30 * time.Minute

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ErrSlotTaken is returned when the requested slot already has a non-cancelled
// appointment.
var ErrSlotTaken = errors.New("slot already booked")

// ValidationError reports a missing or malformed booking field. It is returned
// before any store call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// Window is a doctor's availability window for one weekday, both bounds as
// "15:04" strings. The window is half-open: EndTime is never a slot start.
type Window struct {
	StartTime string
	EndTime   string
}

// Store is the persistence contract the core depends on. A GORM-backed
// implementation lives in this package; tests substitute a fake.
type Store interface {
	// GetAvailability returns the availability window for (doctor, weekday),
	// or nil when the doctor has none for that day.
	GetAvailability(ctx context.Context, doctorID, dayOfWeek string) (*Window, error)
	// GetBookedTimes returns the times of all non-cancelled appointments for
	// (doctor, date).
	GetBookedTimes(ctx context.Context, doctorID, date string) ([]string, error)
	// FindConflict reports whether a non-cancelled appointment exists at
	// (doctor, date, time).
	FindConflict(ctx context.Context, doctorID, date, timeOfDay string) (bool, error)
	// InsertAppointment persists a new appointment. Implementations must
	// return ErrSlotTaken if a conflicting row appeared since FindConflict,
	// so two concurrent bookings for one slot cannot both succeed.
	InsertAppointment(ctx context.Context, appt *models.Appointment) error
}

// Service computes available slots and books appointments.
type Service struct {
	store Store
	log   *zap.Logger
}

// NewService creates a Service over the given store.
func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

// DayOfWeek maps a "2006-01-02" date to its lowercase English weekday name.
// The date is interpreted in UTC so the mapping never depends on the server's
// timezone or locale.
func DayOfWeek(date string) (string, error) {
	d, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return "", &ValidationError{Field: "date", Reason: "must be a valid YYYY-MM-DD date"}
	}
	return strings.ToLower(d.Weekday().String()), nil
}

// AvailableSlots returns the open 30-minute slot start times ("15:04") for a
// doctor on a date, in ascending order. A doctor with no availability for the
// day (or an unknown doctor) yields an empty list, not an error.
func (s *Service) AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error) {
	day, err := DayOfWeek(date)
	if err != nil {
		return nil, err
	}

	window, err := s.store.GetAvailability(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("fetching availability: %w", err)
	}
	if window == nil {
		return []string{}, nil
	}

	start, err := time.Parse(timeLayout, window.StartTime)
	if err != nil {
		return nil, fmt.Errorf("malformed availability start time %q: %w", window.StartTime, err)
	}
	end, err := time.Parse(timeLayout, window.EndTime)
	if err != nil {
		return nil, fmt.Errorf("malformed availability end time %q: %w", window.EndTime, err)
	}

	bookedTimes, err := s.store.GetBookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("fetching booked times: %w", err)
	}
	booked := make(map[string]struct{}, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = struct{}{}
	}

	// Half-open [start, end): the end time is never emitted as a slot start,
	// and a trailing partial increment is dropped.
	slots := []string{}
	for t := start; t.Before(end); t = t.Add(SlotInterval) {
		slot := t.Format(timeLayout)
		if _, taken := booked[slot]; !taken {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// BookingRequest carries the fields needed to book an appointment. DoctorID,
// PatientID, Date and TimeOfDay are required; the rest are optional details.
type BookingRequest struct {
	DoctorID         string
	PatientID        string
	Date             string
	TimeOfDay        string
	ConsultationType string
	Symptoms         string
	Notes            string
}

func (r *BookingRequest) validate() error {
	switch {
	case r.DoctorID == "":
		return &ValidationError{Field: "doctorId", Reason: "must not be empty"}
	case r.PatientID == "":
		return &ValidationError{Field: "patientId", Reason: "must not be empty"}
	case r.Date == "":
		return &ValidationError{Field: "date", Reason: "must not be empty"}
	case r.TimeOfDay == "":
		return &ValidationError{Field: "time", Reason: "must not be empty"}
	}
	return nil
}

// Book creates a pending appointment at the requested slot, or returns
// ErrSlotTaken when a non-cancelled appointment already occupies it.
//
// The weekly schedule window is intentionally not re-checked here; only the
// conflict check gates the insert. The store's InsertAppointment re-verifies
// the conflict atomically, so the check-then-insert pair is race-free even
// under concurrent requests.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*models.Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	conflict, err := s.store.FindConflict(ctx, req.DoctorID, req.Date, req.TimeOfDay)
	if err != nil {
		return nil, fmt.Errorf("checking slot conflict: %w", err)
	}
	if conflict {
		return nil, ErrSlotTaken
	}

	consultationType := req.ConsultationType
	if consultationType == "" {
		consultationType = "general"
	}

	appt := &models.Appointment{
		DoctorID:         req.DoctorID,
		PatientID:        req.PatientID,
		Date:             req.Date,
		TimeOfDay:        req.TimeOfDay,
		Status:           models.StatusPending,
		ConsultationType: consultationType,
		Symptoms:         req.Symptoms,
		Notes:            req.Notes,
	}

	if err := s.store.InsertAppointment(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, ErrSlotTaken
		}
		s.log.Error("failed to insert appointment",
			zap.String("doctorId", req.DoctorID),
			zap.String("date", req.Date),
			zap.String("time", req.TimeOfDay),
			zap.Error(err))
		return nil, fmt.Errorf("inserting appointment: %w", err)
	}
	return appt, nil
}
