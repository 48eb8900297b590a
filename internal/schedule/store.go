package schedule

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-portal-server/internal/models"
)

// GormStore implements Store on top of the MySQL database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore over the given database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// GetAvailability fetches the single availability window for (doctor, weekday).
// Only one row per doctor/day exists; rows with is_available=false are treated
// the same as no row.
func (s *GormStore) GetAvailability(ctx context.Context, doctorID, dayOfWeek string) (*Window, error) {
	var row models.WeeklyAvailability
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND day_of_week = ? AND is_available = ?", doctorID, dayOfWeek, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &Window{StartTime: row.StartTime, EndTime: row.EndTime}, nil
}

// GetBookedTimes returns the time_of_day values of all non-cancelled
// appointments for (doctor, date), ascending.
func (s *GormStore) GetBookedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	var times []string
	err := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND date = ? AND status <> ?", doctorID, date, models.StatusCancelled).
		Order("time_of_day asc").
		Pluck("time_of_day", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

// FindConflict reports whether a non-cancelled appointment occupies the slot.
func (s *GormStore) FindConflict(ctx context.Context, doctorID, date, timeOfDay string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND date = ? AND time_of_day = ? AND status <> ?",
			doctorID, date, timeOfDay, models.StatusCancelled).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertAppointment re-checks the conflict under a row lock and inserts inside
// one transaction, so two concurrent bookings for the same slot serialize at
// the database and the loser gets ErrSlotTaken.
func (s *GormStore) InsertAppointment(ctx context.Context, appt *models.Appointment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Appointment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("doctor_id = ? AND date = ? AND time_of_day = ? AND status <> ?",
				appt.DoctorID, appt.Date, appt.TimeOfDay, models.StatusCancelled).
			Find(&existing).Error
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrSlotTaken
		}
		return tx.Create(appt).Error
	})
}
