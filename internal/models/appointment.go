package models

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Appointment represents a booked consultation. Date ("2006-01-02") and
// TimeOfDay ("15:04") are stored as strings so the slot conflict check is an
// exact string comparison. Appointments are never deleted; cancellation is a
// status transition, and cancelled rows do not block their slot.
type Appointment struct {
	BaseModel
	DoctorID         string            `gorm:"size:36;index:idx_doctor_date" json:"doctorId"`
	PatientID        string            `gorm:"size:36;index" json:"patientId"`
	Date             string            `gorm:"size:10;index:idx_doctor_date" json:"date"`
	TimeOfDay        string            `gorm:"size:5;column:time_of_day" json:"time"`
	Status           AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`
	ConsultationType string            `gorm:"size:50;default:'general'" json:"consultationType"`
	Symptoms         string            `gorm:"type:text" json:"symptoms"`
	Notes            string            `gorm:"type:text" json:"notes"`

	// Relations
	Doctor  User `gorm:"foreignKey:DoctorID" json:"-"`
	Patient User `gorm:"foreignKey:PatientID" json:"-"`
}

// WeeklyAvailability is one booking window per (doctor, weekday). DayOfWeek is
// the lowercase English weekday name; StartTime/EndTime are "15:04" strings.
// Invariant: StartTime < EndTime whenever IsAvailable is true.
type WeeklyAvailability struct {
	BaseModel
	DoctorID    string `gorm:"size:36;uniqueIndex:idx_doctor_day" json:"doctorId"`
	DayOfWeek   string `gorm:"size:10;uniqueIndex:idx_doctor_day" json:"dayOfWeek"`
	StartTime   string `gorm:"size:5" json:"startTime"`
	EndTime     string `gorm:"size:5" json:"endTime"`
	IsAvailable bool   `gorm:"default:true" json:"isAvailable"`

	Doctor User `gorm:"foreignKey:DoctorID" json:"-"`
}
