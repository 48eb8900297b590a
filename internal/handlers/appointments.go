package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-portal-server/internal/middleware"
	"clinic-portal-server/internal/models"
	"clinic-portal-server/internal/schedule"
	"clinic-portal-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	DB        *gorm.DB
	Scheduler *schedule.Service
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, scheduler *schedule.Service) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Scheduler: scheduler}
}

// GetAvailableSlots handles listing the open 30-minute booking slots for a
// doctor on a given date. A doctor with no schedule for that weekday yields an
// empty list.
func (h *AppointmentHandler) GetAvailableSlots(c *gin.Context) {
	doctorID := c.Query("doctorId")
	date := c.Query("date")
	if doctorID == "" || date == "" {
		utils.BadRequest(c, "doctorId and date query parameters are required")
		return
	}

	slots, err := h.Scheduler.AvailableSlots(c.Request.Context(), doctorID, date)
	if err != nil {
		var verr *schedule.ValidationError
		if errors.As(err, &verr) {
			utils.BadRequest(c, verr.Error())
			return
		}
		utils.InternalServerError(c, "Failed to compute available slots: "+err.Error())
		return
	}

	utils.Success(c, "Available slots fetched successfully", gin.H{"availableSlots": slots})
}

// BookAppointmentRequest represents the request body for booking an appointment.
type BookAppointmentRequest struct {
	DoctorID         string `json:"doctorId" binding:"required"`
	Date             string `json:"date" binding:"required"`
	Time             string `json:"time" binding:"required"`
	ConsultationType string `json:"consultationType"`
	Symptoms         string `json:"symptoms"`
	Notes            string `json:"notes"`
}

// BookAppointment handles booking a slot. The patient is taken from the token;
// only the conflict check gates the booking, the weekly schedule window is not
// re-validated here.
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	var req BookAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, err := h.Scheduler.Book(c.Request.Context(), schedule.BookingRequest{
		DoctorID:         req.DoctorID,
		PatientID:        patientID,
		Date:             req.Date,
		TimeOfDay:        req.Time,
		ConsultationType: req.ConsultationType,
		Symptoms:         req.Symptoms,
		Notes:            req.Notes,
	})
	if err != nil {
		var verr *schedule.ValidationError
		switch {
		case errors.Is(err, schedule.ErrSlotTaken):
			utils.Conflict(c, "slot already booked")
		case errors.As(err, &verr):
			utils.BadRequest(c, verr.Error())
		default:
			utils.InternalServerError(c, "Failed to book appointment: "+err.Error())
		}
		return
	}

	utils.Created(c, "Appointment booked successfully", gin.H{
		"appointmentId": appt.ID,
		"appointment":   appt,
	})
}

// GetAppointmentsForUser handles fetching appointments for the logged-in user.
// Patients and students see their own bookings, doctors see their calendar,
// admins see everything.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	var appointments []models.Appointment
	var err error

	query := h.DB.Preload("Patient").Preload("Doctor").Order("date asc, time_of_day asc")

	switch userRole {
	case models.RolePatient, models.RoleStudent:
		err = query.Where("patient_id = ?", userID).Find(&appointments).Error
	case models.RoleDoctor:
		err = query.Where("doctor_id = ?", userID).Find(&appointments).Error
	case models.RoleAdmin:
		err = query.Find(&appointments).Error
	default:
		utils.Forbidden(c, "User role not permitted to view appointments")
		return
	}

	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
// Accessible by the involved patient, doctor, or an admin.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointmentID := c.Param("id")

	var appointment models.Appointment
	if err := h.DB.Preload("Patient").Preload("Doctor").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	if userRole != models.RoleAdmin && userID != appointment.PatientID && userID != appointment.DoctorID {
		utils.Forbidden(c, "You are not authorized to view this appointment")
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointmentStatusRequest represents the request body for updating an
// appointment's status.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required,oneof=pending confirmed cancelled completed"`
	Notes  string                   `json:"notes"`
}

// UpdateAppointmentStatus handles status transitions. Doctors confirm,
// complete, or cancel their own appointments; patients may only cancel theirs;
// admins may do anything. Cancelling frees the slot for rebooking because the
// conflict check ignores cancelled rows.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	appointmentID := c.Param("id")

	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	canUpdate := false
	switch {
	case userRole == models.RoleAdmin:
		canUpdate = true
	case userRole == models.RoleDoctor && userID == appointment.DoctorID:
		canUpdate = true
	case (userRole == models.RolePatient || userRole == models.RoleStudent) && userID == appointment.PatientID:
		// Patients can only cancel, and only while the appointment is upcoming
		if req.Status == models.StatusCancelled &&
			(appointment.Status == models.StatusPending || appointment.Status == models.StatusConfirmed) {
			canUpdate = true
		} else {
			utils.Forbidden(c, "Patients can only cancel pending or confirmed appointments.")
			return
		}
	}

	if !canUpdate {
		utils.Forbidden(c, "You are not authorized to update this appointment's status.")
		return
	}

	appointment.Status = req.Status
	if req.Notes != "" {
		appointment.Notes = req.Notes
	}

	if err := h.DB.Save(&appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to update appointment status: "+err.Error())
		return
	}

	utils.Success(c, "Appointment status updated successfully", appointment)
}
