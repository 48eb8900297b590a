package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-portal-server/internal/middleware"
	"clinic-portal-server/internal/models"
	"clinic-portal-server/internal/utils"
)

// AvailabilityHandler manages doctors' weekly availability windows.
type AvailabilityHandler struct {
	DB *gorm.DB
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(db *gorm.DB) *AvailabilityHandler {
	return &AvailabilityHandler{DB: db}
}

// SetAvailabilityRequest represents the request body for setting one weekday's
// availability window.
type SetAvailabilityRequest struct {
	DayOfWeek   string `json:"dayOfWeek" binding:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime   string `json:"startTime" binding:"required"`
	EndTime     string `json:"endTime" binding:"required"`
	IsAvailable *bool  `json:"isAvailable"`
}

// SetAvailability upserts the calling doctor's window for one weekday. There is
// a single window per (doctor, day); setting it again replaces it.
func (h *AvailabilityHandler) SetAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		utils.BadRequest(c, "startTime must be in HH:MM format")
		return
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		utils.BadRequest(c, "endTime must be in HH:MM format")
		return
	}

	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}

	if isAvailable && !start.Before(end) {
		utils.BadRequest(c, "startTime must be before endTime")
		return
	}

	availability := models.WeeklyAvailability{
		DoctorID:    doctorID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: isAvailable,
	}

	err = h.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doctor_id"}, {Name: "day_of_week"}},
		DoUpdates: clause.AssignmentColumns([]string{"start_time", "end_time", "is_available"}),
	}).Create(&availability).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to save availability: "+err.Error())
		return
	}

	utils.Success(c, "Availability saved successfully", availability)
}

// GetOwnAvailability returns the calling doctor's full weekly schedule.
func (h *AvailabilityHandler) GetOwnAvailability(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	h.respondWithWeek(c, doctorID)
}

// GetDoctorAvailability returns a doctor's weekly schedule for booking UIs.
func (h *AvailabilityHandler) GetDoctorAvailability(c *gin.Context) {
	doctorID := c.Param("doctorId")

	var doctor models.User
	if err := h.DB.Where("id = ? AND role = ?", doctorID, models.RoleDoctor).First(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	h.respondWithWeek(c, doctorID)
}

func (h *AvailabilityHandler) respondWithWeek(c *gin.Context, doctorID string) {
	var week []models.WeeklyAvailability
	err := h.DB.Where("doctor_id = ?", doctorID).
		Order("field(day_of_week, 'monday','tuesday','wednesday','thursday','friday','saturday','sunday')").
		Find(&week).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch availability: "+err.Error())
		return
	}

	utils.Success(c, "Availability fetched successfully", week)
}
