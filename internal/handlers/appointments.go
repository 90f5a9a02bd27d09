package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carehub-server/internal/middleware"
	"carehub-server/internal/models"
	"carehub-server/internal/schedule"
	"carehub-server/internal/utils"
)

// AppointmentHandler handles slot listing and appointment booking.
type AppointmentHandler struct {
	DB       *gorm.DB
	Schedule *schedule.Service
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, scheduleSvc *schedule.Service) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Schedule: scheduleSvc}
}

// ListPhysicianSlots lists a physician's free future slots, optionally for a
// single day (?date=2006-01-02).
func (h *AppointmentHandler) ListPhysicianSlots(c *gin.Context) {
	physicianID := c.Param("id")

	var physician models.PhysicianProfile
	if err := h.DB.First(&physician, "id = ?", physicianID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Physician not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var day *time.Time
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = &parsed
	}

	slots, err := h.Schedule.FreeSlots(c.Request.Context(), physician.ID, day)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch slots: "+err.Error())
		return
	}

	utils.Success(c, "Slots fetched successfully", slots)
}

// CreateAppointmentRequest represents the request body for booking a slot.
type CreateAppointmentRequest struct {
	SlotID string `json:"slotId" binding:"required,uuid"`
	Reason string `json:"reason" binding:"required,max=255"`
}

// CreateAppointment books a free slot for the authenticated patient.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	profile, err := patientProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Patient profile not found")
		return
	}

	appointment, err := h.Schedule.Book(c.Request.Context(), profile.ID, req.SlotID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrSlotNotFound):
			utils.NotFound(c, "Availability slot not found")
		case errors.Is(err, schedule.ErrSlotTaken):
			utils.BadRequest(c, "This slot has already been booked")
		default:
			utils.InternalServerError(c, "Failed to book appointment: "+err.Error())
		}
		return
	}

	utils.Created(c, "Appointment booked successfully", appointment)
}

// GetAppointments lists the authenticated user's appointments, soonest first.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Order("start_time asc")

	var appointments []models.Appointment
	var err error
	switch role {
	case models.RolePatient:
		profile, perr := patientProfileForUser(h.DB, userID)
		if perr != nil {
			utils.NotFound(c, "Patient profile not found")
			return
		}
		err = query.Where("patient_id = ?", profile.ID).Find(&appointments).Error
	case models.RolePhysician:
		profile, perr := physicianProfileForUser(h.DB, userID)
		if perr != nil {
			utils.NotFound(c, "Physician profile not found")
			return
		}
		err = query.Where("physician_id = ?", profile.ID).Find(&appointments).Error
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

// UpdateAppointmentStatusRequest represents the request body for a status change.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required,oneof=pending confirmed cancelled completed"`
	Notes  string                   `json:"notes"`
}

// UpdateAppointmentStatus changes an appointment's status. Physicians manage
// their own appointments; patients may only cancel. Cancelling frees the slot.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	canUpdate := false
	switch role {
	case models.RolePhysician:
		profile, err := physicianProfileForUser(h.DB, userID)
		canUpdate = err == nil && profile.ID == appointment.PhysicianID
	case models.RolePatient:
		profile, err := patientProfileForUser(h.DB, userID)
		if err == nil && profile.ID == appointment.PatientID {
			if req.Status != models.StatusCancelled {
				utils.Forbidden(c, "Patients can only cancel appointments.")
				return
			}
			canUpdate = appointment.Status == models.StatusPending || appointment.Status == models.StatusConfirmed
		}
	}
	if !canUpdate {
		utils.Forbidden(c, "You are not authorized to update this appointment's status.")
		return
	}

	if !appointment.Status.CanTransitionTo(req.Status) {
		utils.BadRequest(c, "Cannot change a "+string(appointment.Status)+" appointment to "+string(req.Status))
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		appointment.Status = req.Status
		if req.Notes != "" {
			appointment.Notes = req.Notes
		}
		if err := tx.Save(&appointment).Error; err != nil {
			return err
		}
		// A cancelled appointment releases its slot for rebooking.
		if req.Status == models.StatusCancelled && appointment.SlotID != nil {
			return tx.Model(&models.AvailabilitySlot{}).
				Where("id = ?", *appointment.SlotID).
				Update("is_booked", false).Error
		}
		return nil
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to update appointment status: "+err.Error())
		return
	}

	utils.Success(c, "Appointment status updated successfully", appointment)
}
