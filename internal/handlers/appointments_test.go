package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carehub-server/internal/models"
	"carehub-server/internal/schedule"
)

func appointmentRouter(db *gorm.DB, userID string, role models.Role) *gin.Engine {
	router := gin.New()
	h := NewAppointmentHandler(db, schedule.NewService(db, testLogger()))
	grp := router.Group("/appointments", authAs(userID, role))
	grp.POST("", h.CreateAppointment)
	grp.GET("", h.GetAppointments)
	grp.PATCH("/:id/status", h.UpdateAppointmentStatus)
	return router
}

func seedFreeSlot(t *testing.T, db *gorm.DB, physicianID string, start time.Time) models.AvailabilitySlot {
	t.Helper()

	slot := models.AvailabilitySlot{
		PhysicianID: physicianID,
		Start:       start,
		End:         start.Add(30 * time.Minute),
	}
	require.NoError(t, db.Create(&slot).Error)
	return slot
}

func TestAppointmentStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	docUser, docProfile := seedPhysicianAccount(t, db, "Dr Flow", "flow@clinic.test", "gp")
	patUser, _ := seedPatientAccount(t, db, "Pat Flow", "flow@home.test")
	slot := seedFreeSlot(t, db, docProfile.ID, time.Now().Add(48*time.Hour))

	patientRouter := appointmentRouter(db, patUser.ID, models.RolePatient)
	physicianRouter := appointmentRouter(db, docUser.ID, models.RolePhysician)

	rec := performJSON(t, patientRouter, http.MethodPost, "/appointments", gin.H{
		"slotId": slot.ID,
		"reason": "checkup",
	})
	requireStatus(t, rec, http.StatusCreated)

	var appt models.Appointment
	decodeData(t, rec, &appt)
	assert.Equal(t, models.StatusPending, appt.Status)

	// Physicians may not skip straight from pending to completed.
	rec = performJSON(t, physicianRouter, http.MethodPatch, "/appointments/"+appt.ID+"/status",
		gin.H{"status": "completed"})
	requireStatus(t, rec, http.StatusBadRequest)

	rec = performJSON(t, physicianRouter, http.MethodPatch, "/appointments/"+appt.ID+"/status",
		gin.H{"status": "confirmed"})
	requireStatus(t, rec, http.StatusOK)

	rec = performJSON(t, physicianRouter, http.MethodPatch, "/appointments/"+appt.ID+"/status",
		gin.H{"status": "completed"})
	requireStatus(t, rec, http.StatusOK)

	// Completed is terminal.
	rec = performJSON(t, physicianRouter, http.MethodPatch, "/appointments/"+appt.ID+"/status",
		gin.H{"status": "cancelled"})
	requireStatus(t, rec, http.StatusBadRequest)

	var reloaded models.Appointment
	require.NoError(t, db.First(&reloaded, "id = ?", appt.ID).Error)
	assert.Equal(t, models.StatusCompleted, reloaded.Status)
}

func TestCancelledAppointmentStaysCancelled(t *testing.T) {
	db := setupTestDB(t)
	docUser, docProfile := seedPhysicianAccount(t, db, "Dr Final", "final@clinic.test", "gp")
	patUser, _ := seedPatientAccount(t, db, "Pat Final", "final@home.test")
	slot := seedFreeSlot(t, db, docProfile.ID, time.Now().Add(72*time.Hour))

	patientRouter := appointmentRouter(db, patUser.ID, models.RolePatient)
	physicianRouter := appointmentRouter(db, docUser.ID, models.RolePhysician)

	rec := performJSON(t, patientRouter, http.MethodPost, "/appointments", gin.H{
		"slotId": slot.ID,
		"reason": "follow-up",
	})
	requireStatus(t, rec, http.StatusCreated)

	var appt models.Appointment
	decodeData(t, rec, &appt)

	rec = performJSON(t, patientRouter, http.MethodPatch, "/appointments/"+appt.ID+"/status",
		gin.H{"status": "cancelled"})
	requireStatus(t, rec, http.StatusOK)

	// Cancelling released the slot.
	var freedSlot models.AvailabilitySlot
	require.NoError(t, db.First(&freedSlot, "id = ?", slot.ID).Error)
	assert.False(t, freedSlot.IsBooked)

	// Reviving a cancelled appointment would double-book the freed slot.
	rec = performJSON(t, physicianRouter, http.MethodPatch, "/appointments/"+appt.ID+"/status",
		gin.H{"status": "confirmed"})
	requireStatus(t, rec, http.StatusBadRequest)

	var reloaded models.Appointment
	require.NoError(t, db.First(&reloaded, "id = ?", appt.ID).Error)
	assert.Equal(t, models.StatusCancelled, reloaded.Status)
}
