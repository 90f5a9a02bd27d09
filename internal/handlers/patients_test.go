package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carehub-server/internal/connect"
	"carehub-server/internal/models"
)

func patientRouter(db *gorm.DB, svc *connect.Service, userID string) *gin.Engine {
	router := gin.New()
	h := NewPatientHandler(db, svc)
	grp := router.Group("/patients/me", authAs(userID, models.RolePatient))
	grp.GET("", h.GetMe)
	grp.PUT("", h.UpdateMe)
	grp.DELETE("", h.DeleteMe)
	grp.DELETE("/physician", h.UnlinkPhysician)
	return router
}

func TestUpdatePatientRejectsNegativeWeight(t *testing.T) {
	db := setupTestDB(t)
	svc := newConnectService(db)
	user, profile := seedPatientAccount(t, db, "Pat Metrics", "metrics@home.test")
	router := patientRouter(db, svc, user.ID)

	rec := performJSON(t, router, http.MethodPut, "/patients/me", gin.H{"weightKg": -5})
	requireStatus(t, rec, http.StatusBadRequest)

	rec = performJSON(t, router, http.MethodPut, "/patients/me", gin.H{"heightCm": -1})
	requireStatus(t, rec, http.StatusBadRequest)

	var reloaded models.PatientProfile
	require.NoError(t, db.First(&reloaded, "id = ?", profile.ID).Error)
	assert.Nil(t, reloaded.WeightKg, "rejected update must not persist")
}

func TestUpdatePatientProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := newConnectService(db)
	user, _ := seedPatientAccount(t, db, "Pat Update", "update@home.test")
	router := patientRouter(db, svc, user.ID)

	rec := performJSON(t, router, http.MethodPut, "/patients/me", gin.H{
		"fullName": "Pat Updated",
		"phone":    "555-0101",
		"heightCm": 172.5,
		"weightKg": 64,
	})
	requireStatus(t, rec, http.StatusOK)

	var updated models.PatientProfile
	decodeData(t, rec, &updated)
	assert.Equal(t, "Pat Updated", updated.FullName)
	assert.Equal(t, "555-0101", updated.Phone)
	require.NotNil(t, updated.HeightCm)
	assert.InDelta(t, 172.5, *updated.HeightCm, 0.001)
}

func TestUpdatePatientWithBadConnectCodeSavesNothing(t *testing.T) {
	db := setupTestDB(t)
	svc := newConnectService(db)
	user, profile := seedPatientAccount(t, db, "Pat Code", "code@home.test")
	router := patientRouter(db, svc, user.ID)

	rec := performJSON(t, router, http.MethodPut, "/patients/me", gin.H{
		"fullName":    "Should Not Stick",
		"connectCode": "BOGUS123",
	})
	requireStatus(t, rec, http.StatusBadRequest)

	var reloaded models.PatientProfile
	require.NoError(t, db.First(&reloaded, "id = ?", profile.ID).Error)
	assert.Equal(t, "Pat Code", reloaded.FullName)
	assert.Nil(t, reloaded.PhysicianID)
}

func TestUpdatePatientWithConnectCodeLinksPhysician(t *testing.T) {
	db := setupTestDB(t)
	svc := newConnectService(db)
	_, docProfile := seedPhysicianAccount(t, db, "Dr Via Edit", "viaedit@clinic.test", "gp")
	user, profile := seedPatientAccount(t, db, "Pat Edit", "edit@home.test")

	require.NoError(t, db.Create(&models.ConnectCode{
		Code:        "EDITCODE",
		PhysicianID: docProfile.ID,
		ExpiresAt:   time.Now().Add(time.Hour),
	}).Error)

	router := patientRouter(db, svc, user.ID)
	rec := performJSON(t, router, http.MethodPut, "/patients/me", gin.H{
		"connectCode": "EDITCODE",
		"phone":       "555-0202",
	})
	requireStatus(t, rec, http.StatusOK)

	var reloaded models.PatientProfile
	require.NoError(t, db.First(&reloaded, "id = ?", profile.ID).Error)
	require.NotNil(t, reloaded.PhysicianID, "link must survive the profile save")
	assert.Equal(t, docProfile.ID, *reloaded.PhysicianID)
	assert.Equal(t, "555-0202", reloaded.Phone)

	// The one-time code is spent and attributed to this patient.
	var cc models.ConnectCode
	require.NoError(t, db.First(&cc, "code = ?", "EDITCODE").Error)
	require.NotNil(t, cc.UsedAt)
	require.NotNil(t, cc.UsedByPatientID)
	assert.Equal(t, profile.ID, *cc.UsedByPatientID)
}

func TestUnlinkPhysician(t *testing.T) {
	db := setupTestDB(t)
	svc := newConnectService(db)
	_, docProfile := seedPhysicianAccount(t, db, "Dr Gone", "gone@clinic.test", "gp")
	user, profile := seedPatientAccount(t, db, "Pat Unlink", "unlink@home.test")

	require.NoError(t, db.Model(&models.PatientProfile{}).
		Where("id = ?", profile.ID).Update("physician_id", docProfile.ID).Error)

	router := patientRouter(db, svc, user.ID)

	rec := performJSON(t, router, http.MethodDelete, "/patients/me/physician", nil)
	requireStatus(t, rec, http.StatusOK)

	var reloaded models.PatientProfile
	require.NoError(t, db.First(&reloaded, "id = ?", profile.ID).Error)
	assert.Nil(t, reloaded.PhysicianID)

	// Unlinking twice is a client error.
	rec = performJSON(t, router, http.MethodDelete, "/patients/me/physician", nil)
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestDeletePatientAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := newConnectService(db)
	user, profile := seedPatientAccount(t, db, "Pat Delete", "delete@home.test")

	require.NoError(t, db.Create(&models.HealthRecord{
		PatientID:  profile.ID,
		RecordedAt: time.Now(),
	}).Error)

	router := patientRouter(db, svc, user.ID)
	rec := performJSON(t, router, http.MethodDelete, "/patients/me", nil)
	requireStatus(t, rec, http.StatusOK)

	var users, profiles, records int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Count(&users).Error)
	require.NoError(t, db.Model(&models.PatientProfile{}).Where("id = ?", profile.ID).Count(&profiles).Error)
	require.NoError(t, db.Model(&models.HealthRecord{}).Where("patient_id = ?", profile.ID).Count(&records).Error)
	assert.Zero(t, users)
	assert.Zero(t, profiles)
	assert.Zero(t, records)
}
