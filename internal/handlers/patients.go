package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carehub-server/internal/connect"
	"carehub-server/internal/middleware"
	"carehub-server/internal/models"
	"carehub-server/internal/utils"
)

// PatientHandler handles a patient's own profile.
type PatientHandler struct {
	DB      *gorm.DB
	Connect *connect.Service
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB, connectSvc *connect.Service) *PatientHandler {
	return &PatientHandler{DB: db, Connect: connectSvc}
}

// patientProfileForUser resolves the PatientProfile of an authenticated user.
func patientProfileForUser(db *gorm.DB, userID string) (*models.PatientProfile, error) {
	var profile models.PatientProfile
	if err := db.First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// physicianProfileForUser resolves the PhysicianProfile of an authenticated user.
func physicianProfileForUser(db *gorm.DB, userID string) (*models.PhysicianProfile, error) {
	var profile models.PhysicianProfile
	if err := db.First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetMe returns the authenticated patient's profile with the linked physician.
func (h *PatientHandler) GetMe(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var profile models.PatientProfile
	if err := h.DB.Preload("Physician").First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Profile fetched successfully", profile)
}

// UpdatePatientRequest represents a partial update of the patient profile.
// A connect code may ride along to link (or re-link) a physician.
type UpdatePatientRequest struct {
	FullName    string     `json:"fullName" binding:"omitempty,max=150"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Phone       *string    `json:"phone" binding:"omitempty,max=30"`
	Address     *string    `json:"address"`
	HeightCm    *float64   `json:"heightCm" binding:"omitempty,gte=0,lte=300"`
	WeightKg    *float64   `json:"weightKg" binding:"omitempty,gte=0,lte=500"`
	ConnectCode string     `json:"connectCode"`
}

// UpdateMe updates the authenticated patient's profile. Unlike signup, an
// invalid connect code here is an error and nothing is saved.
func (h *PatientHandler) UpdateMe(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req UpdatePatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	profile, err := patientProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Patient profile not found")
		return
	}

	if req.ConnectCode != "" {
		physician, err := h.Connect.Redeem(c.Request.Context(), profile.ID, req.ConnectCode)
		if err != nil {
			if errors.Is(err, connect.ErrCodeInvalid) {
				utils.BadRequest(c, "No physician found with this connect code")
			} else {
				utils.InternalServerError(c, "Failed to redeem connect code: "+err.Error())
			}
			return
		}
		// Redeem wrote physician_id inside its own transaction; the profile
		// loaded above predates that, so carry the link into this struct or
		// the Save below would overwrite it with the stale nil.
		profile.PhysicianID = &physician.ID
	}

	if req.FullName != "" {
		profile.FullName = req.FullName
	}
	if req.DateOfBirth != nil {
		profile.DateOfBirth = req.DateOfBirth
	}
	if req.Phone != nil {
		profile.Phone = *req.Phone
	}
	if req.Address != nil {
		profile.Address = *req.Address
	}
	if req.HeightCm != nil {
		profile.HeightCm = req.HeightCm
	}
	if req.WeightKg != nil {
		profile.WeightKg = req.WeightKg
	}

	if err := h.DB.Save(profile).Error; err != nil {
		utils.InternalServerError(c, "Failed to update profile: "+err.Error())
		return
	}

	var updated models.PatientProfile
	if err := h.DB.Preload("Physician").First(&updated, "id = ?", profile.ID).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	utils.Success(c, "Profile updated successfully", updated)
}

// UnlinkPhysician removes the patient's physician link.
func (h *PatientHandler) UnlinkPhysician(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	profile, err := patientProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Patient profile not found")
		return
	}

	if profile.PhysicianID == nil {
		utils.BadRequest(c, "No physician is currently linked")
		return
	}

	if err := h.DB.Model(profile).Update("physician_id", nil).Error; err != nil {
		utils.InternalServerError(c, "Failed to unlink physician: "+err.Error())
		return
	}

	utils.Success(c, "Physician unlinked successfully", nil)
}

// DeleteMe removes the patient's account together with its profile, health
// records, and refresh tokens.
func (h *PatientHandler) DeleteMe(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	profile, err := patientProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Patient profile not found")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var recordIDs []string
		if err := tx.Model(&models.HealthRecord{}).
			Where("patient_id = ?", profile.ID).
			Pluck("id", &recordIDs).Error; err != nil {
			return err
		}
		if len(recordIDs) > 0 {
			if err := tx.Delete(&models.HealthRecordAttachment{}, "health_record_id IN ?", recordIDs).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.HealthRecord{}, "id IN ?", recordIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.PatientProfile{}, "id = ?", profile.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.RefreshToken{}, "user_id = ?", userID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", userID).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to delete account: "+err.Error())
		return
	}

	utils.Success(c, "Account deleted successfully", nil)
}
