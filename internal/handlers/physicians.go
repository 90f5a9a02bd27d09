package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carehub-server/internal/middleware"
	"carehub-server/internal/models"
	"carehub-server/internal/utils"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// PhysicianHandler handles physician profiles, search, and the patient roster.
type PhysicianHandler struct {
	DB *gorm.DB
}

// NewPhysicianHandler creates a new PhysicianHandler.
func NewPhysicianHandler(db *gorm.DB) *PhysicianHandler {
	return &PhysicianHandler{DB: db}
}

// GetMe returns the authenticated physician's profile.
func (h *PhysicianHandler) GetMe(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	profile, err := physicianProfileForUser(h.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Physician profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Profile fetched successfully", profile)
}

// UpdatePhysicianRequest represents a partial update of the physician profile.
type UpdatePhysicianRequest struct {
	FullName       string  `json:"fullName" binding:"omitempty,max=150"`
	Specialization *string `json:"specialization" binding:"omitempty,max=150"`
	ClinicName     *string `json:"clinicName" binding:"omitempty,max=150"`
}

// UpdateMe updates the authenticated physician's profile.
func (h *PhysicianHandler) UpdateMe(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req UpdatePhysicianRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	profile, err := physicianProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Physician profile not found")
		return
	}

	if req.FullName != "" {
		profile.FullName = req.FullName
	}
	if req.Specialization != nil {
		profile.Specialization = *req.Specialization
	}
	if req.ClinicName != nil {
		profile.ClinicName = *req.ClinicName
	}

	if err := h.DB.Save(profile).Error; err != nil {
		utils.InternalServerError(c, "Failed to update profile: "+err.Error())
		return
	}

	utils.Success(c, "Profile updated successfully", profile)
}

// SearchResult is one page of a physician search. The same query with the
// same offset always reproduces the page, so a client can restart or resume
// the sequence at will.
type SearchResult struct {
	Items  []models.PhysicianPublic `json:"items"`
	Total  int64                    `json:"total"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

// Search lists physicians filtered by name and/or specialty, paginated and
// ordered by name then id for a stable sequence.
func (h *PhysicianHandler) Search(c *gin.Context) {
	limit := parseBoundedInt(c.Query("limit"), defaultSearchLimit, 1, maxSearchLimit)
	offset := parseBoundedInt(c.Query("offset"), 0, 0, 1<<30)

	query := h.DB.Model(&models.PhysicianProfile{})
	if q := c.Query("q"); q != "" {
		query = query.Where("full_name LIKE ?", "%"+q+"%")
	}
	if specialty := c.Query("specialty"); specialty != "" {
		query = query.Where("specialization LIKE ?", "%"+specialty+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count physicians: "+err.Error())
		return
	}

	var profiles []models.PhysicianProfile
	if err := query.Order("full_name asc, id asc").Limit(limit).Offset(offset).Find(&profiles).Error; err != nil {
		utils.InternalServerError(c, "Failed to search physicians: "+err.Error())
		return
	}

	items := make([]models.PhysicianPublic, len(profiles))
	for i, p := range profiles {
		items[i] = p.Public()
	}

	utils.Success(c, "Physicians fetched successfully", SearchResult{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetPatients returns the roster of patients linked to the authenticated
// physician, optionally filtered by name or phone.
func (h *PhysicianHandler) GetPatients(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	profile, err := physicianProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Physician profile not found")
		return
	}

	query := h.DB.Where("physician_id = ?", profile.ID)
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("full_name LIKE ? OR phone LIKE ?", like, like)
	}

	var patients []models.PatientProfile
	if err := query.Order("full_name asc").Find(&patients).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch patients: "+err.Error())
		return
	}

	utils.Success(c, "Patients fetched successfully", patients)
}

// GetPatientDetail returns a single linked patient with their health records.
func (h *PhysicianHandler) GetPatientDetail(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	patientID := c.Param("id")

	profile, err := physicianProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Physician profile not found")
		return
	}

	var patient models.PatientProfile
	if err := h.DB.First(&patient, "id = ? AND physician_id = ?", patientID, profile.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient not found or not linked to you")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var records []models.HealthRecord
	if err := h.DB.Where("patient_id = ?", patient.ID).Order("recorded_at desc").Find(&records).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch records: "+err.Error())
		return
	}

	utils.Success(c, "Patient fetched successfully", gin.H{
		"patient": patient,
		"records": records,
	})
}

// parseBoundedInt parses s as an int, applying a default and clamping to
// [min, max].
func parseBoundedInt(s string, def, min, max int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
